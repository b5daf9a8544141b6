package paypal

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"hash/crc32"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/config"
)

// SignatureHeaders carries the transmission headers PayPal attaches to every
// webhook delivery.
type SignatureHeaders struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
}

// SignatureHeadersFromRequest extracts the PayPal transmission headers.
func SignatureHeadersFromRequest(h http.Header) SignatureHeaders {
	return SignatureHeaders{
		TransmissionID:   h.Get("Paypal-Transmission-Id"),
		TransmissionTime: h.Get("Paypal-Transmission-Time"),
		TransmissionSig:  h.Get("Paypal-Transmission-Sig"),
		CertURL:          h.Get("Paypal-Cert-Url"),
		AuthAlgo:         h.Get("Paypal-Auth-Algo"),
	}
}

// Complete reports whether every header required for verification is present.
func (s SignatureHeaders) Complete() bool {
	return s.TransmissionID != "" && s.TransmissionTime != "" &&
		s.TransmissionSig != "" && s.CertURL != ""
}

// Verifier validates webhook deliveries against PayPal's published
// verification contract.
type Verifier interface {
	Verify(ctx context.Context, payload []byte, headers SignatureHeaders) (bool, error)
	Enforced() bool
}

type cachedCert struct {
	pem       []byte
	fetchedAt time.Time
}

// Client verifies transmission signatures using PayPal's hosted certificates.
// The signature base string is transmissionID|transmissionTime|webhookID|crc32(body),
// signed SHA256-with-RSA by the certificate the cert URL points at.
type Client struct {
	webhookID string
	certTTL   time.Duration
	http      *http.Client

	mu    sync.Mutex
	certs map[string]cachedCert
}

// NewClient builds a verifier from the PayPal configuration.
func NewClient(cfg config.PayPalConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.CertFetchTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		webhookID: cfg.WebhookID,
		certTTL:   ttl,
		http:      &http.Client{Timeout: timeout},
		certs:     map[string]cachedCert{},
	}
}

// Enforced reports whether a webhook id is configured; without one,
// verification cannot run and callers decide whether to accept unverified
// deliveries.
func (c *Client) Enforced() bool {
	return c.webhookID != ""
}

// Verify checks the delivery signature. A false return with nil error means
// the signature is definitively invalid; errors indicate the verification
// machinery itself failed (cert fetch, malformed cert).
func (c *Client) Verify(ctx context.Context, payload []byte, headers SignatureHeaders) (bool, error) {
	if !c.Enforced() {
		return false, fmt.Errorf("webhook id not configured")
	}
	if !headers.Complete() {
		return false, nil
	}

	certPEM, err := c.fetchCert(ctx, headers.CertURL)
	if err != nil {
		return false, fmt.Errorf("fetch cert: %w", err)
	}

	pub, err := publicKeyFromPEM(certPEM)
	if err != nil {
		return false, fmt.Errorf("parse cert: %w", err)
	}

	sig, err := base64.StdEncoding.DecodeString(headers.TransmissionSig)
	if err != nil {
		return false, nil
	}

	expected := fmt.Sprintf("%s|%s|%s|%d",
		headers.TransmissionID,
		headers.TransmissionTime,
		c.webhookID,
		crc32.ChecksumIEEE(payload),
	)
	digest := sha256.Sum256([]byte(expected))

	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Client) fetchCert(ctx context.Context, certURL string) ([]byte, error) {
	c.mu.Lock()
	cached, ok := c.certs[certURL]
	c.mu.Unlock()
	if ok && time.Since(cached.fetchedAt) < c.certTTL {
		return cached.pem, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cert endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.certs[certURL] = cachedCert{pem: body, fetchedAt: time.Now()}
	c.mu.Unlock()
	return body, nil
}

func publicKeyFromPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate key is %T, want RSA", cert.PublicKey)
	}
	return pub, nil
}
