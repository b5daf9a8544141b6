package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	paypalwebhook "github.com/kuraeplasma/SPACEGLEAM/internal/webhooks/paypal"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/paypal"
)

type fakeWebhookService struct {
	calls int
	err   error
}

func (s *fakeWebhookService) HandleEvent(ctx context.Context, event *paypalwebhook.Event) error {
	s.calls++
	return s.err
}

type fakeVerifier struct {
	enforced bool
	valid    bool
	err      error
}

func (v *fakeVerifier) Verify(ctx context.Context, payload []byte, headers paypal.SignatureHeaders) (bool, error) {
	return v.valid, v.err
}

func (v *fakeVerifier) Enforced() bool { return v.enforced }

type memStore struct {
	keys map[string]string
}

func newMemStore() *memStore { return &memStore{keys: make(map[string]string)} }

func (s *memStore) Get(ctx context.Context, key string) (string, error) { return s.keys[key], nil }

func (s *memStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = "1"
	return true, nil
}

func (s *memStore) IdempotencyKey(scope, id string) string { return "idemp:" + scope + ":" + id }

func (s *memStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func newGuard(t *testing.T) *paypalwebhook.IdempotencyGuard {
	t.Helper()
	guard, err := paypalwebhook.NewIdempotencyGuard(newMemStore(), time.Minute, "paypal")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

func buildEvent(t *testing.T, eventID string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":         eventID,
		"event_type": paypalwebhook.EventPaymentCaptureCompleted,
		"resource": map[string]any{
			"id": "CAP-1",
			"payer": map[string]any{
				"email_address": "taro@example.com",
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload
}

func signatureHeaders(req *http.Request) {
	req.Header.Set("Paypal-Transmission-Id", "tx-1")
	req.Header.Set("Paypal-Transmission-Time", "2026-01-01T00:00:00Z")
	req.Header.Set("Paypal-Transmission-Sig", "c2ln")
	req.Header.Set("Paypal-Cert-Url", "https://api.paypal.com/cert.pem")
	req.Header.Set("Paypal-Auth-Algo", "SHA256withRSA")
}

func TestPayPalWebhook_SuccessAndIdempotent(t *testing.T) {
	service := &fakeWebhookService{}
	handler := PayPalWebhook(service, &fakeVerifier{enforced: true, valid: true}, newGuard(t), nil)
	payload := buildEvent(t, "WH-1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", bytes.NewReader(payload))
	signatureHeaders(req)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}

	// Replay the same event
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", bytes.NewReader(payload))
	signatureHeaders(req2)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected duplicate not processed, call count %d", service.calls)
	}
}

func TestPayPalWebhook_InvalidSignature(t *testing.T) {
	service := &fakeWebhookService{}
	handler := PayPalWebhook(service, &fakeVerifier{enforced: true, valid: false}, newGuard(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", bytes.NewReader(buildEvent(t, "WH-2")))
	signatureHeaders(req)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for invalid signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatal("service should not be invoked on invalid signature")
	}
}

func TestPayPalWebhook_MissingSignatureHeaders(t *testing.T) {
	service := &fakeWebhookService{}
	handler := PayPalWebhook(service, &fakeVerifier{enforced: true, valid: true}, newGuard(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", bytes.NewReader(buildEvent(t, "WH-3")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing headers, got %d", rec.Code)
	}
}

func TestPayPalWebhook_VerificationSkippedWhenNotEnforced(t *testing.T) {
	service := &fakeWebhookService{}
	handler := PayPalWebhook(service, &fakeVerifier{enforced: false}, newGuard(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", bytes.NewReader(buildEvent(t, "WH-4")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected service called, got %d", service.calls)
	}
}

func TestPayPalWebhook_HandlerFailureReleasesEventID(t *testing.T) {
	service := &fakeWebhookService{err: context.DeadlineExceeded}
	guard := newGuard(t)
	handler := PayPalWebhook(service, &fakeVerifier{enforced: false}, guard, nil)
	payload := buildEvent(t, "WH-5")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		t.Fatal("expected failure status")
	}

	// A retry after the failure must reach the service again.
	service.err = nil
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", bytes.NewReader(payload))
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on retry, got %d", rec2.Code)
	}
	if service.calls != 2 {
		t.Fatalf("expected retry to be processed, call count %d", service.calls)
	}
}

func TestPayPalWebhook_MalformedBody(t *testing.T) {
	handler := PayPalWebhook(&fakeWebhookService{}, &fakeVerifier{enforced: false}, newGuard(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}
