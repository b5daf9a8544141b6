package licenses

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/db/models"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/enums"
	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
)

type stubMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, body string
}

func (m *stubMailer) Send(ctx context.Context, toEmail, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: toEmail, subject: subject, body: body})
	return nil
}

func TestIssueRejectsBadEmail(t *testing.T) {
	svc := newTestService(t, newMemRepo())
	for _, email := range []string{"", "   ", "not-an-address"} {
		_, _, err := svc.Issue(context.Background(), IssueInput{UserEmail: email})
		if err == nil {
			t.Fatalf("expected error for email %q", email)
		}
		if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %q, got %v", email, err)
		}
	}
}

func TestIssueCreatesLicense(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo)
	lic, created, err := svc.Issue(context.Background(), IssueInput{
		UserEmail: "taro@example.com",
		Note:      "campaign winner",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected a new license")
	}
	if lic.Key == "" {
		t.Fatal("expected a generated key")
	}
	if lic.Source != enums.LicenseSourceManual {
		t.Fatalf("expected manual source, got %s", lic.Source)
	}
	if lic.Status != enums.LicenseStatusIssued {
		t.Fatalf("expected issued status, got %s", lic.Status)
	}
}

func TestIssueDuplicateTransactionReturnsExisting(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	first, created, err := svc.Issue(ctx, IssueInput{
		UserEmail:     "taro@example.com",
		TransactionID: "TXN-001",
		Source:        enums.LicenseSourcePaypalWebhook,
	})
	if err != nil || !created {
		t.Fatalf("first issue: created=%v err=%v", created, err)
	}

	second, created, err := svc.Issue(ctx, IssueInput{
		UserEmail:     "taro@example.com",
		TransactionID: "TXN-001",
		Source:        enums.LicenseSourcePaypalWebhook,
	})
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if created {
		t.Fatal("expected duplicate transaction to be rejected")
	}
	if second.Key != first.Key {
		t.Fatalf("expected existing license, got key %s vs %s", second.Key, first.Key)
	}
}

func TestIssueFromPaymentSendsKeyMail(t *testing.T) {
	repo := newMemRepo()
	mail := &stubMailer{}
	svc, err := NewService(ServiceParams{Repo: repo, Mail: mail})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	lic, created, err := svc.IssueFromPayment(context.Background(), PaymentIssueInput{
		PayerEmail:    "taro@example.com",
		TransactionID: "TXN-002",
	})
	if err != nil || !created {
		t.Fatalf("issue from payment: created=%v err=%v", created, err)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mail.sent))
	}
	if mail.sent[0].to != "taro@example.com" {
		t.Fatalf("mail sent to %s", mail.sent[0].to)
	}
	if !strings.Contains(mail.sent[0].body, lic.Key) {
		t.Fatal("mail body missing the license key")
	}
}

func TestIssueFromPaymentDuplicateSendsNoMail(t *testing.T) {
	repo := newMemRepo()
	mail := &stubMailer{}
	svc, err := NewService(ServiceParams{Repo: repo, Mail: mail})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	if _, _, err := svc.IssueFromPayment(ctx, PaymentIssueInput{
		PayerEmail:    "taro@example.com",
		TransactionID: "TXN-003",
	}); err != nil {
		t.Fatalf("first webhook: %v", err)
	}
	_, created, err := svc.IssueFromPayment(ctx, PaymentIssueInput{
		PayerEmail:    "taro@example.com",
		TransactionID: "TXN-003",
	})
	if err != nil {
		t.Fatalf("second webhook: %v", err)
	}
	if created {
		t.Fatal("expected duplicate webhook to reuse the license")
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected 1 mail total, got %d", len(mail.sent))
	}
}

func TestIssueFromPaymentToleratesMailFailure(t *testing.T) {
	repo := newMemRepo()
	mail := &stubMailer{err: errors.New("smtp down")}
	svc, err := NewService(ServiceParams{Repo: repo, Mail: mail})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	lic, created, err := svc.IssueFromPayment(context.Background(), PaymentIssueInput{
		PayerEmail:    "taro@example.com",
		TransactionID: "TXN-004",
	})
	if err != nil {
		t.Fatalf("mail failure must not surface: %v", err)
	}
	if !created || lic == nil {
		t.Fatal("expected the license despite the mail failure")
	}
}

func TestIssueSurfacesRepositoryFailure(t *testing.T) {
	repo := newMemRepo()
	repo.createFn = func(ctx context.Context, license *models.License) error {
		return errors.New("connection refused")
	}
	svc := newTestService(t, repo)
	_, _, err := svc.Issue(context.Background(), IssueInput{UserEmail: "taro@example.com"})
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
