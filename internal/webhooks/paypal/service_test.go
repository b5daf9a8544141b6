package paypalwebhook

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kuraeplasma/SPACEGLEAM/internal/licenses"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/db/models"
	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

type stubLicenses struct {
	licenses.Service
	issued []licenses.PaymentIssueInput
	dup    bool
	err    error
}

func (s *stubLicenses) IssueFromPayment(ctx context.Context, input licenses.PaymentIssueInput) (*models.License, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	s.issued = append(s.issued, input)
	return &models.License{Key: "XD-TEST-TEST-TEST", UserEmail: input.PayerEmail}, !s.dup, nil
}

type stubSubscriptions struct {
	activated [][2]string
	cancelled []string
}

func (s *stubSubscriptions) HandleActivated(ctx context.Context, email, subscriptionID string) error {
	s.activated = append(s.activated, [2]string{email, subscriptionID})
	return nil
}

func (s *stubSubscriptions) HandleCancelled(ctx context.Context, subscriptionID string) error {
	s.cancelled = append(s.cancelled, subscriptionID)
	return nil
}

func newWebhookService(t *testing.T, lics *stubLicenses, subs *stubSubscriptions) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Licenses: lics, Subscriptions: subs})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestHandleEventPaymentIssuesLicense(t *testing.T) {
	lics := &stubLicenses{}
	svc := newWebhookService(t, lics, &stubSubscriptions{})

	event := &Event{
		ID:        "WH-1",
		EventType: EventPaymentCaptureCompleted,
		Resource: Resource{
			ID:     "CAP-123",
			Payer:  &Payer{EmailAddress: "taro@example.com"},
			Amount: &Amount{Value: "3980", CurrencyCode: "JPY"},
		},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lics.issued) != 1 {
		t.Fatalf("expected 1 issuance, got %d", len(lics.issued))
	}
	got := lics.issued[0]
	if got.PayerEmail != "taro@example.com" || got.TransactionID != "CAP-123" {
		t.Fatalf("issuance input %+v", got)
	}
	if !got.Amount.Valid || !got.Amount.Decimal.Equal(mustDecimal(t, "3980")) {
		t.Fatalf("amount not forwarded: %+v", got.Amount)
	}
	if got.Currency != "JPY" {
		t.Fatalf("currency %s", got.Currency)
	}
}

func TestHandleEventSaleCompletedAlsoIssues(t *testing.T) {
	lics := &stubLicenses{}
	svc := newWebhookService(t, lics, &stubSubscriptions{})

	event := &Event{
		ID:        "WH-2",
		EventType: EventPaymentSaleCompleted,
		Resource: Resource{
			ID:    "SALE-9",
			Payer: &Payer{EmailAddress: "taro@example.com"},
		},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lics.issued) != 1 {
		t.Fatalf("expected 1 issuance, got %d", len(lics.issued))
	}
	// No amount block on legacy sale events; currency falls back to JPY.
	if lics.issued[0].Currency != "JPY" {
		t.Fatalf("currency %s", lics.issued[0].Currency)
	}
}

func TestHandleEventPaymentMissingPayer(t *testing.T) {
	svc := newWebhookService(t, &stubLicenses{}, &stubSubscriptions{})

	event := &Event{
		ID:        "WH-3",
		EventType: EventPaymentCaptureCompleted,
		Resource:  Resource{ID: "CAP-123"},
	}
	err := svc.HandleEvent(context.Background(), event)
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleEventSubscriptionActivated(t *testing.T) {
	subs := &stubSubscriptions{}
	svc := newWebhookService(t, &stubLicenses{}, subs)

	event := &Event{
		ID:        "WH-4",
		EventType: EventBillingSubscriptionActivated,
		Resource: Resource{
			ID:         "I-XYZ",
			Subscriber: &Subscriber{EmailAddress: "hana@example.com"},
		},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs.activated) != 1 {
		t.Fatalf("expected activation, got %d", len(subs.activated))
	}
	if subs.activated[0] != [2]string{"hana@example.com", "I-XYZ"} {
		t.Fatalf("activation args %v", subs.activated[0])
	}
}

func TestHandleEventSubscriptionCancelled(t *testing.T) {
	subs := &stubSubscriptions{}
	svc := newWebhookService(t, &stubLicenses{}, subs)

	event := &Event{
		ID:        "WH-5",
		EventType: EventBillingSubscriptionCancelled,
		Resource:  Resource{ID: "I-XYZ"},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs.cancelled) != 1 || subs.cancelled[0] != "I-XYZ" {
		t.Fatalf("cancellation args %v", subs.cancelled)
	}
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	lics := &stubLicenses{}
	subs := &stubSubscriptions{}
	svc := newWebhookService(t, lics, subs)

	event := &Event{ID: "WH-6", EventType: "CHECKOUT.ORDER.APPROVED"}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lics.issued) != 0 || len(subs.activated) != 0 || len(subs.cancelled) != 0 {
		t.Fatal("unknown event must not reach the domain services")
	}
}
