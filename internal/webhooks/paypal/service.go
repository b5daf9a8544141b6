package paypalwebhook

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kuraeplasma/SPACEGLEAM/internal/licenses"
	"github.com/kuraeplasma/SPACEGLEAM/internal/subscriptions"
	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/logger"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/metrics"
)

// Service routes verified PayPal events to the license and subscription
// domains.
type Service struct {
	licenses      licenses.Service
	subscriptions subscriptions.Service
	logg          *logger.Logger
	metrics       *metrics.LicensingMetrics
}

// ServiceParams collects the webhook service dependencies.
type ServiceParams struct {
	Licenses      licenses.Service
	Subscriptions subscriptions.Service
	Logger        *logger.Logger
	Metrics       *metrics.LicensingMetrics
}

// NewService builds the webhook routing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Licenses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "license service required")
	}
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription service required")
	}
	return &Service{
		licenses:      params.Licenses,
		subscriptions: params.Subscriptions,
		logg:          params.Logger,
		metrics:       params.Metrics,
	}, nil
}

// HandleEvent dispatches one verified webhook event. Completed payments issue
// an xdraft license for the payer; billing events flip the compliancenavi
// subscription state. Unrecognized event types are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil || event.EventType == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "paypal event required")
	}

	switch event.EventType {
	case EventPaymentCaptureCompleted, EventPaymentSaleCompleted:
		return s.handlePaymentCompleted(ctx, event)
	case EventBillingSubscriptionActivated:
		err := s.subscriptions.HandleActivated(ctx, event.SubscriberEmail(), event.Resource.ID)
		s.countOutcome(event.EventType, err)
		return err
	case EventBillingSubscriptionCancelled:
		err := s.subscriptions.HandleCancelled(ctx, event.Resource.ID)
		s.countOutcome(event.EventType, err)
		return err
	default:
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "event_type", event.EventType), "ignoring paypal event")
		}
		s.metrics.IncWebhook(event.EventType, "ignored")
		return nil
	}
}

func (s *Service) handlePaymentCompleted(ctx context.Context, event *Event) error {
	email := event.PayerEmail()
	if email == "" {
		s.metrics.IncWebhook(event.EventType, "rejected")
		return pkgerrors.New(pkgerrors.CodeValidation, "payer email missing from payment event")
	}
	if event.Resource.ID == "" {
		s.metrics.IncWebhook(event.EventType, "rejected")
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id missing from payment event")
	}

	input := licenses.PaymentIssueInput{
		PayerEmail:    email,
		TransactionID: event.Resource.ID,
		Currency:      "JPY",
	}
	if event.Resource.Amount != nil {
		if amount, err := decimal.NewFromString(event.Resource.Amount.Value); err == nil {
			input.Amount = decimal.NewNullDecimal(amount)
		}
		if event.Resource.Amount.CurrencyCode != "" {
			input.Currency = event.Resource.Amount.CurrencyCode
		}
	}

	_, created, err := s.licenses.IssueFromPayment(ctx, input)
	if err != nil {
		s.metrics.IncWebhook(event.EventType, "failed")
		return err
	}
	if created {
		s.metrics.IncWebhook(event.EventType, "issued")
	} else {
		s.metrics.IncWebhook(event.EventType, "duplicate")
	}
	return nil
}

func (s *Service) countOutcome(eventType string, err error) {
	if err != nil {
		s.metrics.IncWebhook(eventType, "failed")
		return
	}
	s.metrics.IncWebhook(eventType, "processed")
}
