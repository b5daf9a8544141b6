package licenses

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/db"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/db/models"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/enums"
	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/mailer"
)

// keygen collisions are astronomically unlikely, but the column is unique so
// a retry loop costs nothing.
const maxKeyAttempts = 3

// IssueInput describes a license to create. TransactionID, when set, makes
// the issuance idempotent: a second call with the same id returns the
// existing license instead of creating another.
type IssueInput struct {
	UserEmail     string
	TransactionID string
	Note          string
	Source        enums.LicenseSource
	Amount        decimal.NullDecimal
	Currency      string
}

// PaymentIssueInput is the payment-triggered variant of IssueInput. The
// license-key mail goes out only when a new license was actually created.
type PaymentIssueInput struct {
	PayerEmail    string
	TransactionID string
	Amount        decimal.NullDecimal
	Currency      string
}

// Issue creates a license with a freshly generated key. The second return
// value reports whether a new row was created; it is false when the
// transaction id was already consumed.
func (s *service) Issue(ctx context.Context, input IssueInput) (*models.License, bool, error) {
	email := strings.TrimSpace(input.UserEmail)
	if email == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "userEmail is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "userEmail is not a valid address")
	}
	source := input.Source
	if source == "" {
		source = enums.LicenseSourceManual
	}

	if input.TransactionID != "" {
		existing, err := s.repo.FindByTransactionID(ctx, input.TransactionID)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find license by transaction id")
		}
	}

	var txnID *string
	if input.TransactionID != "" {
		id := input.TransactionID
		txnID = &id
	}

	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		lic := &models.License{
			ID:            uuid.New(),
			Key:           GenerateKey(),
			UserEmail:     email,
			Status:        enums.LicenseStatusIssued,
			TransactionID: txnID,
			Note:          input.Note,
			Source:        source,
			Amount:        input.Amount,
			Currency:      input.Currency,
		}
		err := s.repo.Create(ctx, lic)
		if err == nil {
			if s.logg != nil {
				lctx := s.logg.WithFields(s.logg.WithLicenseKey(ctx, lic.Key), map[string]any{
					"user_email": email,
					"source":     string(source),
				})
				s.logg.Info(lctx, "license issued")
			}
			s.metrics.IncIssued(string(source))
			return lic, true, nil
		}
		if db.IsUniqueViolation(err, "") {
			if txnID != nil {
				// A concurrent issuance may have consumed the
				// transaction id first.
				existing, ferr := s.repo.FindByTransactionID(ctx, *txnID)
				if ferr == nil {
					return existing, false, nil
				}
				if !errors.Is(ferr, gorm.ErrRecordNotFound) {
					return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, ferr, "find license after unique violation")
				}
			}
			// Key collision. Regenerate and retry.
			continue
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create license")
	}
	return nil, false, pkgerrors.New(pkgerrors.CodeDependency, "could not allocate a unique license key")
}

// IssueFromPayment is the webhook path: issue a license for the payer and
// mail them the key. A mail failure is logged, never surfaced, so the
// payment provider does not retry a webhook whose license already exists.
func (s *service) IssueFromPayment(ctx context.Context, input PaymentIssueInput) (*models.License, bool, error) {
	lic, created, err := s.Issue(ctx, IssueInput{
		UserEmail:     input.PayerEmail,
		TransactionID: input.TransactionID,
		Source:        enums.LicenseSourcePaypalWebhook,
		Amount:        input.Amount,
		Currency:      input.Currency,
	})
	if err != nil || !created {
		return lic, created, err
	}

	if s.mail != nil {
		subject, body := mailer.LicenseKeyMessage(lic.UserEmail, lic.Key)
		if merr := s.mail.Send(ctx, lic.UserEmail, subject, body); merr != nil {
			if s.logg != nil {
				s.logg.Error(s.logg.WithLicenseKey(ctx, lic.Key), "license key mail failed", merr)
			}
		}
	}
	return lic, true, nil
}
