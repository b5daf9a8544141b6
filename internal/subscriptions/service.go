package subscriptions

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/db/models"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/enums"
	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/logger"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/mailer"
)

type usersRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetSubscription(ctx context.Context, email, subscriptionID string, status enums.SubscriptionStatus) (bool, error)
	SetStatusBySubscriptionID(ctx context.Context, subscriptionID string, status enums.SubscriptionStatus) (bool, error)
}

type notifier interface {
	Send(ctx context.Context, toEmail, subject, body string) error
}

// Service tracks billing subscription state for compliancenavi users.
type Service interface {
	HandleActivated(ctx context.Context, email, subscriptionID string) error
	HandleCancelled(ctx context.Context, subscriptionID string) error
}

type service struct {
	repo usersRepository
	mail notifier
	logg *logger.Logger
}

// ServiceParams collects the subscription service dependencies.
type ServiceParams struct {
	Repo   usersRepository
	Mail   notifier
	Logger *logger.Logger
}

// NewService builds the subscription service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repository required")
	}
	return &service{repo: params.Repo, mail: params.Mail, logg: params.Logger}, nil
}

// HandleActivated records an activated billing subscription for the
// subscriber, creating the user row when the subscriber has not registered
// yet, and sends the welcome mail for new activations.
func (s *service) HandleActivated(ctx context.Context, email, subscriptionID string) error {
	email = strings.TrimSpace(email)
	if email == "" || subscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscriber email and subscription id are required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user by email")
	}

	alreadyActive := existing != nil &&
		existing.SubscriptionStatus == enums.SubscriptionStatusActive &&
		existing.SubscriptionID != nil && *existing.SubscriptionID == subscriptionID

	if existing == nil {
		subID := subscriptionID
		user := &models.User{
			ID:                 uuid.New(),
			Email:              email,
			SubscriptionStatus: enums.SubscriptionStatusActive,
			SubscriptionID:     &subID,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscriber")
		}
	} else if !alreadyActive {
		if _, err := s.repo.SetSubscription(ctx, email, subscriptionID, enums.SubscriptionStatusActive); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate subscription")
		}
	}

	if alreadyActive {
		// Replayed event, nothing to announce.
		return nil
	}

	if s.logg != nil {
		lctx := s.logg.WithField(ctx, "subscription_id", subscriptionID)
		s.logg.Info(lctx, "subscription activated")
	}

	if s.mail != nil {
		subject, body := mailer.SubscriptionWelcomeMessage()
		if merr := s.mail.Send(ctx, email, subject, body); merr != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "subscription welcome mail failed", merr)
			}
		}
	}
	return nil
}

// HandleCancelled marks the subscription canceled. An unknown subscription id
// is logged and swallowed so the billing provider does not retry.
func (s *service) HandleCancelled(ctx context.Context, subscriptionID string) error {
	if subscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}
	updated, err := s.repo.SetStatusBySubscriptionID(ctx, subscriptionID, enums.SubscriptionStatusCanceled)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
	}
	lctx := ctx
	if s.logg != nil {
		lctx = s.logg.WithField(ctx, "subscription_id", subscriptionID)
	}
	if !updated {
		if s.logg != nil {
			s.logg.Warn(lctx, "cancellation for unknown subscription")
		}
		return nil
	}
	if s.logg != nil {
		s.logg.Info(lctx, "subscription cancelled")
	}
	return nil
}
