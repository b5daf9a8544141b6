package licenses

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/db/models"
	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/logger"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/metrics"
)

type licensesRepository interface {
	FindByKey(ctx context.Context, key string) (*models.License, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.License, error)
	FindByEmail(ctx context.Context, email string) (*models.License, error)
	Create(ctx context.Context, license *models.License) error
	BindDevice(ctx context.Context, id uuid.UUID, deviceID string, at time.Time) (bool, error)
	ResetDevice(ctx context.Context, key string) (bool, error)
}

type notifier interface {
	Send(ctx context.Context, toEmail, subject, body string) error
}

// Service exposes the license lifecycle: issuance, activation with device
// binding, and the administrative reset.
type Service interface {
	Activate(ctx context.Context, licenseKey, deviceID string) (ActivationResult, error)
	Issue(ctx context.Context, input IssueInput) (*models.License, bool, error)
	IssueFromPayment(ctx context.Context, input PaymentIssueInput) (*models.License, bool, error)
	ResetDevice(ctx context.Context, licenseKey string) (bool, error)
	LicenseByEmail(ctx context.Context, email string) (*models.License, error)
}

type service struct {
	repo    licensesRepository
	mail    notifier
	logg    *logger.Logger
	metrics *metrics.LicensingMetrics
	now     func() time.Time
}

// ServiceParams collects the license service dependencies. Mail and metrics
// are optional; the service degrades to logging without them.
type ServiceParams struct {
	Repo    licensesRepository
	Mail    notifier
	Logger  *logger.Logger
	Metrics *metrics.LicensingMetrics
	Now     func() time.Time
}

// NewService builds the license service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "license repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		mail:    params.Mail,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

// LicenseByEmail returns the caller's most recent license.
func (s *service) LicenseByEmail(ctx context.Context, email string) (*models.License, error) {
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	row, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no license for email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license by email")
	}
	return row, nil
}
