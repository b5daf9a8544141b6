package licenses

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/db/models"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/enums"
)

// Repository exposes license persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a license repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByKey returns the license with the given key, or gorm.ErrRecordNotFound.
func (r *Repository) FindByKey(ctx context.Context, key string) (*models.License, error) {
	var row models.License
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByTransactionID returns the license created for the given payment
// transaction, or gorm.ErrRecordNotFound.
func (r *Repository) FindByTransactionID(ctx context.Context, transactionID string) (*models.License, error) {
	var row models.License
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByEmail returns the most recently created license owned by the email,
// or gorm.ErrRecordNotFound.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.License, error) {
	var row models.License
	err := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new license row. Unique violations (key collision or a
// concurrently inserted transaction_id) surface as the driver's error and are
// classified by the service.
func (r *Repository) Create(ctx context.Context, license *models.License) error {
	return r.db.WithContext(ctx).Create(license).Error
}

// BindDevice performs the first-activation transition as a single conditional
// update: it only fires while the license is unbound and not revoked, so two
// racing activations cannot both win. Reports whether this caller won.
func (r *Repository) BindDevice(ctx context.Context, id uuid.UUID, deviceID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.License{}).
		Where("id = ? AND registered_device_id IS NULL AND status <> ?", id, enums.LicenseStatusRevoked).
		Updates(map[string]any{
			"status":               enums.LicenseStatusActive,
			"registered_device_id": deviceID,
			"activated_at":         at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ResetDevice clears the device binding and reverts the license to issued.
// Reports whether a row with the key existed.
func (r *Repository) ResetDevice(ctx context.Context, key string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.License{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"registered_device_id": nil,
			"status":               enums.LicenseStatusIssued,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
