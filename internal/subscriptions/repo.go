package subscriptions

import (
	"context"

	"gorm.io/gorm"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/db/models"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/enums"
)

// Repository exposes subscriber persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a subscriber repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByEmail returns the user with the given email, or gorm.ErrRecordNotFound.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var row models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindBySubscriptionID returns the user holding the given billing
// subscription, or gorm.ErrRecordNotFound.
func (r *Repository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.User, error) {
	var row models.User
	if err := r.db.WithContext(ctx).Where("subscription_id = ?", subscriptionID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new user row.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// SetSubscription records the billing subscription id and status for the
// user. Reports whether a row was updated.
func (r *Repository) SetSubscription(ctx context.Context, email, subscriptionID string, status enums.SubscriptionStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]any{
			"subscription_id":     subscriptionID,
			"subscription_status": status,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetStatusBySubscriptionID updates the subscription status for the user
// holding the given billing subscription. Reports whether a row was updated.
func (r *Repository) SetStatusBySubscriptionID(ctx context.Context, subscriptionID string, status enums.SubscriptionStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("subscription_id = ?", subscriptionID).
		Update("subscription_status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
