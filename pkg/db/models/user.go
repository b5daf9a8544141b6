package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/enums"
)

// User is a registered account on the storefront. Subscription fields are
// driven by the billing webhook, not by user action.
type User struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email              string                   `gorm:"column:email;not null;unique"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;type:subscription_status;not null;default:'none'"`
	SubscriptionID     *string                  `gorm:"column:subscription_id"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
