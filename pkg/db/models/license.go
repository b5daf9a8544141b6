package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/enums"
)

// License is a purchased (or manually issued) product key and its device
// binding. RegisteredDeviceID is nil until first activation; TransactionID is
// set only for payment-triggered issuance and is unique when present.
type License struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Key                string              `gorm:"column:key;not null;unique"`
	UserEmail          string              `gorm:"column:user_email;not null"`
	Status             enums.LicenseStatus `gorm:"column:status;type:license_status;not null;default:'issued'"`
	RegisteredDeviceID *string             `gorm:"column:registered_device_id"`
	TransactionID      *string             `gorm:"column:transaction_id"`
	Note               string              `gorm:"column:note"`
	Source             enums.LicenseSource `gorm:"column:source;not null;default:'manual'"`
	Amount             decimal.NullDecimal `gorm:"column:amount;type:numeric"`
	Currency           string              `gorm:"column:currency"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	ActivatedAt        *time.Time          `gorm:"column:activated_at"`
}

// Bound reports whether the license is tied to a device.
func (l *License) Bound() bool {
	return l.RegisteredDeviceID != nil && *l.RegisteredDeviceID != ""
}

// BoundTo reports whether the license is tied to the given device.
func (l *License) BoundTo(deviceID string) bool {
	return l.RegisteredDeviceID != nil && *l.RegisteredDeviceID == deviceID
}
