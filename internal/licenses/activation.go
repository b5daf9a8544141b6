package licenses

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/enums"
	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
)

// ActivationReason names the business outcome of an activation attempt.
type ActivationReason string

const (
	ReasonUnknownKey      ActivationReason = "unknown_key"
	ReasonRevoked         ActivationReason = "revoked"
	ReasonFirstActivation ActivationReason = "first_activation"
	ReasonAlreadyBound    ActivationReason = "already_bound"
	ReasonDeviceMismatch  ActivationReason = "device_mismatch"
)

// ActivationResult carries the outcome of an activation attempt. Reason is
// always set; Valid reports whether the device may run the product.
type ActivationResult struct {
	Valid  bool
	Reason ActivationReason
}

// Activate resolves a license key against a device. A key never seen before,
// a revoked key, and a key bound to another device are business outcomes, not
// errors; errors are reserved for storage failures.
//
// First activation binds the device with a conditional update so that two
// devices racing on a fresh key cannot both win.
func (s *service) Activate(ctx context.Context, licenseKey, deviceID string) (ActivationResult, error) {
	if licenseKey == "" || deviceID == "" {
		return ActivationResult{}, pkgerrors.New(pkgerrors.CodeValidation, "licenseKey and deviceId are required")
	}

	lic, err := s.repo.FindByKey(ctx, licenseKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.outcome(ActivationResult{Valid: false, Reason: ReasonUnknownKey}), nil
		}
		return ActivationResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find license by key")
	}

	if lic.Status == enums.LicenseStatusRevoked {
		return s.outcome(ActivationResult{Valid: false, Reason: ReasonRevoked}), nil
	}

	if lic.Bound() {
		if lic.BoundTo(deviceID) {
			return s.outcome(ActivationResult{Valid: true, Reason: ReasonAlreadyBound}), nil
		}
		return s.outcome(ActivationResult{Valid: false, Reason: ReasonDeviceMismatch}), nil
	}

	won, err := s.repo.BindDevice(ctx, lic.ID, deviceID, s.now())
	if err != nil {
		return ActivationResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind device")
	}
	if won {
		if s.logg != nil {
			lctx := s.logg.WithFields(s.logg.WithLicenseKey(ctx, licenseKey), map[string]any{
				"device_id": deviceID,
			})
			s.logg.Info(lctx, "license activated")
		}
		return s.outcome(ActivationResult{Valid: true, Reason: ReasonFirstActivation}), nil
	}

	// Lost the race, or the key was revoked between the read and the
	// update. Re-read to classify.
	lic, err = s.repo.FindByKey(ctx, licenseKey)
	if err != nil {
		return ActivationResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-read license after bind")
	}
	if lic.Status == enums.LicenseStatusRevoked {
		return s.outcome(ActivationResult{Valid: false, Reason: ReasonRevoked}), nil
	}
	if lic.BoundTo(deviceID) {
		return s.outcome(ActivationResult{Valid: true, Reason: ReasonAlreadyBound}), nil
	}
	return s.outcome(ActivationResult{Valid: false, Reason: ReasonDeviceMismatch}), nil
}

func (s *service) outcome(res ActivationResult) ActivationResult {
	s.metrics.IncActivation(string(res.Reason))
	return res
}
