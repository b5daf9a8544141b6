package licenses

import (
	"context"

	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
)

// ResetDevice unbinds the license from its device and returns it to the
// issued state so the owner can activate on a new machine. It applies to
// revoked keys too; support uses it to un-revoke. Returns false when the
// key does not exist.
func (s *service) ResetDevice(ctx context.Context, licenseKey string) (bool, error) {
	if licenseKey == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "licenseKey is required")
	}
	reset, err := s.repo.ResetDevice(ctx, licenseKey)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset device binding")
	}
	if reset && s.logg != nil {
		s.logg.Info(s.logg.WithLicenseKey(ctx, licenseKey), "device binding reset")
	}
	return reset, nil
}
