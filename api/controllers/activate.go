package controllers

import (
	"net/http"

	"github.com/kuraeplasma/SPACEGLEAM/api/responses"
	"github.com/kuraeplasma/SPACEGLEAM/api/validators"
	"github.com/kuraeplasma/SPACEGLEAM/internal/licenses"
	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/logger"
)

type activateRequest struct {
	LicenseKey string `json:"licenseKey" validate:"required"`
	DeviceID   string `json:"deviceId" validate:"required"`
}

// activateResponse is the flat body the desktop clients parse. User-facing
// text is Japanese.
type activateResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

const (
	msgMissingParams   = "パラメータが不足しています"
	msgUnknownKey      = "無効なライセンスキーです"
	msgRevoked         = "このライセンスは無効化されています"
	msgFirstActivation = "認証に成功しました（初回登録）"
	msgAlreadyBound    = "認証に成功しました"
	msgDeviceMismatch  = "このライセンスキーは既に使用されています。1ライセンスにつき1台のPCでのみ利用可能です。"
	msgServerError     = "サーバーエラーが発生しました"
)

// ActivateLicense binds a license key to a device, or re-validates an
// existing binding.
func ActivateLicense(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req activateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteJSON(w, http.StatusBadRequest, activateResponse{Valid: false, Message: msgMissingParams})
			return
		}

		result, err := svc.Activate(ctx, req.LicenseKey, req.DeviceID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
				responses.WriteJSON(w, http.StatusBadRequest, activateResponse{Valid: false, Message: msgMissingParams})
				return
			}
			if logg != nil {
				logg.Error(ctx, "license activation failed", err)
			}
			responses.WriteJSON(w, http.StatusInternalServerError, activateResponse{Valid: false, Message: msgServerError})
			return
		}

		status, message := activationOutcome(result.Reason)
		responses.WriteJSON(w, status, activateResponse{Valid: result.Valid, Message: message})
	}
}

func activationOutcome(reason licenses.ActivationReason) (int, string) {
	switch reason {
	case licenses.ReasonFirstActivation:
		return http.StatusOK, msgFirstActivation
	case licenses.ReasonAlreadyBound:
		return http.StatusOK, msgAlreadyBound
	case licenses.ReasonRevoked:
		return http.StatusForbidden, msgRevoked
	case licenses.ReasonDeviceMismatch:
		return http.StatusForbidden, msgDeviceMismatch
	case licenses.ReasonUnknownKey:
		return http.StatusBadRequest, msgUnknownKey
	default:
		return http.StatusInternalServerError, msgServerError
	}
}
