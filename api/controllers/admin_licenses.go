package controllers

import (
	"net/http"
	"time"

	"github.com/kuraeplasma/SPACEGLEAM/api/responses"
	"github.com/kuraeplasma/SPACEGLEAM/api/validators"
	"github.com/kuraeplasma/SPACEGLEAM/internal/licenses"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/db/models"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/enums"
	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/logger"
)

type adminIssueRequest struct {
	UserEmail string `json:"userEmail" validate:"required,email"`
	Note      string `json:"note" validate:"omitempty,max=500"`
}

type adminResetRequest struct {
	LicenseKey string `json:"licenseKey" validate:"required"`
}

type licenseView struct {
	Key         string     `json:"key"`
	UserEmail   string     `json:"userEmail"`
	Status      string     `json:"status"`
	DeviceBound bool       `json:"deviceBound"`
	Source      string     `json:"source"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
}

func newLicenseView(lic *models.License) licenseView {
	return licenseView{
		Key:         lic.Key,
		UserEmail:   lic.UserEmail,
		Status:      lic.Status.String(),
		DeviceBound: lic.Bound(),
		Source:      string(lic.Source),
		Note:        lic.Note,
		CreatedAt:   lic.CreatedAt,
		ActivatedAt: lic.ActivatedAt,
	}
}

// AdminLicenseCreate issues a license by hand, for refunds, replacements and
// campaign giveaways.
func AdminLicenseCreate(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req adminIssueRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lic, _, err := svc.Issue(ctx, licenses.IssueInput{
			UserEmail: req.UserEmail,
			Note:      req.Note,
			Source:    enums.LicenseSourceManual,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newLicenseView(lic))
	}
}

// AdminLicenseReset clears the device binding so the owner can move the
// license to a new machine.
func AdminLicenseReset(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req adminResetRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reset, err := svc.ResetDevice(ctx, req.LicenseKey)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !reset {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "license key not found"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"reset": true})
	}
}

// AdminLicenseLookup returns the newest license issued to an email, for
// support inquiries.
func AdminLicenseLookup(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email := r.URL.Query().Get("email")
		if email == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "email query parameter is required"))
			return
		}

		lic, err := svc.LicenseByEmail(ctx, email)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newLicenseView(lic))
	}
}
