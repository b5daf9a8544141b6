package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kuraeplasma/SPACEGLEAM/api/responses"
	paypalwebhook "github.com/kuraeplasma/SPACEGLEAM/internal/webhooks/paypal"
	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/logger"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/paypal"
)

type PayPalWebhookService interface {
	HandleEvent(ctx context.Context, event *paypalwebhook.Event) error
}

type paypalWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// PayPalWebhook handles payment and billing subscription events. The
// transmission signature is checked before anything touches the database.
func PayPalWebhook(svc PayPalWebhookService, verifier paypal.Verifier, guard paypalWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "paypal verifier unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if verifier.Enforced() {
			headers := paypal.SignatureHeadersFromRequest(r.Header)
			if !headers.Complete() {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "paypal signature headers missing"))
				return
			}
			ok, err := verifier.Verify(ctx, payload, headers)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify signature"))
				return
			}
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "paypal signature invalid"))
				return
			}
		}

		var event paypalwebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode paypal event"))
			return
		}
		if event.ID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paypal event id missing"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			_ = guard.Delete(ctx, event.ID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("paypal event %s processed", event.ID))
		}
		responses.WriteSuccess(w, nil)
	}
}
