package refunds

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/partsdeskhq/partsdesk-backend/api/responses"
	"github.com/partsdeskhq/partsdesk-backend/api/validators"
	internalrefunds "github.com/partsdeskhq/partsdesk-backend/internal/refunds"
	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
)

type statusRequest struct {
	Status string `json:"status" validate:"required"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type checkboxRequest struct {
	Action string `json:"action" validate:"required"`
}

func pathParams(r *http.Request) (string, int, error) {
	orderNo := strings.TrimSpace(chi.URLParam(r, "orderNo"))
	if orderNo == "" {
		return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	rawPos := strings.TrimSpace(chi.URLParam(r, "yardPos"))
	pos, err := strconv.Atoi(rawPos)
	if err != nil || pos < 1 {
		return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "yard position must be a positive integer")
	}
	return orderNo, pos, nil
}

func requestActor(r *http.Request) internalrefunds.Actor {
	userID, firstName := validators.RequestActor(r)
	return internalrefunds.Actor{UserID: userID, FirstName: firstName}
}

func parseDate(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return &parsed, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").WithDetails(map[string]any{"date": raw})
}

// SetStatus records whether the yard refund was collected.
func SetStatus(svc internalrefunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refunds service unavailable"))
			return
		}

		orderNo, pos, err := pathParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseYardRefundStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund status"))
			return
		}

		var amount *decimal.Decimal
		if raw := strings.TrimSpace(body.Amount); raw != "" {
			parsed, err := decimal.NewFromString(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund amount"))
				return
			}
			amount = &parsed
		}
		date, err := parseDate(body.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		yard, err := svc.SetRefundStatus(r.Context(), internalrefunds.SetRefundStatusInput{
			OrderNo: orderNo,
			YardPos: pos,
			Status:  status,
			Amount:  amount,
			Date:    date,
			Reason:  body.Reason,
			Actor:   requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, yard)
	}
}

// ToggleCheckbox ticks or unticks one of the three recovery checkboxes.
func ToggleCheckbox(svc internalrefunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refunds service unavailable"))
			return
		}

		orderNo, pos, err := pathParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkboxRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := enums.ParseRefundAction(body.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund action"))
			return
		}

		yard, err := svc.ToggleCheckbox(r.Context(), orderNo, pos, action, requestActor(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, yard)
	}
}

// SendEmail queues the refund-request email to the yard. Supporting PDFs
// arrive as optional multipart field "attachment".
func SendEmail(svc internalrefunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refunds service unavailable"))
			return
		}

		orderNo, pos, err := pathParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		attachment, err := validators.ParsePDFAttachment(r, "attachment", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var attachments []outbox.Attachment
		if attachment != nil {
			attachments = append(attachments, *attachment)
		}

		err = svc.SendRefundEmail(r.Context(), internalrefunds.SendRefundEmailInput{
			OrderNo:     orderNo,
			YardPos:     pos,
			ToCollect:   strings.TrimSpace(r.FormValue("toCollect")),
			Reason:      strings.TrimSpace(r.FormValue("reason")),
			Attachments: attachments,
			Actor:       requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}
