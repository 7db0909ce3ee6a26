package yards

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/partsdeskhq/partsdesk-backend/api/responses"
	"github.com/partsdeskhq/partsdesk-backend/api/validators"
	internalyards "github.com/partsdeskhq/partsdesk-backend/internal/yards"
	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
)

type attachRequest struct {
	YardName     string          `json:"yardName" validate:"required"`
	YardPhone    string          `json:"yardPhone"`
	YardEmail    string          `json:"yardEmail" validate:"omitempty,email"`
	Contact      string          `json:"contact"`
	PartPrice    decimal.Decimal `json:"partPrice"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	OtherFees    decimal.Decimal `json:"otherFees"`
}

type statusRequest struct {
	Status          string `json:"status" validate:"required"`
	TrackingNo      string `json:"trackingNo"`
	Eta             string `json:"eta"`
	ShipperName     string `json:"shipperName"`
	TrackingLink    string `json:"trackingLink"`
	EscalationCause string `json:"escalationCause"`
	Version         *int   `json:"version"`
}

type paymentStatusRequest struct {
	Status string `json:"status" validate:"required"`
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

func orderNoParam(r *http.Request) (string, error) {
	orderNo := strings.TrimSpace(chi.URLParam(r, "orderNo"))
	if orderNo == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	return orderNo, nil
}

func requestActor(r *http.Request) internalyards.Actor {
	userID, firstName := validators.RequestActor(r)
	return internalyards.Actor{UserID: userID, FirstName: firstName}
}

// Attach adds the next sourcing yard to an order.
func Attach(svc internalyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "yards service unavailable"))
			return
		}

		orderNo, err := orderNoParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body attachRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		yard, err := svc.Attach(r.Context(), internalyards.AttachInput{
			OrderNo:      orderNo,
			YardName:     body.YardName,
			YardPhone:    body.YardPhone,
			YardEmail:    body.YardEmail,
			Contact:      body.Contact,
			PartPrice:    body.PartPrice,
			ShippingCost: body.ShippingCost,
			OtherFees:    body.OtherFees,
			Actor:        requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, yard)
	}
}

// UpdateStatus drives one yard through the sourcing state machine.
func UpdateStatus(svc internalyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "yards service unavailable"))
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

		target, err := enums.ParseYardStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid yard status"))
			return
		}

		var cause enums.EscalationCause
		if strings.TrimSpace(body.EscalationCause) != "" {
			cause, err = enums.ParseEscalationCause(body.EscalationCause)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid escalation cause"))
				return
			}
		}

		yard, err := svc.UpdateStatus(r.Context(), internalyards.UpdateStatusInput{
			OrderNo: orderNo,
			YardPos: pos,
			Target:  target,
			Fields: internalyards.StatusFields{
				TrackingNo:      body.TrackingNo,
				Eta:             body.Eta,
				ShipperName:     body.ShipperName,
				TrackingLink:    body.TrackingLink,
				EscalationCause: cause,
			},
			Version: body.Version,
			Actor:   requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, yard)
	}
}

// VoidLabel clears the shipping label off a labeled yard.
func VoidLabel(svc internalyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "yards service unavailable"))
			return
		}

		orderNo, pos, err := pathParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		yard, err := svc.VoidLabel(r.Context(), orderNo, pos, requestActor(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, yard)
	}
}

// CancelShipment resets the shipped yard to "Yard PO Sent" and clears its
// tracking fields, same reset as a label void but from the shipped state.
func CancelShipment(svc internalyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "yards service unavailable"))
			return
		}

		orderNo, err := orderNoParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		yard, err := svc.CancelShipment(r.Context(), orderNo, requestActor(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, yard)
	}
}

// PaymentStatus flips the card-charged flag on a yard.
func PaymentStatus(svc internalyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "yards service unavailable"))
			return
		}

		orderNo, pos, err := pathParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body paymentStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := enums.PaymentStatus(strings.TrimSpace(body.Status))
		if !status.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status").
				WithDetails(map[string]any{"status": body.Status}))
			return
		}

		if err := svc.SetPaymentStatus(r.Context(), orderNo, pos, status, requestActor(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}

// SendPO queues the purchase-order email with the uploaded PDF.
func SendPO(svc internalyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "yards service unavailable"))
			return
		}

		orderNo, pos, err := pathParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		attachment, err := validators.ParsePDFAttachment(r, "po", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SendPO(r.Context(), internalyards.SendPOInput{
			OrderNo:     orderNo,
			YardPos:     pos,
			Attachments: []outbox.Attachment{*attachment},
			Actor:       requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}
