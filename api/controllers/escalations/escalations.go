package escalations

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/partsdeskhq/partsdesk-backend/api/responses"
	"github.com/partsdeskhq/partsdesk-backend/api/validators"
	internalesc "github.com/partsdeskhq/partsdesk-backend/internal/escalations"
	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
)

type customerLegRequest struct {
	ShipTo         string `json:"shipTo"`
	Method         string `json:"method"`
	Shipper        string `json:"shipper"`
	Tracking       string `json:"tracking"`
	Eta            string `json:"eta"`
	DeliveryStatus string `json:"deliveryStatus"`
	OwnShipAmount  string `json:"ownShipAmount"`
}

type yardLegRequest struct {
	ShippingStatus string `json:"shippingStatus"`
	Method         string `json:"method"`
	Shipper        string `json:"shipper"`
	Tracking       string `json:"tracking"`
	Eta            string `json:"eta"`
	TrackingLink   string `json:"trackingLink"`
}

type replacementRequest struct {
	Customer *customerLegRequest `json:"customer"`
	Yard     *yardLegRequest     `json:"yard"`
}

type planRequest struct {
	Process     string              `json:"process" validate:"required"`
	Cause       string              `json:"cause"`
	CustReason  string              `json:"custReason"`
	Replacement *replacementRequest `json:"replacement"`
	Return      *customerLegRequest `json:"return"`
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

func legParam(r *http.Request) (internalesc.LegName, error) {
	leg := internalesc.LegName(strings.TrimSpace(chi.URLParam(r, "leg")))
	switch leg {
	case internalesc.LegReplacementCustomer, internalesc.LegReplacementYard, internalesc.LegReturn:
		return leg, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown escalation leg").
		WithDetails(map[string]any{"leg": string(leg)})
}

func requestActor(r *http.Request) internalesc.Actor {
	userID, firstName := validators.RequestActor(r)
	return internalesc.Actor{UserID: userID, FirstName: firstName}
}

func parseShippingMethod(raw string) (enums.ShippingMethod, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return enums.ParseShippingMethod(raw)
}

func buildCustomerLeg(req *customerLegRequest) (*internalesc.CustomerLeg, error) {
	if req == nil {
		return nil, nil
	}
	method, err := parseShippingMethod(req.Method)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method")
	}
	return &internalesc.CustomerLeg{
		ShipTo:         req.ShipTo,
		Method:         method,
		Shipper:        req.Shipper,
		Tracking:       req.Tracking,
		Eta:            req.Eta,
		DeliveryStatus: req.DeliveryStatus,
		OwnShipAmount:  req.OwnShipAmount,
	}, nil
}

func buildYardLeg(req *yardLegRequest) (*internalesc.YardLeg, error) {
	if req == nil {
		return nil, nil
	}
	method, err := parseShippingMethod(req.Method)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method")
	}
	return &internalesc.YardLeg{
		ShippingStatus: req.ShippingStatus,
		Method:         method,
		Shipper:        req.Shipper,
		Tracking:       req.Tracking,
		Eta:            req.Eta,
		TrackingLink:   req.TrackingLink,
	}, nil
}

func buildPlan(req planRequest) (internalesc.Plan, error) {
	process, err := enums.ParseEscalationProcess(req.Process)
	if err != nil {
		return internalesc.Plan{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid escalation process")
	}
	var cause enums.EscalationCause
	if strings.TrimSpace(req.Cause) != "" {
		cause, err = enums.ParseEscalationCause(req.Cause)
		if err != nil {
			return internalesc.Plan{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid escalation cause")
		}
	}

	plan := internalesc.Plan{
		Process:    process,
		Cause:      cause,
		CustReason: strings.TrimSpace(req.CustReason),
	}

	if req.Replacement != nil {
		customer, err := buildCustomerLeg(req.Replacement.Customer)
		if err != nil {
			return internalesc.Plan{}, err
		}
		yard, err := buildYardLeg(req.Replacement.Yard)
		if err != nil {
			return internalesc.Plan{}, err
		}
		plan.Replacement = &internalesc.ReplacementPlan{Customer: customer, Yard: yard}
	}
	if req.Return != nil {
		ret, err := buildCustomerLeg(req.Return)
		if err != nil {
			return internalesc.Plan{}, err
		}
		plan.Return = ret
	}
	return plan, nil
}

// Save persists the full escalation plan for one yard.
func Save(svc internalesc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escalations service unavailable"))
			return
		}

		orderNo, pos, err := pathParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body planRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := buildPlan(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		yard, err := svc.Save(r.Context(), internalesc.SaveInput{
			OrderNo: orderNo,
			YardPos: pos,
			Plan:    plan,
			Actor:   requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, yard)
	}
}

// SendEmail persists the plan and queues the per-leg escalation email. The
// plan travels as multipart field "plan" (JSON) with an optional PDF in
// "attachment".
func SendEmail(svc internalesc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escalations service unavailable"))
			return
		}

		orderNo, pos, err := pathParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		leg, err := legParam(r)
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

		rawPlan := strings.TrimSpace(r.FormValue("plan"))
		if rawPlan == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.MissingFields("plan required", []string{"plan"}))
			return
		}
		var body planRequest
		if err := json.Unmarshal([]byte(rawPlan), &body); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan payload"))
			return
		}
		plan, err := buildPlan(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SendEmail(r.Context(), internalesc.SendEmailInput{
			OrderNo:     orderNo,
			YardPos:     pos,
			Leg:         leg,
			Plan:        plan,
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

// VoidLeg blanks one escalation leg.
func VoidLeg(svc internalesc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escalations service unavailable"))
			return
		}

		orderNo, pos, err := pathParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		leg, err := legParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		yard, err := svc.VoidLeg(r.Context(), orderNo, pos, leg, requestActor(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, yard)
	}
}
