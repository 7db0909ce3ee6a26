package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/partsdeskhq/partsdesk-backend/api/responses"
	"github.com/partsdeskhq/partsdesk-backend/api/validators"
	internalorders "github.com/partsdeskhq/partsdesk-backend/internal/orders"
	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
	"github.com/partsdeskhq/partsdesk-backend/pkg/pagination"
)

type createRequest struct {
	OrderNo         string          `json:"orderNo" validate:"required"`
	CustomerName    string          `json:"customerName" validate:"required"`
	CustomerEmail   string          `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone   string          `json:"customerPhone"`
	PartName        string          `json:"partName" validate:"required"`
	BillingAddress  string          `json:"billingAddress"`
	ShippingAddress string          `json:"shippingAddress"`
	SalePrice       decimal.Decimal `json:"salePrice"`
	PartCost        decimal.Decimal `json:"partCost"`
	ShippingFee     decimal.Decimal `json:"shippingFee"`
	OrderDate       string          `json:"orderDate"`
	SquarePaymentID string          `json:"squarePaymentId"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type disputeRequest struct {
	Reason string          `json:"reason"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

type listResponse struct {
	Orders []any `json:"orders"`
	Total  int64 `json:"total"`
	Page   int   `json:"page"`
	Limit  int   `json:"limit"`
	Pages  int   `json:"pages"`
}

func orderNoParam(r *http.Request) (string, error) {
	orderNo := strings.TrimSpace(chi.URLParam(r, "orderNo"))
	if orderNo == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	return orderNo, nil
}

func requestActor(r *http.Request) internalorders.Actor {
	userID, firstName := validators.RequestActor(r)
	return internalorders.Actor{UserID: userID, FirstName: firstName}
}

// parseDate accepts the dashboard's date formats for optional date fields.
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

// List returns the month-window order page with optional search.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		win, err := validators.ParseWindowRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, meta, err := svc.List(r.Context(), internalorders.ListInput{
			Window:     win,
			SearchTerm: strings.TrimSpace(r.URL.Query().Get("searchTerm")),
			Page:       page,
			Limit:      limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows := make([]any, 0, len(list))
		for i := range list {
			rows = append(rows, list[i])
		}
		responses.WriteSuccess(w, listResponse{
			Orders: rows,
			Total:  meta.Total,
			Page:   meta.Page,
			Limit:  meta.Limit,
			Pages:  meta.Pages,
		})
	}
}

// Create accepts a new order submission.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var body createRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderDate := time.Now().UTC()
		if parsed, err := parseDate(body.OrderDate); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if parsed != nil {
			orderDate = *parsed
		}

		order, err := svc.Create(r.Context(), internalorders.CreateInput{
			OrderNo:         body.OrderNo,
			CustomerName:    body.CustomerName,
			CustomerEmail:   body.CustomerEmail,
			CustomerPhone:   body.CustomerPhone,
			PartName:        body.PartName,
			BillingAddress:  body.BillingAddress,
			ShippingAddress: body.ShippingAddress,
			SalePrice:       body.SalePrice,
			PartCost:        body.PartCost,
			ShippingFee:     body.ShippingFee,
			OrderDate:       orderDate,
			SquarePaymentID: body.SquarePaymentID,
			Actor:           requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Detail returns one order with its yards.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderNo, err := orderNoParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetByNo(r.Context(), orderNo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdateStatus moves the order through its manual status transitions.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderNo, err := orderNoParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderNo, status, requestActor(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CustomerRefund records an order-level customer refund. The receipt PDF
// arrives as optional multipart field "receipt" alongside form fields.
func CustomerRefund(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderNo, err := orderNoParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := validators.ParsePDFAttachment(r, "receipt", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rawAmount := strings.TrimSpace(r.FormValue("amount"))
		if rawAmount == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "refund amount is required"))
			return
		}
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund amount"))
			return
		}
		date, err := parseDate(r.FormValue("date"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CustomerRefund(r.Context(), internalorders.CustomerRefundInput{
			OrderNo: orderNo,
			Amount:  amount,
			Date:    date,
			Receipt: receipt,
			Actor:   requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Dispute records a payment dispute against an order.
func Dispute(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderNo, err := orderNoParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body disputeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := parseDate(body.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Dispute(r.Context(), internalorders.DisputeInput{
			OrderNo: orderNo,
			Reason:  body.Reason,
			Amount:  body.Amount,
			Date:    date,
			Actor:   requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
