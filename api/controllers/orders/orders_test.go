package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	internalorders "github.com/partsdeskhq/partsdesk-backend/internal/orders"
	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
)

type stubOrdersService struct {
	order      *models.Order
	list       []models.Order
	meta       internalorders.ListMeta
	err        error
	gotList    *internalorders.ListInput
	gotCreate  *internalorders.CreateInput
	gotRefund  *internalorders.CustomerRefundInput
	gotDispute *internalorders.DisputeInput
	gotStatus  enums.OrderStatus
}

func (s *stubOrdersService) Create(ctx context.Context, input internalorders.CreateInput) (*models.Order, error) {
	s.gotCreate = &input
	return s.order, s.err
}

func (s *stubOrdersService) GetByNo(ctx context.Context, orderNo string) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) List(ctx context.Context, input internalorders.ListInput) ([]models.Order, internalorders.ListMeta, error) {
	s.gotList = &input
	return s.list, s.meta, s.err
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderNo string, status enums.OrderStatus, actor internalorders.Actor) (*models.Order, error) {
	s.gotStatus = status
	return s.order, s.err
}

func (s *stubOrdersService) CustomerRefund(ctx context.Context, input internalorders.CustomerRefundInput) (*models.Order, error) {
	s.gotRefund = &input
	return s.order, s.err
}

func (s *stubOrdersService) Dispute(ctx context.Context, input internalorders.DisputeInput) (*models.Order, error) {
	s.gotDispute = &input
	return s.order, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "orders-controller-test", Output: io.Discard})
}

func withOrderNo(req *http.Request, orderNo string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderNo", orderNo)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestListPassesWindowAndSearch(t *testing.T) {
	svc := &stubOrdersService{
		list: []models.Order{{OrderNo: "PD-1001"}},
		meta: internalorders.ListMeta{Total: 1, Page: 2, Limit: 10, Pages: 1},
	}
	handler := List(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?month=October&year=2025&searchTerm=smith&page=2&limit=10", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.gotList == nil {
		t.Fatalf("expected service list call")
	}
	if svc.gotList.Window.Month != "October" || svc.gotList.Window.Year != 2025 {
		t.Fatalf("window not forwarded: %+v", svc.gotList.Window)
	}
	if svc.gotList.SearchTerm != "smith" || svc.gotList.Page != 2 || svc.gotList.Limit != 10 {
		t.Fatalf("query params not forwarded: %+v", svc.gotList)
	}

	var envelope struct {
		Data struct {
			Orders []models.Order `json:"orders"`
			Total  int64          `json:"total"`
			Pages  int            `json:"pages"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.Orders[0].OrderNo != "PD-1001" {
		t.Fatalf("unexpected list payload: %+v", envelope.Data)
	}
	if envelope.Data.Total != 1 {
		t.Fatalf("unexpected total: %d", envelope.Data.Total)
	}
}

func TestListRejectsOversizedLimit(t *testing.T) {
	handler := List(&stubOrdersService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5000", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCreateReturnsCreated(t *testing.T) {
	svc := &stubOrdersService{order: &models.Order{OrderNo: "PD-1001"}}
	handler := Create(svc, testLogger())

	body := `{"orderNo":"PD-1001","customerName":"John Smith","partName":"Alternator","salePrice":"450.00","partCost":"210.00","shippingFee":"35.00","orderDate":"2025-10-02"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.gotCreate == nil {
		t.Fatalf("expected create call")
	}
	if svc.gotCreate.OrderNo != "PD-1001" {
		t.Fatalf("order number not forwarded: %q", svc.gotCreate.OrderNo)
	}
	if !svc.gotCreate.SalePrice.Equal(decimal.RequireFromString("450.00")) {
		t.Fatalf("sale price not forwarded: %s", svc.gotCreate.SalePrice)
	}
	if svc.gotCreate.OrderDate.Format("2006-01-02") != "2025-10-02" {
		t.Fatalf("order date not parsed: %s", svc.gotCreate.OrderDate)
	}
}

func TestCreateMissingRequiredFields(t *testing.T) {
	handler := Create(&stubOrdersService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(`{"customerName":"John"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestDetailNotFound(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	handler := Detail(svc, testLogger())

	req := withOrderNo(httptest.NewRequest(http.MethodGet, "/api/v1/orders/PD-9999", nil), "PD-9999")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestUpdateStatusParsesEnum(t *testing.T) {
	svc := &stubOrdersService{order: &models.Order{OrderNo: "PD-1001", Status: enums.OrderStatusFulfilled}}
	handler := UpdateStatus(svc, testLogger())

	req := withOrderNo(httptest.NewRequest(http.MethodPut, "/api/v1/orders/PD-1001/status", bytes.NewReader([]byte(`{"status":"Order Fulfilled"}`))), "PD-1001")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.gotStatus != enums.OrderStatusFulfilled {
		t.Fatalf("status not forwarded: %s", svc.gotStatus)
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	handler := UpdateStatus(&stubOrdersService{}, testLogger())

	req := withOrderNo(httptest.NewRequest(http.MethodPut, "/api/v1/orders/PD-1001/status", bytes.NewReader([]byte(`{"status":"Teleported"}`))), "PD-1001")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCustomerRefundMultipart(t *testing.T) {
	svc := &stubOrdersService{order: &models.Order{OrderNo: "PD-1001"}}
	handler := CustomerRefund(svc, testLogger())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("amount", "120.50"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.WriteField("date", "2025-10-05"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := mw.CreateFormFile("receipt", "receipt.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 test")); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := withOrderNo(httptest.NewRequest(http.MethodPut, "/api/v1/orders/PD-1001/refund", &buf), "PD-1001")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotRefund == nil {
		t.Fatalf("expected refund call")
	}
	if !svc.gotRefund.Amount.Equal(decimal.RequireFromString("120.50")) {
		t.Fatalf("amount not forwarded: %s", svc.gotRefund.Amount)
	}
	if svc.gotRefund.Receipt == nil || svc.gotRefund.Receipt.Filename != "receipt.pdf" {
		t.Fatalf("receipt attachment not forwarded: %+v", svc.gotRefund.Receipt)
	}
	if svc.gotRefund.Date == nil || svc.gotRefund.Date.Format("2006-01-02") != "2025-10-05" {
		t.Fatalf("refund date not parsed: %v", svc.gotRefund.Date)
	}
}

func TestCustomerRefundRequiresAmount(t *testing.T) {
	handler := CustomerRefund(&stubOrdersService{}, testLogger())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := withOrderNo(httptest.NewRequest(http.MethodPut, "/api/v1/orders/PD-1001/refund", &buf), "PD-1001")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestDisputeForwardsBody(t *testing.T) {
	svc := &stubOrdersService{order: &models.Order{OrderNo: "PD-1001"}}
	handler := Dispute(svc, testLogger())

	body := `{"reason":"chargeback","amount":"300.00","date":"2025-10-07"}`
	req := withOrderNo(httptest.NewRequest(http.MethodPut, "/api/v1/orders/PD-1001/dispute", bytes.NewReader([]byte(body))), "PD-1001")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.gotDispute == nil {
		t.Fatalf("expected dispute call")
	}
	if svc.gotDispute.Reason != "chargeback" {
		t.Fatalf("reason not forwarded: %q", svc.gotDispute.Reason)
	}
	if svc.gotDispute.Date == nil || svc.gotDispute.Date.Format("2006-01-02") != "2025-10-07" {
		t.Fatalf("dispute date not parsed: %v", svc.gotDispute.Date)
	}
}
