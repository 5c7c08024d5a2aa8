package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/checkout"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/registers"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/sales"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
)

func TestOpenRegisterUsesCallingOperator(t *testing.T) {
	opID := uuid.New()
	svc := &stubRegisterService{register: &registers.RegisterDTO{ID: uuid.New(), OperatorID: opID, Status: enums.RegisterStatusOpen}}
	rec := httptest.NewRecorder()

	OpenRegister(svc, testLogger())(rec, newRequest(t, http.MethodPost, "/", map[string]any{"opening_amount": "100.00"}, nil, &opID, "operator"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.operator != opID || !svc.opened.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected open call %s %s", svc.operator, svc.opened)
	}
}

func TestOpenRegisterRequiresOperator(t *testing.T) {
	rec := httptest.NewRecorder()
	OpenRegister(&stubRegisterService{}, testLogger())(rec, newRequest(t, http.MethodPost, "/", map[string]any{"opening_amount": "1"}, nil, nil, ""))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestOpenRegisterConflict(t *testing.T) {
	opID := uuid.New()
	svc := &stubRegisterService{err: pkgerrors.New(pkgerrors.CodeConflict, "operator already has an open register")}
	rec := httptest.NewRecorder()

	OpenRegister(svc, testLogger())(rec, newRequest(t, http.MethodPost, "/", map[string]any{"opening_amount": "1"}, nil, &opID, "operator"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestCloseRegisterReturnsSummary(t *testing.T) {
	regID := uuid.New()
	diff := decimal.RequireFromString("-2.50")
	svc := &stubRegisterService{summary: &registers.Summary{RegisterID: regID, Status: enums.RegisterStatusClosed, Difference: &diff}}
	rec := httptest.NewRecorder()

	CloseRegister(svc, testLogger())(rec, newRequest(t, http.MethodPost, "/", map[string]any{"closing_amount": "147.50"}, registerParams(regID), nil, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.closed.Equal(decimal.RequireFromString("147.5")) {
		t.Fatalf("unexpected closing amount %s", svc.closed)
	}
	var out registers.Summary
	decodeData(t, rec, &out)
	if out.Difference == nil || !out.Difference.Equal(diff) {
		t.Fatalf("unexpected difference %v", out.Difference)
	}
}

func TestListRegisterSalesPassesPaging(t *testing.T) {
	svc := &stubSalesService{page: &sales.ListResult{Sales: []sales.SaleDTO{}, NextCursor: "abc"}}
	rec := httptest.NewRecorder()

	ListRegisterSales(svc, testLogger())(rec, newRequest(t, http.MethodGet, "/?limit=10&cursor=abc", nil, registerParams(uuid.New()), nil, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.params.Limit != 10 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.params)
	}

	rec = httptest.NewRecorder()
	ListRegisterSales(svc, testLogger())(rec, newRequest(t, http.MethodGet, "/?limit=1000", nil, registerParams(uuid.New()), nil, ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", rec.Code)
	}
}

func TestGetSaleHidesOtherRegisters(t *testing.T) {
	saleID := uuid.New()
	svc := &stubSalesService{sale: &sales.SaleDTO{ID: saleID, RegisterID: uuid.New()}}
	rec := httptest.NewRecorder()

	GetSale(svc, testLogger())(rec, newRequest(t, http.MethodGet, "/", nil, registerParams(uuid.New(), saleIDParam, saleID.String()), nil, ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestSubmitCheckoutCarriesOperator(t *testing.T) {
	regID := uuid.New()
	opID := uuid.New()
	saleID := uuid.New()
	svc := &stubCheckoutService{result: &checkout.Result{
		Sale:    &sales.SaleDTO{ID: saleID, RegisterID: regID},
		Receipt: "ELITE AÇAÍ",
		Status:  &checkout.StatusDTO{RegisterID: regID, State: enums.CheckoutStateCommitted, SaleID: &saleID},
	}}
	rec := httptest.NewRecorder()

	SubmitCheckout(svc, testLogger())(rec, newRequest(t, http.MethodPost, "/", nil, registerParams(regID), &opID, "operator"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.input.RegisterID != regID || svc.input.OperatorID == nil || *svc.input.OperatorID != opID {
		t.Fatalf("unexpected submit input %+v", svc.input)
	}
	if svc.input.OperatorName != "Maria" {
		t.Fatalf("expected operator name from context, got %q", svc.input.OperatorName)
	}
}

func TestSubmitCheckoutBusy(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")}
	rec := httptest.NewRecorder()

	SubmitCheckout(svc, testLogger())(rec, newRequest(t, http.MethodPost, "/", nil, registerParams(uuid.New()), nil, ""))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}
