package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	productsvc "github.com/gleilsonbarbosa2/elitepedidos2/internal/products"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
)

func TestListProductsParsesFilters(t *testing.T) {
	svc := &stubProductService{}
	req := newRequest(t, http.MethodGet, "/api/v1/products?category=acai&active=true&q=%20copo%20&available_on=3", nil, nil, nil, "")
	rec := httptest.NewRecorder()

	ListProducts(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.filters.Category == nil || *svc.filters.Category != enums.ProductCategoryAcai {
		t.Fatalf("expected acai category filter, got %+v", svc.filters.Category)
	}
	if !svc.filters.ActiveOnly {
		t.Fatal("expected active only filter")
	}
	if svc.filters.Query != "copo" {
		t.Fatalf("expected trimmed query, got %q", svc.filters.Query)
	}
	if svc.filters.AvailableOn == nil || *svc.filters.AvailableOn != 3 {
		t.Fatalf("expected weekday 3, got %v", svc.filters.AvailableOn)
	}
}

func TestListProductsRejectsBadFilters(t *testing.T) {
	cases := map[string]string{
		"category": "/api/v1/products?category=pizza",
		"weekday":  "/api/v1/products?available_on=9",
		"active":   "/api/v1/products?active=maybe",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ListProducts(&stubProductService{}, testLogger())(rec, newRequest(t, http.MethodGet, target, nil, nil, nil, ""))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rec.Code)
			}
		})
	}
}

func TestCreateProductMapsRequest(t *testing.T) {
	svc := &stubProductService{product: &productsvc.ProductDTO{ID: uuid.New(), Name: "Açaí 500ml"}}
	body := map[string]any{
		"name":           "  Açaí 500ml ",
		"description":    "Copo de 500ml",
		"category":       "acai",
		"price":          "22.00",
		"original_price": "25.00",
		"available_days": []int{1, 2, 3},
	}
	rec := httptest.NewRecorder()

	CreateProduct(svc, testLogger())(rec, newRequest(t, http.MethodPost, "/api/v1/products", body, nil, nil, ""))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createInput.Name != "Açaí 500ml" {
		t.Fatalf("expected sanitized name, got %q", svc.createInput.Name)
	}
	if svc.createInput.Category != enums.ProductCategoryAcai {
		t.Fatalf("unexpected category %q", svc.createInput.Category)
	}
	if !svc.createInput.Price.Equal(decimal.RequireFromString("22")) {
		t.Fatalf("unexpected price %s", svc.createInput.Price)
	}
	if len(svc.createInput.AvailableDays) != 3 {
		t.Fatalf("unexpected days %v", svc.createInput.AvailableDays)
	}
}

func TestCreateProductRejectsUnknownFieldsAndDays(t *testing.T) {
	cases := map[string]map[string]any{
		"unknown field": {"name": "x", "description": "y", "category": "acai", "price": "1", "color": "red"},
		"bad weekday":   {"name": "x", "description": "y", "category": "acai", "price": "1", "available_days": []int{7}},
		"bad category":  {"name": "x", "description": "y", "category": "pizza", "price": "1"},
		"missing name":  {"description": "y", "category": "acai", "price": "1"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			CreateProduct(&stubProductService{}, testLogger())(rec, newRequest(t, http.MethodPost, "/api/v1/products", body, nil, nil, ""))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateProductClearsOriginalPrice(t *testing.T) {
	svc := &stubProductService{product: &productsvc.ProductDTO{}}
	id := uuid.New()
	rec := httptest.NewRecorder()
	req := newRequest(t, http.MethodPatch, "/api/v1/products/"+id.String(), map[string]any{
		"clear_original_price": true,
		"category":             "bebidas",
	}, map[string]string{productIDParam: id.String()}, nil, "")

	UpdateProduct(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.updateInput.ClearOriginalPrice {
		t.Fatal("expected clear flag to pass through")
	}
	if svc.updateInput.Category == nil || *svc.updateInput.Category != enums.ProductCategoryBebidas {
		t.Fatalf("unexpected category %v", svc.updateInput.Category)
	}
}

func TestDeleteProductPassesActor(t *testing.T) {
	svc := &stubProductService{}
	id := uuid.New()
	admin := uuid.New()
	rec := httptest.NewRecorder()
	req := newRequest(t, http.MethodDelete, "/api/v1/products/"+id.String(), nil, map[string]string{productIDParam: id.String()}, &admin, "admin")

	DeleteProduct(svc, testLogger())(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if svc.deleted != id {
		t.Fatalf("expected product %s deleted, got %s", id, svc.deleted)
	}
	if svc.deleteActor == nil || svc.deleteActor.OperatorID != admin || svc.deleteActor.Role != "admin" {
		t.Fatalf("unexpected actor %+v", svc.deleteActor)
	}
}

func TestGetProductRejectsBadID(t *testing.T) {
	rec := httptest.NewRecorder()
	GetProduct(&stubProductService{}, testLogger())(rec, newRequest(t, http.MethodGet, "/api/v1/products/nope", nil, map[string]string{productIDParam: "nope"}, nil, ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestGetProductNotFound(t *testing.T) {
	id := uuid.New()
	svc := &stubProductService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	rec := httptest.NewRecorder()
	GetProduct(svc, testLogger())(rec, newRequest(t, http.MethodGet, "/", nil, map[string]string{productIDParam: id.String()}, nil, ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected code %q", code)
	}
}

func TestSetProductSchedule(t *testing.T) {
	svc := &stubProductService{product: &productsvc.ProductDTO{}}
	id := uuid.New()
	rec := httptest.NewRecorder()
	req := newRequest(t, http.MethodPut, "/", map[string]any{"days": []int{0, 6}}, map[string]string{productIDParam: id.String()}, nil, "")

	SetProductSchedule(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.days) != 2 || svc.days[0] != 0 || svc.days[1] != 6 {
		t.Fatalf("unexpected days %v", svc.days)
	}
}

func TestProductImageHandlers(t *testing.T) {
	id := uuid.New()
	params := map[string]string{productIDParam: id.String()}

	t.Run("missing image is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		GetProductImage(&stubMediaService{}, testLogger())(rec, newRequest(t, http.MethodGet, "/", nil, params, nil, ""))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 got %d", rec.Code)
		}
	})

	t.Run("existing image returns url", func(t *testing.T) {
		url := "https://cdn.example.com/acai.png"
		rec := httptest.NewRecorder()
		GetProductImage(&stubMediaService{url: &url}, testLogger())(rec, newRequest(t, http.MethodGet, "/", nil, params, nil, ""))
		var out map[string]string
		decodeData(t, rec, &out)
		if out["url"] != url {
			t.Fatalf("unexpected url %q", out["url"])
		}
	})

	t.Run("put trims the reference", func(t *testing.T) {
		svc := &stubMediaService{}
		rec := httptest.NewRecorder()
		PutProductImage(svc, testLogger())(rec, newRequest(t, http.MethodPut, "/", map[string]string{"image": " data:image/png;base64,AAAA "}, params, nil, ""))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.saved != "data:image/png;base64,AAAA" {
			t.Fatalf("unexpected saved ref %q", svc.saved)
		}
	})

	t.Run("delete answers 204", func(t *testing.T) {
		rec := httptest.NewRecorder()
		DeleteProductImage(&stubMediaService{}, testLogger())(rec, newRequest(t, http.MethodDelete, "/", nil, params, nil, ""))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204 got %d", rec.Code)
		}
	})
}
