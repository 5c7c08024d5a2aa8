package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/middleware"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/cart"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/checkout"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/media"
	productsvc "github.com/gleilsonbarbosa2/elitepedidos2/internal/products"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/registers"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/sales"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.Nop()
}

// newRequest builds a request with chi URL params and, when operator is set, an authenticated operator.
func newRequest(t *testing.T, method, target string, body any, params map[string]string, operator *uuid.UUID, role string) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if operator != nil {
		ctx = middleware.WithOperator(ctx, operator.String(), "Maria", role)
	}
	return req.WithContext(ctx)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, envelope.Data)
	}
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	envelope := struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code
}

type stubProductService struct {
	filters     productsvc.ListFilters
	createInput productsvc.CreateProductInput
	updateInput productsvc.UpdateProductInput
	deleted     uuid.UUID
	deleteActor *outbox.ActorRef
	days        []int
	product     *productsvc.ProductDTO
	err         error
}

func (s *stubProductService) List(ctx context.Context, filters productsvc.ListFilters) ([]productsvc.ProductDTO, error) {
	s.filters = filters
	if s.err != nil {
		return nil, s.err
	}
	return []productsvc.ProductDTO{}, nil
}

func (s *stubProductService) Search(ctx context.Context, term string) ([]productsvc.ProductDTO, error) {
	s.filters.Query = term
	return []productsvc.ProductDTO{}, s.err
}

func (s *stubProductService) Get(ctx context.Context, id uuid.UUID) (*productsvc.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubProductService) Create(ctx context.Context, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	s.createInput = input
	return s.product, s.err
}

func (s *stubProductService) Update(ctx context.Context, id uuid.UUID, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	s.updateInput = input
	return s.product, s.err
}

func (s *stubProductService) Delete(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error {
	s.deleted = id
	s.deleteActor = actor
	return s.err
}

func (s *stubProductService) SetSchedule(ctx context.Context, id uuid.UUID, days []int) (*productsvc.ProductDTO, error) {
	s.days = days
	return s.product, s.err
}

func (s *stubProductService) CartProduct(ctx context.Context, id uuid.UUID) (cart.CatalogProduct, error) {
	return cart.CatalogProduct{}, s.err
}

type stubMediaService struct {
	url   *string
	saved string
	err   error
}

func (s *stubMediaService) URL(ctx context.Context, productID uuid.UUID) (*string, error) {
	return s.url, s.err
}

func (s *stubMediaService) Save(ctx context.Context, productID uuid.UUID, ref string) (*media.ImageDTO, error) {
	s.saved = ref
	if s.err != nil {
		return nil, s.err
	}
	return &media.ImageDTO{ProductID: productID}, nil
}

func (s *stubMediaService) Remove(ctx context.Context, productID uuid.UUID) error {
	return s.err
}

type stubRegisterService struct {
	opened   decimal.Decimal
	closed   decimal.Decimal
	operator uuid.UUID
	register *registers.RegisterDTO
	summary  *registers.Summary
	err      error
}

func (s *stubRegisterService) Open(ctx context.Context, operatorID uuid.UUID, openingAmount decimal.Decimal) (*registers.RegisterDTO, error) {
	s.operator = operatorID
	s.opened = openingAmount
	return s.register, s.err
}

func (s *stubRegisterService) Current(ctx context.Context, operatorID uuid.UUID) (*registers.RegisterDTO, error) {
	s.operator = operatorID
	return s.register, s.err
}

func (s *stubRegisterService) Get(ctx context.Context, id uuid.UUID) (*registers.RegisterDTO, error) {
	return s.register, s.err
}

func (s *stubRegisterService) Close(ctx context.Context, id uuid.UUID, closingAmount decimal.Decimal, actor *outbox.ActorRef) (*registers.Summary, error) {
	s.closed = closingAmount
	return s.summary, s.err
}

func (s *stubRegisterService) Summary(ctx context.Context, id uuid.UUID) (*registers.Summary, error) {
	return s.summary, s.err
}

func (s *stubRegisterService) EnsureOpen(ctx context.Context, id uuid.UUID) error {
	return s.err
}

type stubSalesService struct {
	params pagination.Params
	sale   *sales.SaleDTO
	page   *sales.ListResult
	err    error
}

func (s *stubSalesService) Create(ctx context.Context, record sales.Record, registerID uuid.UUID) (*sales.SaleDTO, error) {
	return s.sale, s.err
}

func (s *stubSalesService) Get(ctx context.Context, id uuid.UUID) (*sales.SaleDTO, error) {
	return s.sale, s.err
}

func (s *stubSalesService) ListByRegister(ctx context.Context, registerID uuid.UUID, params pagination.Params) (*sales.ListResult, error) {
	s.params = params
	return s.page, s.err
}

// stubCartService runs the real aggregate in memory so handlers see realistic totals.
type stubCartService struct {
	agg      *cart.Aggregate
	added    cart.AddItemInput
	weighed  bool
	payment  cart.PaymentInput
	discount cart.DiscountSpec
	index    int
	cleared  bool
	err      error
}

func newStubCartService() *stubCartService {
	return &stubCartService{agg: cart.New()}
}

func (s *stubCartService) result() (*cart.Aggregate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.agg, nil
}

func (s *stubCartService) Get(ctx context.Context, registerID uuid.UUID) (*cart.Aggregate, error) {
	return s.result()
}

func (s *stubCartService) AddItem(ctx context.Context, registerID uuid.UUID, input cart.AddItemInput) (*cart.Aggregate, error) {
	s.added = input
	return s.result()
}

func (s *stubCartService) AddWeighed(ctx context.Context, registerID, productID uuid.UUID) (*cart.Aggregate, error) {
	s.weighed = true
	s.added = cart.AddItemInput{ProductID: productID}
	return s.result()
}

func (s *stubCartService) UpdateItem(ctx context.Context, registerID, productID uuid.UUID, input cart.UpdateItemInput) (*cart.Aggregate, error) {
	return s.result()
}

func (s *stubCartService) RemoveItem(ctx context.Context, registerID, productID uuid.UUID) (*cart.Aggregate, error) {
	return s.result()
}

func (s *stubCartService) SetDiscount(ctx context.Context, registerID uuid.UUID, spec cart.DiscountSpec) (*cart.Aggregate, error) {
	s.discount = spec
	return s.result()
}

func (s *stubCartService) SetPayment(ctx context.Context, registerID uuid.UUID, input cart.PaymentInput) (*cart.Aggregate, error) {
	s.payment = input
	return s.result()
}

func (s *stubCartService) ConfigureSplit(ctx context.Context, registerID uuid.UUID, input cart.SplitInput) (*cart.Aggregate, error) {
	return s.result()
}

func (s *stubCartService) SetSplitPart(ctx context.Context, registerID uuid.UUID, index int, amount decimal.Decimal) (*cart.Aggregate, error) {
	s.index = index
	return s.result()
}

func (s *stubCartService) Clear(ctx context.Context, registerID uuid.UUID) error {
	s.cleared = true
	return s.err
}

type stubCheckoutService struct {
	input  checkout.SubmitInput
	result *checkout.Result
	status *checkout.StatusDTO
	err    error
}

func (s *stubCheckoutService) Submit(ctx context.Context, input checkout.SubmitInput) (*checkout.Result, error) {
	s.input = input
	return s.result, s.err
}

func (s *stubCheckoutService) Status(ctx context.Context, registerID uuid.UUID) (*checkout.StatusDTO, error) {
	return s.status, s.err
}
