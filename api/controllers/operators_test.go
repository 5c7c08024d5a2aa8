package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/middleware"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/operators"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/storehours"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
)

type stubOperatorService struct {
	login     operators.LoginRequest
	loggedOut string
	created   operators.CreateOperatorInput
	activeSet *bool
	operator  *operators.OperatorDTO
	loginErr  error
	err       error
}

func (s *stubOperatorService) Login(ctx context.Context, req operators.LoginRequest) (*operators.LoginResponse, error) {
	s.login = req
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &operators.LoginResponse{AccessToken: "token", ExpiresAt: time.Now().Add(time.Hour), Operator: s.operator}, nil
}

func (s *stubOperatorService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

func (s *stubOperatorService) Create(ctx context.Context, input operators.CreateOperatorInput) (*operators.OperatorDTO, error) {
	s.created = input
	return s.operator, s.err
}

func (s *stubOperatorService) Get(ctx context.Context, id uuid.UUID) (*operators.OperatorDTO, error) {
	return s.operator, s.err
}

func (s *stubOperatorService) List(ctx context.Context) ([]operators.OperatorDTO, error) {
	return []operators.OperatorDTO{}, s.err
}

func (s *stubOperatorService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	s.activeSet = &active
	return s.err
}

func TestAuthLogin(t *testing.T) {
	svc := &stubOperatorService{operator: &operators.OperatorDTO{ID: uuid.New(), Name: "Maria"}}
	rec := httptest.NewRecorder()

	AuthLogin(svc, testLogger())(rec, newRequest(t, http.MethodPost, "/", map[string]string{"code": "OP01", "password": "1234"}, nil, nil, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var out operators.LoginResponse
	decodeData(t, rec, &out)
	if out.AccessToken != "token" || svc.login.Code != "OP01" {
		t.Fatalf("unexpected login %+v / %+v", out, svc.login)
	}
}

func TestAuthLoginFailures(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthLogin(&stubOperatorService{}, testLogger())(rec, newRequest(t, http.MethodPost, "/", map[string]string{"code": "OP01"}, nil, nil, ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	svc := &stubOperatorService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	AuthLogin(svc, testLogger())(rec, newRequest(t, http.MethodPost, "/", map[string]string{"code": "OP01", "password": "nope"}, nil, nil, ""))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	AuthLogin(nil, testLogger())(rec, newRequest(t, http.MethodPost, "/", map[string]string{"code": "OP01", "password": "1234"}, nil, nil, ""))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without service, got %d", rec.Code)
	}
}

func TestAuthLogoutRevokesAccessID(t *testing.T) {
	svc := &stubOperatorService{}
	req := newRequest(t, http.MethodPost, "/", nil, nil, nil, "")
	req = req.WithContext(middleware.WithAccessID(req.Context(), "jti-1"))
	rec := httptest.NewRecorder()

	AuthLogout(svc, testLogger())(rec, req)

	if rec.Code != http.StatusNoContent || svc.loggedOut != "jti-1" {
		t.Fatalf("expected logout of jti-1, got %d %q", rec.Code, svc.loggedOut)
	}
}

func TestCreateOperatorSanitizes(t *testing.T) {
	svc := &stubOperatorService{operator: &operators.OperatorDTO{ID: uuid.New()}}
	rec := httptest.NewRecorder()
	body := map[string]string{"name": "  Ana ", "code": " OP02 ", "password": "4321", "role": "operator"}

	CreateOperator(svc, testLogger())(rec, newRequest(t, http.MethodPost, "/", body, nil, nil, ""))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created.Name != "Ana" || svc.created.Code != "OP02" || svc.created.Role != enums.OperatorRoleOperator {
		t.Fatalf("unexpected input %+v", svc.created)
	}

	rec = httptest.NewRecorder()
	body["role"] = "owner"
	CreateOperator(svc, testLogger())(rec, newRequest(t, http.MethodPost, "/", body, nil, nil, ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
}

func TestSetOperatorActiveBlocksSelfDeactivation(t *testing.T) {
	self := uuid.New()
	svc := &stubOperatorService{operator: &operators.OperatorDTO{ID: self}}
	rec := httptest.NewRecorder()
	req := newRequest(t, http.MethodPut, "/", map[string]bool{"is_active": false}, map[string]string{operatorIDParam: self.String()}, &self, "admin")

	SetOperatorActive(svc, testLogger())(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	if svc.activeSet != nil {
		t.Fatal("service should not be called")
	}

	other := uuid.New()
	rec = httptest.NewRecorder()
	req = newRequest(t, http.MethodPut, "/", map[string]bool{"is_active": false}, map[string]string{operatorIDParam: other.String()}, &self, "admin")
	SetOperatorActive(svc, testLogger())(rec, req)
	if rec.Code != http.StatusOK || svc.activeSet == nil || *svc.activeSet {
		t.Fatalf("expected other operator deactivated, got %d", rec.Code)
	}
}

type stubStoreHours struct {
	saved []storehours.DayHours
	now   time.Time
}

func (s *stubStoreHours) Get(ctx context.Context) ([]storehours.DayHours, error) {
	return []storehours.DayHours{}, nil
}

func (s *stubStoreHours) Update(ctx context.Context, hours []storehours.DayHours) ([]storehours.DayHours, bool, error) {
	s.saved = hours
	return hours, true, nil
}

func (s *stubStoreHours) Status(ctx context.Context, now time.Time) (*storehours.Status, error) {
	s.now = now
	return &storehours.Status{IsOpen: true, CheckedAt: now}, nil
}

func TestStoreHoursHandlers(t *testing.T) {
	svc := &stubStoreHours{}
	fixed := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	rec := httptest.NewRecorder()
	StoreStatus(svc, func() time.Time { return fixed }, testLogger())(rec, newRequest(t, http.MethodGet, "/", nil, nil, nil, ""))
	if rec.Code != http.StatusOK || !svc.now.Equal(fixed) {
		t.Fatalf("expected status at fixed clock, got %d %v", rec.Code, svc.now)
	}

	rec = httptest.NewRecorder()
	body := map[string]any{"hours": []map[string]any{{"day_of_week": 1, "is_open": true, "open_time": "14:00", "close_time": "22:00"}}}
	UpdateStoreHours(svc, testLogger())(rec, newRequest(t, http.MethodPut, "/", body, nil, nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var out storeHoursResponse
	decodeData(t, rec, &out)
	if !out.Changed || len(svc.saved) != 1 || svc.saved[0].OpenTime != "14:00" {
		t.Fatalf("unexpected update %+v / %+v", out, svc.saved)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, map[string]db.Pinger{"postgres": stubPinger{}, "redis": stubPinger{}}, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get(envHeader) != "dev" {
		t.Fatalf("expected env header, got %q", rec.Header().Get(envHeader))
	}

	rec = httptest.NewRecorder()
	HealthReady(cfg, map[string]db.Pinger{"postgres": stubPinger{}, "redis": stubPinger{err: errors.New("connection refused")}}, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(&config.Config{App: config.AppConfig{Env: "prod"}})(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
