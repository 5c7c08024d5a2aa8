// Package operators signs staff in to the PDV and manages their accounts.
package operators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/gleilsonbarbosa2/elitepedidos2/pkg/auth"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/auth/session"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth and operator controllers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
	Create(ctx context.Context, input CreateOperatorInput) (*OperatorDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*OperatorDTO, error)
	List(ctx context.Context) ([]OperatorDTO, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type operatorRepository interface {
	Create(ctx context.Context, operator *models.Operator) error
	FindByCode(ctx context.Context, code string) (*models.Operator, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	List(ctx context.Context) ([]models.Operator, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
}

type sessionManager interface {
	Start(ctx context.Context, accessID string, operatorID uuid.UUID) error
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build the operator service.
type ServiceParams struct {
	Repo           operatorRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type service struct {
	repo    operatorRepository
	session sessionManager
	jwtCfg  config.JWTConfig
	pwCfg   config.PasswordConfig
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("operator repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:    params.Repo,
		session: params.SessionManager,
		jwtCfg:  params.JWTConfig,
		pwCfg:   params.PasswordConfig,
		logg:    params.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	operator, err := s.authenticate(ctx, req.Code, req.Password)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOperatorID(ctx, operator.ID.String())

	if security.NeedsRehash(operator.PasswordHash, s.pwCfg) {
		s.rehash(ctx, operator.ID, req.Password)
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, operator.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	operator.LastLoginAt = &now

	accessID := session.NewAccessID()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		OperatorID: operator.ID,
		Name:       operator.Name,
		Role:       operator.Role,
		JTI:        accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.session.Start(ctx, accessID, operator.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}

	s.logg.Info(s.logg.WithActorRole(ctx, string(operator.Role)), "operator.logged_in")
	return &LoginResponse{
		AccessToken: token,
		ExpiresAt:   now.Add(pkgauth.TTL(s.jwtCfg)),
		Operator:    FromModel(operator),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateOperatorInput) (*OperatorDTO, error) {
	name := strings.TrimSpace(input.Name)
	code := strings.TrimSpace(input.Code)

	var fields []pkgerrors.FieldError
	if name == "" {
		fields = append(fields, pkgerrors.FieldError{Field: "name", Message: "required"})
	}
	if code == "" {
		fields = append(fields, pkgerrors.FieldError{Field: "code", Message: "required"})
	}
	if err := security.ValidatePassword(input.Password); err != nil {
		fields = append(fields, pkgerrors.FieldError{Field: "password", Message: err.Error()})
	}
	if !input.Role.IsValid() {
		fields = append(fields, pkgerrors.FieldError{Field: "role", Message: "must be admin or operator"})
	}
	if len(fields) > 0 {
		return nil, pkgerrors.Validation("invalid operator", fields...)
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	operator := &models.Operator{
		Name:         name,
		Code:         code,
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, operator); err != nil {
		if db.IsUniqueViolation(err, "operators_code_key") || db.IsUniqueViolation(err, "operators.code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "operator code already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create operator")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"operator_id": operator.ID.String(), "role": string(operator.Role)})
	s.logg.Info(logCtx, "operator.created")
	return FromModel(operator), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OperatorDTO, error) {
	operator, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "operator not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load operator")
	}
	return FromModel(operator), nil
}

func (s *service) List(ctx context.Context) ([]OperatorDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list operators")
	}
	out := make([]OperatorDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	ok, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update operator")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "operator not found")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, code, password string) (*models.Operator, error) {
	input := strings.TrimSpace(code)
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	operator, err := s.repo.FindByCode(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup operator")
	}

	valid, err := security.VerifyPassword(password, operator.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !operator.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return operator, nil
}

// rehash upgrades a hash made with older parameters. Failure keeps the old hash.
func (s *service) rehash(ctx context.Context, id uuid.UUID, password string) {
	hash, err := security.HashPassword(password, s.pwCfg)
	if err == nil {
		err = s.repo.UpdatePasswordHash(ctx, id, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "operator password rehash failed")
	}
}
