package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxOperatorID   contextKey = "operator_id"
	ctxOperatorName contextKey = "operator_name"
	ctxRole         contextKey = "actor_role"
	ctxAccessID     contextKey = "access_id"
)

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func OperatorIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxOperatorID)
}

// OperatorUUIDFromContext parses the authenticated operator id; ok is false for anonymous requests.
func OperatorUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(OperatorIDFromContext(ctx))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func OperatorNameFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxOperatorName)
}

func RoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxRole)
}

// AccessIDFromContext returns the jti of the token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxAccessID)
}

// WithOperator injects the authenticated operator into the context.
func WithOperator(ctx context.Context, operatorID, name, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxOperatorID, operatorID)
	ctx = context.WithValue(ctx, ctxOperatorName, name)
	return context.WithValue(ctx, ctxRole, role)
}

// WithAccessID injects the token jti into the context.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}
