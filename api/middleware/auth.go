package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/responses"
	pkgAuth "github.com/gleilsonbarbosa2/elitepedidos2/pkg/auth"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/auth/session"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

// accessTokenQueryParam carries the token for EventSource clients, which cannot set headers.
const accessTokenQueryParam = "access_token"

// Auth admits requests carrying a live operator session and stores the
// operator on the request context.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r.Context(), cfg, verifier, bearerToken(r))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			operatorID := claims.OperatorID.String()
			ctx := WithAccessID(WithOperator(r.Context(), operatorID, claims.Name, string(claims.Role)), claims.ID)
			if logg != nil {
				ctx = logg.WithOperatorID(ctx, operatorID)
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, verifier session.AccessSessionChecker, token string) (*pkgAuth.AccessTokenClaims, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	switch {
	case errors.Is(err, pkgAuth.ErrTokenExpired):
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "session expired")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	case claims.ID == "":
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if verifier == nil {
		return claims, nil
	}
	live, err := verifier.HasSession(ctx, claims.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	}
	if !live {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session ended")
	}
	return claims, nil
}

// bearerToken reads the Authorization header. GET requests may fall back to
// the access_token query parameter.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		if r.Method != http.MethodGet {
			return ""
		}
		return strings.TrimSpace(r.URL.Query().Get(accessTokenQueryParam))
	}
	scheme, token, found := strings.Cut(header, " ")
	if found && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	return header
}
