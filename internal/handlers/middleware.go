package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/types"
)

// TokenCookie is the cookie login stores the session token in.
const TokenCookie = "token"

type contextKey string

const contextPrincipalKey contextKey = "principal"

// Principal is the authenticated caller.
type Principal struct {
	ID    int
	Email string
	Role  types.AccountType
}

func principalFromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(contextPrincipalKey).(Principal)
	if !ok || p.ID < 1 {
		return Principal{}, errors.New("missing principal")
	}
	return p, nil
}

// RequireAuth verifies the session token from the token cookie or the
// Authorization header and injects the caller into the request context.
func RequireAuth(tokens *services.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := sessionToken(r)
			if err != nil {
				writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
				return
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil {
				writeFailure(w, http.StatusUnauthorized, "Token is invalid", nil)
				return
			}

			p := Principal{ID: claims.ID, Email: claims.Email, Role: claims.AccountType}
			ctx := context.WithValue(r.Context(), contextPrincipalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose account type differs from role. It must
// run after RequireAuth.
func RequireRole(role types.AccountType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := principalFromContext(r.Context())
			if err != nil {
				writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
				return
			}
			if p.Role != role {
				writeFailure(w, http.StatusForbidden, "This is a protected route for "+string(role)+"s", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionToken(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(TokenCookie); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token, nil
		}
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

// RequestLogger logs one line per request with zap.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"latency", time.Since(start),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
