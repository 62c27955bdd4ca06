package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
)

type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// Guard authenticates bearer tokens and applies the access policy.
type Guard struct {
	tokens TokenParser
}

func NewGuard(tokens TokenParser) *Guard {
	return &Guard{tokens: tokens}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", auth.ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's principal in the request context.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("Middleware: missing or malformed Authorization header")
			respondWithError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		claims, err := g.tokens.Parse(raw)
		if err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("Middleware: token rejected")
			respondWithError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		principal := auth.Principal{UserID: claims.UserID, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

// Require authenticates the request and then checks op against the policy.
func (g *Guard) Require(op auth.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authorize := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := auth.PrincipalFrom(r.Context())
			if auth.Authorize(principal.Role, op) != auth.Allow {
				log.Warn().
					Stringer("user_id", principal.UserID).
					Stringer("role", principal.Role).
					Stringer("operation", op).
					Msg("Middleware: access denied")
				respondWithError(w, http.StatusForbidden, "Not authorized for this action")
				return
			}
			next.ServeHTTP(w, r)
		})
		return g.Authenticate(authorize)
	}
}

func principalFrom(r *http.Request) auth.Principal {
	principal, _ := auth.PrincipalFrom(r.Context())
	return principal
}

// RequestLogger writes one access log line per request, leveled by status class.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		event := log.Info()
		message := "Request completed successfully"
		switch {
		case status >= 500:
			event = log.Error()
			message = "Request completed with server error"
		case status >= 400:
			event = log.Warn()
			message = "Request completed with client error"
		}

		event.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_ip", r.RemoteAddr).
			Int("status_code", status).
			Int("bytes", ww.BytesWritten()).
			Dur("latency", time.Since(startTime)).
			Msg(message)
	})
}
