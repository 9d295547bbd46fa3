package api

import (
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/accounts"
	"github.com/rpupo63/consulting-site-backend/errs"
)

// TokenVerifier turns a bearer token into the caller it was issued to.
type TokenVerifier interface {
	Verify(raw string) (accounts.Principal, error)
}

type authMiddleware struct {
	responder Responder
	tokens    TokenVerifier
}

func newAuthMiddleware(tokens TokenVerifier) authMiddleware {
	logger := log.With().Str("handlerName", "authMiddleware").Logger()
	return authMiddleware{
		responder: NewResponder(logger),
		tokens:    tokens,
	}
}

// authenticate rejects requests without a valid bearer token.
func (m authMiddleware) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.tokens.Verify(bearerToken(r))
		if err != nil {
			m.reject(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxWithPrincipal(r.Context(), principal)))
	})
}

// optionalAuth attaches the caller when a token is sent and lets anonymous
// requests through. A token that is sent but invalid is still rejected.
func (m authMiddleware) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.tokens.Verify(raw)
		if err != nil {
			m.reject(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxWithPrincipal(r.Context(), principal)))
	})
}

// reject answers a failed token check with a bearer challenge (RFC 6750).
func (m authMiddleware) reject(w http.ResponseWriter, err error) {
	switch {
	case errs.IsExpiredTokenError(err):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="token expired"`)
	case errs.IsInvalidTokenError(err):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
	case errs.IsMissingTokenError(err):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	m.responder.WriteError(w, err)
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

// requirePrincipal is used by handlers behind authenticate.
func requirePrincipal(r *http.Request) (accounts.Principal, error) {
	p := principalFrom(r.Context())
	if p == nil {
		return accounts.Principal{}, errs.NewMissingTokenError()
	}
	return *p, nil
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func LogInternalServerErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")

				if !srw.wroteHeader {
					srw.WriteHeader(http.StatusInternalServerError)
				}
			}
		}()

		next.ServeHTTP(srw, r)

		if srw.status == http.StatusInternalServerError {
			log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("500 error response")
		}
	})
}

// CORSCheckMiddleware answers preflight requests from unknown origins with a
// JSON error instead of a bare response without CORS headers.
func CORSCheckMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := false
			for _, allowedOrigin := range allowedOrigins {
				if allowedOrigin == "*" || allowedOrigin == origin {
					allowed = true
					break
				}
			}

			if !allowed && r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				responder := NewResponder(log.Logger)
				responder.WriteError(w, errs.NewCORSError(origin))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HTTPLoggingMiddleware logs every request at a level chosen by its status.
// With colored set the console writer is used, otherwise the global logger.
func HTTPLoggingMiddleware(colored bool) func(http.Handler) http.Handler {
	logger := log.Logger
	if colored {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			srw := &statusResponseWriter{ResponseWriter: w, status: 200}

			next.ServeHTTP(srw, r)

			var logEvent *zerolog.Event
			switch {
			case srw.status >= 500:
				logEvent = logger.Error()
			case srw.status >= 400:
				logEvent = logger.Warn()
			default:
				logEvent = logger.Info()
			}

			logEvent.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", srw.status).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("HTTP Request")
		})
	}
}

// require runs after authenticate and lets the request through only when
// check accepts the caller.
func (m authMiddleware) require(check func(accounts.Principal) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := requirePrincipal(r)
			if err == nil {
				err = check(principal)
			}
			if err != nil {
				m.responder.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
