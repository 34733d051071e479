package http

import (
	"context"
	"net/http"

	"github.com/apper-canvas/market-mosaic-media/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderSessionID = "X-Session-ID"
	HeaderUserID    = "X-User-ID"
	HeaderRequestID = "X-Request-ID"
)

type ctxKey int

const identityKey ctxKey = iota

// identity is who a request acts for.
type identity struct {
	sessionID string
	owner     string
}

// RequestIDMiddleware echoes the chi request id and attaches it, with a
// request scoped logger, to the context. It must run after
// middleware.RequestID.
func RequestIDMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = logger.WithContext(ctx, log)
			w.Header().Set(HeaderRequestID, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionMiddleware resolves the visitor session from X-Session-ID,
// generating one when absent, and the owner from X-User-ID. The session id
// is always echoed back.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(HeaderSessionID)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		owner := r.Header.Get(HeaderUserID)
		if owner == "" {
			owner = sessionID
		}

		w.Header().Set(HeaderSessionID, sessionID)
		ctx := context.WithValue(r.Context(), identityKey, identity{sessionID: sessionID, owner: owner})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// MaxBodySize caps request bodies at n bytes.
func MaxBodySize(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identityFromContext(ctx context.Context) (identity, bool) {
	id, ok := ctx.Value(identityKey).(identity)
	return id, ok
}
