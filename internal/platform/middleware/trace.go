// Copyright (c) 2026 SafHub. All rights reserved.

/*
Package middleware holds the HTTP chain shared by the /auth/v1 and /rest/v1
route groups.

Order matters. [RequestID] must run before [StructuredLogger] so every log
line carries the correlation ID, and [Authenticate] must run before
[RequireAuth] or [RequireRole].
*/
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/safhub/safhub/internal/platform/constants"
	"github.com/safhub/safhub/internal/platform/ctxutil"
)

// RequestID reuses the caller's X-Request-ID or mints a time-ordered one,
// and echoes it on the response.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requestID := request.Header.Get(constants.HeaderXRequestID)
			if requestID == "" {
				requestID = newRequestID()
			}

			writer.Header().Set(constants.HeaderXRequestID, requestID)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithRequestID(request.Context(), requestID)))
		})
	}
}

func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

/*
StructuredLogger stores a request-scoped logger in the context and writes
one "http_request_finished" line per request.

Description: 5xx responses log at Error and 4xx at Warn, so failed sign-ins
stand out without drowning the log. The caller's user_id is added when
[Authenticate] ran further down the chain; it reads the claims from the
request the handler saw, not from the outer one.
*/
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			started := time.Now()
			requestLogger := logger.With(
				slog.String("request_id", ctxutil.RequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", RealIP(request)),
			)

			recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
			identity := &identityProbe{}
			context := withIdentityProbe(ctxutil.WithLogger(request.Context(), requestLogger), identity)

			next.ServeHTTP(recorder, request.WithContext(context))

			attributes := []any{
				slog.Int("status", recorder.status),
				slog.Int64("latency_ms", time.Since(started).Milliseconds()),
				slog.String("user_agent", request.UserAgent()),
			}
			if identity.userID != "" {
				attributes = append(attributes, slog.String("user_id", identity.userID))
			}

			requestLogger.Log(context, levelFor(recorder.status), "http_request_finished", attributes...)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// RealIP returns the client address, preferring X-Real-IP and then the
// first X-Forwarded-For hop over the socket peer.
func RealIP(request *http.Request) string {
	if ip := request.Header.Get(constants.HeaderXRealIP); ip != "" {
		return ip
	}
	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
