package http

import (
	"context"
	"net"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	rateLimitMessage   = "Too many requests. Please wait a moment and try again."
	sentryFlushTimeout = 2 * time.Second
)

func (s *Server) requestIDMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		reqID := uuid.NewString()
		goCtx := context.WithValue(ctx.Context(), requestIDContextKey, reqID)
		if req, _ := humago.Unwrap(ctx); req != nil {
			goCtx = context.WithValue(goCtx, requestPathContextKey, req.URL.Path)
		}
		ctx = huma.WithContext(ctx, goCtx)
		ctx.SetHeader("X-Request-ID", reqID)

		if hub := sentry.GetHubFromContext(goCtx); hub != nil {
			hub.Scope().SetTag("request_id", reqID)
		}

		next(ctx)
	}
}

func (s *Server) rateLimitMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if s.rateLimiter == nil {
			next(ctx)
			return
		}

		req, _ := humago.Unwrap(ctx)
		if req == nil {
			next(ctx)
			return
		}

		ip := clientIPFromRequest(req)
		if s.rateLimiter.Allow(ip) {
			next(ctx)
			return
		}

		fields := requestFields(ctx, req)
		fields["ip"] = ip
		if s.logger != nil {
			s.logger.WithError(eris.New("rate limit exceeded")).WithFields(fields).Warn("request rate limited")
		}

		resp, renderErr := s.renderErrorResponse(ctx.Context(), nil, stdhttp.StatusTooManyRequests, rateLimitMessage)
		if renderErr != nil && s.logger != nil {
			s.logger.WithError(renderErr).WithFields(fields).Error("rendering rate limit response failed")
		}

		ctx.SetHeader("Retry-After", "1")
		if resp != nil && resp.ContentType != "" {
			ctx.SetHeader("Content-Type", resp.ContentType)
		}
		ctx.SetStatus(stdhttp.StatusTooManyRequests)

		if resp != nil && len(resp.Body) > 0 {
			_, _ = ctx.BodyWriter().Write(resp.Body)
		}
	}
}

func (s *Server) loggingMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if s.logger == nil {
			next(ctx)
			return
		}

		start := time.Now()
		next(ctx)

		status := ctx.Status()
		if status == 0 {
			status = stdhttp.StatusOK
		}

		req, _ := humago.Unwrap(ctx)
		fields := requestFields(ctx, req)
		fields["method"] = ctx.Method()
		fields["status"] = status
		fields["duration_ms"] = float64(time.Since(start).Microseconds()) / 1000
		if op := ctx.Operation(); op != nil {
			fields["route"] = op.Path
		}
		if req != nil {
			fields["remote_addr"] = req.RemoteAddr
		}

		entry := s.logger.WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("request failed")
		case status == stdhttp.StatusNotFound:
			entry.Debug("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

// recoveryMiddleware turns a panicking handler into a plain 500 and reports
// it with the request's log fields.
func (s *Server) recoveryMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			err, ok := rec.(error)
			if !ok {
				err = eris.Errorf("panic: %v", rec)
			}

			req, _ := humago.Unwrap(ctx)
			fields := requestFields(ctx, req)
			fields["method"] = ctx.Method()
			s.recordError(ctx.Context(), eris.Wrap(err, "handler panicked"), "panic recovered", fields)

			ctx.SetHeader("Content-Type", "text/plain; charset=utf-8")
			ctx.SetStatus(stdhttp.StatusInternalServerError)
			_, _ = ctx.BodyWriter().Write([]byte("internal server error"))
		}()

		next(ctx)
	}
}

// sentryMiddleware gives each request its own hub carrying the route and the
// request itself, so captured errors arrive with their context.
func (s *Server) sentryMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if s.sentry == nil {
			next(ctx)
			return
		}

		hub := s.sentry.Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("http.method", ctx.Method())
			if op := ctx.Operation(); op != nil {
				scope.SetTag("http.route", op.Path)
			}
			if req, _ := humago.Unwrap(ctx); req != nil {
				scope.SetRequest(req)
			}
		})

		ctx = huma.WithContext(ctx, sentry.SetHubOnContext(ctx.Context(), hub))
		defer hub.Flush(sentryFlushTimeout)

		next(ctx)
	}
}

// adminCacheMiddleware keeps admin screens and session responses out of
// shared caches.
func (s *Server) adminCacheMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil && strings.HasPrefix(op.Path, "/admin") {
			ctx.SetHeader("Cache-Control", "no-store")
		}
		next(ctx)
	}
}

func requestFields(ctx huma.Context, req *stdhttp.Request) logrus.Fields {
	fields := logrus.Fields{"component": "http"}
	if req != nil {
		fields["path"] = req.URL.Path
	}
	if requestID := RequestIDFromContext(ctx.Context()); requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func clientIPFromRequest(req *stdhttp.Request) string {
	if req == nil {
		return ""
	}

	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				return candidate
			}
		}
	}

	if realIP := strings.TrimSpace(req.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

