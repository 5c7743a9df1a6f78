package main

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// MiddlewareFunc is a custom type for ease of use.
type MiddlewareFunc func(httprouter.Handle) httprouter.Handle

// Middlewares is a custom type to represent a stack of
// middleware functions used to build a single chain.
type Middlewares []MiddlewareFunc

// MiddlewaresStacks provides the public-facing and the ops middlewares stacks.
// Ops requests are neither blocked by the maintenance mode nor need a caller identity.
func (api *APIHandler) MiddlewaresStacks() (*Middlewares, *Middlewares) {
	public := &Middlewares{
		api.PanicRecoveryMiddleware,
		api.RequestsCounterMiddleware,
		api.RequestIDMiddleware,
		api.StatsMiddleware,
		CORSMiddleware,
		api.MaintenanceModeMiddleware,
		api.CallerIdentityMiddleware,
		api.CoreMiddleware,
	}
	ops := &Middlewares{
		api.PanicRecoveryMiddleware,
		api.RequestsCounterMiddleware,
		api.RequestIDMiddleware,
		api.StatsMiddleware,
		CORSMiddleware,
		api.CoreMiddleware,
	}
	return public, ops
}

// CoreMiddleware attaches a request scoped logger to the context then
// measures the duration of each request and logs its result.
func (api *APIHandler) CoreMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := api.clock.Now()
		requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
		logger := api.logger.With(
			zap.String("request.id", requestID),
			zap.Uint64("request.num", GetRequestNumberFromContext(r.Context())),
		)
		r = r.WithContext(context.WithValue(r.Context(), LoggerContextKey, logger))

		logger.Info(
			"request",
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.String("request.ip", GetRequestSourceIP(r)),
			zap.String("request.agent", r.UserAgent()),
			zap.String("request.referer", r.Referer()),
		)

		next(w, r, ps)
		logger.Info(
			"response",
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.Duration("request.duration", api.clock.Now().Sub(start)),
		)
	}
}

// RequestsCounterMiddleware increments the number of received requests statistics and add this
// new value to the request context to be used during logging as `request.num` field.
func (api *APIHandler) RequestsCounterMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), RequestNumberContextKey, atomic.AddUint64(&api.stats.called, 1))
		r = r.WithContext(ctx)
		next(w, r, ps)
	}
}

// RequestIDMiddleware reuses a valid incoming request id or generates a new one,
// then adds it to the request context and to the response headers.
func (api *APIHandler) RequestIDMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := r.Header.Get(RequestIDHeader)
		if !api.idsHandler.IsValid(requestID, RequestIDPrefix) {
			requestID = api.idsHandler.Generate(RequestIDPrefix)
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		r = r.WithContext(ctx)
		next(w, r, ps)
	}
}

// CallerIdentityMiddleware saves the caller identity provided by the
// authenticating gateway into the request context.
func (api *APIHandler) CallerIdentityMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		caller := strings.TrimSpace(r.Header.Get(CallerIdentityHeader))
		if caller != "" {
			r = r.WithContext(context.WithValue(r.Context(), CallerContextKey, caller))
		}
		next(w, r, ps)
	}
}

// StatsMiddleware wraps the response writer to count responses per status code.
func (api *APIHandler) StatsMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		cw := NewCustomResponseWriter(w, GetConnFromContext(r.Context()))
		next(cw, r, ps)
		api.stats.mu.Lock()
		api.stats.status[cw.Status()]++
		api.stats.mu.Unlock()
	}
}

// MaintenanceModeMiddleware answers every request with the maintenance
// message while the maintenance mode is enabled.
func (api *APIHandler) MaintenanceModeMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if api.mode.enabled.Load() {
			api.Maintenance(w, r, httprouter.Params{{Key: "status", Value: "show"}})
			return
		}
		next(w, r, ps)
	}
}

// CORSMiddleware intercepts each incoming HTTP calls then apply cors headers on it.
func CORSMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, User-Agent, X-Request-ID, X-Caller-Identity")
		next(w, r, ps)
	}
}

// PanicRecoveryMiddleware catches any panic during the request lifecycle and produces
// an error log for further analysis. It sends a failure response to the client with 500.
func (api *APIHandler) PanicRecoveryMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
				api.logger.Error("panic occurred", zap.String("request.id", requestID), zap.Any("error", err), zap.Stack("stack"))
				errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to process the request.", EmptyData)
				if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
					api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
				}
			}
		}()
		next(w, r, ps)
	}
}

// TimeoutHandler wraps the router with the default http timeout handler.
func (api *APIHandler) TimeoutHandler(h http.Handler) http.Handler {
	timeout := api.config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return http.TimeoutHandler(h, timeout, "Timeout. Processing taking too long. Please reach out to support.")
}

// Chain wraps a given httprouter.Handle with a list of middlewares.
// It does by starting from the last middleware from the list.
func (m *Middlewares) Chain(h httprouter.Handle) httprouter.Handle {
	if len(*m) == 0 {
		return h
	}
	lg := len(*m)
	handle := (*m)[lg-1](h)

	for i := lg - 2; i >= 0; i-- {
		handle = (*m)[i](handle)
	}

	return handle
}
