package main

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Maintenance handles request to enable or disable the maintenance mode of the service and respond
// to client requests with predefined message when the service is in maintenance mode.
// Enable the maintenance mode : /ops/maintenance?status=enable&msg=message-to-be-displayed-to-users
// Disable the maintenance mode: /ops/maintenance?status=disable
func (api *APIHandler) Maintenance(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	var response map[string]interface{}

	q := r.URL.Query()
	mstatus := "show"
	if ps.ByName("status") != mstatus {
		mstatus = q.Get("status")
	}

	switch mstatus {
	case "enable":
		msg, started := q.Get("msg"), api.clock.Now().UTC()
		api.mode.mu.Lock()
		api.mode.message = msg
		api.mode.started = started
		api.mode.mu.Unlock()
		api.mode.enabled.Store(true)
		response = map[string]interface{}{
			"requestid":           requestID,
			"maintenance.started": started.Format(time.RFC1123),
			"maintenance.message": msg,
			"message":             "Maintenance mode enabled successfully.",
		}

	case "disable":
		api.mode.enabled.Store(false)
		api.mode.mu.Lock()
		api.mode.started = time.Time{}
		api.mode.message = ""
		api.mode.mu.Unlock()
		response = map[string]interface{}{
			"requestid": requestID,
			"message":   "Maintenance mode disabled successfully.",
		}

	case "show":
		api.mode.mu.RLock()
		response = map[string]interface{}{
			"message": "service currently unvailable.",
			"reason":  api.mode.message,
			"since":   api.mode.started.Format(time.RFC1123),
		}
		api.mode.mu.RUnlock()
		w.WriteHeader(http.StatusServiceUnavailable)

	default:
		response = map[string]interface{}{
			"requestid": requestID,
			"message":   "unknown maintenance status. use enable or disable.",
		}
		w.WriteHeader(http.StatusBadRequest)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed to send maintenance response",
			zap.String("request.maintenance", mstatus),
			zap.Error(err),
		)
	}
}

// export goroutines to be used by expvar handler.
var goroutines = expvar.NewInt("goroutines")

// GetMemStats returns memory statistics with number of goroutines in json.
func GetMemStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	goroutines.Set(int64(runtime.NumGoroutine()))
	expvar.Handler().ServeHTTP(w, r)
}

// RunGC forces the run of the garbage collector asynchronously.
func (api *APIHandler) RunGC(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go runtime.GC()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(map[string]string{"called": "go runtime.GC()"}); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send run gc response", zap.Error(err))
	}
}

// FreeOSMemory forces the garbage collector to and tries to returns the memory
// back to the operating system in an asynchronous fashion.
func (api *APIHandler) FreeOSMemory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go debug.FreeOSMemory()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(map[string]string{"called": "go debug.FreeOSMemory()"}); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send free os memory response", zap.Error(err))
	}
}

// GetStatistics provides useful details about the application to the internal ops users.
// The stats returns by this handler do not contain the ops request which triggered that.
// That is why we remove 1 from the called field value in order to match the status stats.
func (api *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	count := 0
	if api.bookService != nil {
		count, _ = api.bookService.Count(r.Context())
	}

	called := atomic.LoadUint64(&api.stats.called)
	if called > 0 {
		called--
	}

	api.mode.mu.RLock()
	maintenanceModeStartedTime := ""
	if !api.mode.started.IsZero() {
		maintenanceModeStartedTime = api.mode.started.String()
	}
	maintenance := map[string]interface{}{
		"enabled": api.mode.enabled.Load(),
		"started": maintenanceModeStartedTime,
		"message": api.mode.message,
	}
	api.mode.mu.RUnlock()

	api.stats.mu.RLock()
	err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"requestid":     requestID,
			"app.version":   api.stats.version,
			"app.container": api.stats.container,
			"app.platform":  api.stats.platform,
			"go.version":    api.stats.runtime,
			"called":        called,
			"started":       api.stats.started.Format(time.RFC1123),
			"uptime":        fmt.Sprintf("%.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			"catalog.count": count,
			"maintenance":   maintenance,
			"status":        api.stats.status,
		},
	)
	api.stats.mu.RUnlock()
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send statistics response", zap.Error(err))
	}
}

// GetConfigs serves current in-use configurations/settings.
func (api *APIHandler) GetConfigs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	cfg := *api.config
	cfg.Redis.Password = ""
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"configs": cfg}); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send settings response", zap.Error(err))
	}
}

func (api *APIHandler) OpsHandlerWrapper(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}

func (api *APIHandler) GetCPUProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Profile(w, r)
}

func (api *APIHandler) GetTraceProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Trace(w, r)
}

func (api *APIHandler) GetSymbol(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Symbol(w, r)
}

func (api *APIHandler) GetCmdLine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Cmdline(w, r)
}
