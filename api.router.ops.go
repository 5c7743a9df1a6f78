package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/julienschmidt/httprouter"
)

// runtimeProfiles are the named pprof profiles served as is.
var runtimeProfiles = []string{"heap", "allocs", "goroutine", "block", "mutex"}

// SetupOpsRoutes registers the operator endpoints under /ops. Profiling
// routes exist only when ProfilerEndpointsEnable is set.
func (api *APIHandler) SetupOpsRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/ops/configs", m.ops(api.GetConfigs))
	router.GET("/ops/stats", m.ops(api.GetStatistics))
	router.GET("/ops/maintenance", m.ops(api.Maintenance))
	router.GET("/ops/debug/vars", m.ops(GetMemStats))
	router.GET("/ops/debug/gc", m.ops(api.RunGC))
	router.GET("/ops/debug/fos", m.ops(api.FreeOSMemory))

	if !api.config.ProfilerEndpointsEnable {
		return router
	}

	router.GET("/ops/debug/pprof/", m.ops(api.OpsHandlerWrapper(http.HandlerFunc(pprof.Index))))
	router.GET("/ops/debug/pprof/profile", m.ops(api.GetCPUProfile))
	router.GET("/ops/debug/pprof/trace", m.ops(api.GetTraceProfile))
	router.GET("/ops/debug/pprof/symbol", m.ops(api.GetSymbol))
	router.GET("/ops/debug/pprof/cmdline", m.ops(api.GetCmdLine))
	for _, name := range runtimeProfiles {
		router.GET("/ops/debug/pprof/"+name, m.ops(api.OpsHandlerWrapper(pprof.Handler(name))))
	}
	return router
}
