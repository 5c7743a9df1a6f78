package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSetupBookRoutes ensures all expected book endpoints are implemented.
func TestSetupBookRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"index endpoint",
			httptest.NewRequest(http.MethodGet, "/", nil),
			true,
		},
		{
			"status endpoint",
			httptest.NewRequest(http.MethodGet, "/status", nil),
			true,
		},
		{
			"append book endpoint",
			httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader("{}")),
			true,
		},
		{
			"fetch all books endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/books", nil),
			true,
		},
		{
			"fetch all books endpoint with slash",
			httptest.NewRequest(http.MethodGet, "/v1/books/", nil),
			true,
		},
		{
			"fetch single book endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/books/0", nil),
			true,
		},
		{
			"fetch book ratings endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/books/0/ratings", nil),
			true,
		},
		{
			"count books endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/catalog/count", nil),
			true,
		},
		{
			"update book endpoint",
			httptest.NewRequest(http.MethodPut, "/v1/books/0", nil),
			false,
		},
		{
			"delete book endpoint",
			httptest.NewRequest(http.MethodDelete, "/v1/books/0", nil),
			false,
		},
		{
			"invalid api endpoint",
			httptest.NewRequest(http.MethodGet, "/v1", nil),
			false,
		},
		{
			"invalid books endpoint",
			httptest.NewRequest(http.MethodGet, "/books", nil),
			false,
		},
	}

	storage, _ := NewMemoryBookStorage()
	api := newTestAPIHandler(storage)
	// a stored book lets the single book endpoints answer with their own status.
	_, err := api.bookService.Add(context.Background(), "alice", validBookInput())
	require.NoError(t, err)
	router := httprouter.New()
	router.HandleMethodNotAllowed = false
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupBookRoutes(router, m)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
				assert.NotContains(t, w.Body.String(), "route does not exist")
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupOpsRoutes ensures all expected operations endpoints are implemented.
func TestSetupOpsRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"fetch configs endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			true,
		},
		{
			"fetch stats endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/stats", nil),
			true,
		},
		{
			"maintenance mode endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/maintenance?status=disable", nil),
			true,
		},
		{
			"memory stats endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/debug/vars", nil),
			true,
		},
		{
			"invalid ops endpoint",
			httptest.NewRequest(http.MethodGet, "/ops", nil),
			false,
		},
		{
			"unknown ops endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/unknown", nil),
			false,
		},
		{
			"disabled profiler endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil),
			false,
		},
	}

	api := newTestAPIHandler(nil)
	api.config.ProfilerEndpointsEnable = false
	router := httprouter.New()
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupOpsRoutes(router, m)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupOpsRoutes_Profiler ensures each runtime profile gets its route once enabled.
func TestSetupOpsRoutes_Profiler(t *testing.T) {
	api := newTestAPIHandler(nil)
	api.config.ProfilerEndpointsEnable = true
	router := httprouter.New()
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupOpsRoutes(router, m)

	for _, name := range runtimeProfiles {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/"+name, nil))
			assert.NotEqual(t, 404, w.Code)
		})
	}
}

// TestSetupRoutes ensures ops endpoints are only exposed when enabled.
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name               string
		OpsEndpointsEnable bool
		request            *http.Request
		implemented        bool
	}{
		{
			"ops disable:fetch configs endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			false,
		},
		{
			"ops enable:fetch configs endpoint",
			true,
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			true,
		},
		{
			"ops disable:count books endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/v1/catalog/count", nil),
			true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPIHandler(nil)
			api.config.OpsEndpointsEnable = tc.OpsEndpointsEnable
			m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
			router := api.SetupRoutes(httprouter.New(), m)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestFullStackAppend ensures an append travels through the public
// middlewares and becomes readable.
func TestFullStackAppend(t *testing.T) {
	storage, saved := NewMemoryBookStorage()
	api := newTestAPIHandler(storage)
	api.idsHandler = NewIDsHandler()
	public, ops := api.MiddlewaresStacks()
	router := api.SetupRoutes(httprouter.New(), &MiddlewareMap{public: public.Chain, ops: ops.Chain})

	body := `{"isbn":"123-4564-54-4","name":"Test","description":"Description test","numpage":123,` +
		`"author":"juan perez","datepublished":"marzo 2099","editions":1}`

	req := httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get(RequestIDHeader), "r:"))

	req = httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(body))
	req.Header.Set(CallerIdentityHeader, "alice")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, *saved, 1)
	assert.Equal(t, "alice", (*saved)[0].Owner)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/books/0", nil))
	m := decodeResponse(t, w, http.StatusOK)
	assert.Equal(t, "Test", m["data"].(map[string]interface{})["name"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/books/1", nil))
	decodeResponse(t, w, http.StatusNotFound)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/books/-1", nil))
	decodeResponse(t, w, http.StatusBadRequest)

	assert.Equal(t, uint64(5), api.stats.called)
	assert.Equal(t, uint64(1), api.stats.status[http.StatusCreated])
}

// TestSetupRoutes_NotFound ensures exact status code and json response body when a user requests an inexistant route.
func TestSetupRoutes_NotFound(t *testing.T) {
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api := newTestAPIHandler(nil)
	router := api.SetupRoutes(httprouter.New(), m)
	r := httptest.NewRequest(http.MethodGet, "/x/books/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	expected := `{"requestid":"r:abc", "message":"route does not exist", "path":"GET /x/books/"}`
	assert.JSONEq(t, expected, string(data))
}
