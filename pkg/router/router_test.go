package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchWildcardRoute(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		want    bool
	}{
		{"/api/v1/jobs/abc", "/api/v1/jobs/*", true},
		{"/api/v1/jobs/abc/files", "/api/v1/jobs/*", true},
		{"/api/v1/jobs", "/api/v1/jobs/*", false},
		{"/api/v1/jobs/abc/files", "/api/v1/jobs/*/files", true},
		{"/api/v1/jobs/abc/errors", "/api/v1/jobs/*/files", false},
		{"/api/v1/download/abc/out.csv", "/api/v1/download/*/*", true},
		{"/api/v1/download/abc", "/api/v1/download/*/*", false},
		{"/other/abc", "/api/v1/jobs/*", false},
	}

	for _, tt := range tests {
		t.Run(tt.path+"~"+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, matchWildcardRoute(tt.path, tt.pattern))
		})
	}
}

func respond(body string) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func serve(r *Router, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouterDispatch(t *testing.T) {
	r := New()
	r.GET("/api/v1/jobs", respond("list"))
	r.POST("/api/v1/jobs", respond("create"))
	r.GET("/api/v1/jobs/*/files", respond("files"))
	r.GET("/api/v1/jobs/*", respond("job"))

	assert.Equal(t, "list", serve(r, http.MethodGet, "/api/v1/jobs").Body.String())
	assert.Equal(t, "create", serve(r, http.MethodPost, "/api/v1/jobs").Body.String())
	assert.Equal(t, "job", serve(r, http.MethodGet, "/api/v1/jobs/abc").Body.String())

	// registration order decides between overlapping wildcards
	for i := 0; i < 10; i++ {
		assert.Equal(t, "files", serve(r, http.MethodGet, "/api/v1/jobs/abc/files").Body.String())
	}
}

func TestRouterErrors(t *testing.T) {
	r := New()
	r.GET("/health", respond("ok"))
	r.GET("/api/v1/jobs/*", respond("job"))

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/nope").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodPost, "/health").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodDelete, "/api/v1/jobs/abc").Code)
}

func TestRouterHeadFallsBackToGet(t *testing.T) {
	r := New()
	r.GET("/health", respond("ok"))
	r.GET("/api/v1/download/*/*", respond("file"))
	r.POST("/api/v1/jobs", respond("create"))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodHead, "/health").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodHead, "/api/v1/download/job-1/out.xlsx").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodHead, "/api/v1/jobs").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodHead, "/nope").Code)
}

func TestLoggingResponseWriterCapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	lrw := &loggingResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	lrw.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusTeapot, lrw.statusCode)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
