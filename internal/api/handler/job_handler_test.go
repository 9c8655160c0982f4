package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-pivot/internal/model"
	"stock-pivot/internal/pipeline"
	"stock-pivot/internal/store"
	"stock-pivot/pkg/router"
)

type testServer struct {
	handler *JobHandler
	router  *router.Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "pivot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := NewJobHandler(st, &pipeline.Runner{Store: st}, filepath.Join(dir, "out"), filepath.Join(dir, "uploads"))
	h.Format = pipeline.FormatCSV

	r := router.New()
	r.POST("/api/v1/jobs", h.CreateJob)
	r.GET("/api/v1/jobs", h.ListJobs)
	r.GET("/api/v1/jobs/*/files", h.GetJobFiles)
	r.GET("/api/v1/jobs/*", h.GetJob)
	r.GET("/api/v1/download/*/*", h.Download)
	r.GET("/health", h.Health)

	return &testServer{handler: h, router: r}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.Handler().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, target string, files map[string]string, order ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const (
	movingCSV  = "Product,Description,UPC,Size,Store,Qty\nCola,Can,0001,12oz,101,3\nCola,Can,0001,12oz,200X,1\n"
	missingCSV = "Product,Description,UPC,Size,Qty\nCola,Can,0001,12oz,3\n"
)

func createJob(t *testing.T, s *testServer) CreateJobResponse {
	t.Helper()
	req := uploadRequest(t, "/api/v1/jobs",
		map[string]string{"moving.csv": movingCSV, "missing.csv": missingCSV},
		"moving.csv", "missing.csv")
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CreateJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateJob(t *testing.T) {
	s := newTestServer(t)
	resp := createJob(t, s)

	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, model.JobCompleted, resp.Status)
	require.Len(t, resp.Files, 2)

	moving := resp.Files[0]
	assert.Equal(t, "moving.csv", moving.File)
	assert.Equal(t, model.FileSucceeded, moving.Status)
	require.NotNil(t, moving.Verdict)
	assert.Equal(t, model.MovementDetected, moving.Verdict.Status)
	assert.True(t, strings.HasPrefix(moving.DownloadURL, "/api/v1/download/"+resp.JobID+"/moving_extracted_"))

	missing := resp.Files[1]
	assert.Equal(t, model.FileSkipped, missing.Status)
	assert.Empty(t, missing.DownloadURL)
}

func TestCreateJobWithoutFiles(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(uploadRequest(t, "/api/v1/jobs", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader("{}")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJobInvalidFormat(t *testing.T) {
	s := newTestServer(t)
	req := uploadRequest(t, "/api/v1/jobs?format=pdf", map[string]string{"a.csv": movingCSV}, "a.csv")

	rec := s.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJobAndFiles(t *testing.T) {
	s := newTestServer(t)
	resp := createJob(t, s)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+resp.JobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var job model.JobDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, model.JobCompleted, job.Status)
	assert.Len(t, job.Files, 2)
	assert.Len(t, job.Spec.Sources, 2)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+resp.JobID+"/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var files []FileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 2)
	assert.Equal(t, resp.Files[0].DownloadURL, files[0].DownloadURL)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []model.JobSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, resp.JobID, jobs[0].ID)
}

func TestGetJobNotFound(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nope", nil)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nope/files", nil)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/a/b/c", nil)).Code)
}

func TestDownload(t *testing.T) {
	s := newTestServer(t)
	resp := createJob(t, s)

	rec := s.do(httptest.NewRequest(http.MethodGet, resp.Files[0].DownloadURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "moving_extracted_")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Product,Description,UPC,Size,101,200X,Grand Total\n"))
	assert.Contains(t, rec.Body.String(), "Grand Sum,,,,3,1,4")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/download/"+resp.JobID+"/nothing.csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadHead(t *testing.T) {
	s := newTestServer(t)
	resp := createJob(t, s)

	rec := s.do(httptest.NewRequest(http.MethodHead, resp.Files[0].DownloadURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Content-Length"))
	assert.Empty(t, rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPathParams(t *testing.T) {
	p, ok := pathParams("/api/v1/download/job/out.csv", "/api/v1/download/", "", 2)
	require.True(t, ok)
	assert.Equal(t, []string{"job", "out.csv"}, p)

	_, ok = pathParams("/api/v1/jobs//files", "/api/v1/jobs/", "/files", 1)
	assert.False(t, ok)
	_, ok = pathParams("/api/v1/jobs/x/y", "/api/v1/jobs/", "", 1)
	assert.False(t, ok)
}
