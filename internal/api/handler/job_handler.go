package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"stock-pivot/internal/model"
	"stock-pivot/internal/pipeline"
	"stock-pivot/internal/store"
	"stock-pivot/pkg/utils"
)

// JobHandler serves the pivot job API
type JobHandler struct {
	Store          *store.Store
	Runner         *pipeline.Runner
	Outputs        *utils.OutputManager
	UploadDir      string
	Format         string
	Workers        int
	JobTimeout     time.Duration
	MaxUploadBytes int64

	validate *validator.Validate
}

// NewJobHandler creates a handler; the output manager roots downloads
func NewJobHandler(st *store.Store, runner *pipeline.Runner, outputDir, uploadDir string) *JobHandler {
	return &JobHandler{
		Store:          st,
		Runner:         runner,
		Outputs:        utils.NewOutputManager(outputDir),
		UploadDir:      uploadDir,
		Format:         pipeline.FormatXLSX,
		Workers:        pipeline.DefaultWorkers,
		JobTimeout:     utils.DefaultJobTimeout,
		MaxUploadBytes: 32 << 20,
		validate:       validator.New(),
	}
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
}

// FileResponse is a file outcome plus where to fetch its pivot
type FileResponse struct {
	model.FileOutcome
	DownloadURL string `json:"download_url,omitempty"`
}

// CreateJobResponse is returned once every uploaded file was processed
type CreateJobResponse struct {
	JobID     string         `json:"jobID"`
	Status    string         `json:"status"`
	Files     []FileResponse `json:"files"`
	CreatedAt time.Time      `json:"createdAt"`
}

// CreateJob uploads files and pivots them
// @Summary Upload and pivot files
// @Description Upload one or more CSV/XLSX inventory files. Each file is validated, pivoted, checked for movement and exported; one outcome is returned per file.
// @Tags jobs
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "CSV or XLSX files"
// @Param format query string false "Output format: xlsx, csv or json"
// @Success 200 {object} CreateJobResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /jobs [post]
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, r, http.StatusBadRequest, "At least one file is required")
		return
	}

	jobID := uuid.New().String()

	sources, err := h.saveUploads(jobID, files)
	if err != nil {
		slog.Error("failed to store uploads", slog.String("job_id", jobID), slog.Any("error", err))
		writeError(w, r, http.StatusInternalServerError, "Failed to store uploaded files")
		return
	}

	format := h.Format
	if f := r.URL.Query().Get("format"); f != "" {
		format = strings.ToLower(f)
	}

	job := model.PivotJobSpec{
		Sources:    sources,
		Export:     model.Export{Dir: h.Outputs.BaseOutputDir, Format: format},
		Workers:    model.Workers{Process: h.Workers},
		JobTimeout: h.JobTimeout.String(),
	}
	if err := h.validate.Struct(job); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid job: %v", err))
		return
	}

	if err := h.Store.SaveJob(jobID, job); err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to save job")
		return
	}

	outcomes, err := h.Runner.Run(r.Context(), jobID, job)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("Job %s failed: %v", jobID, err))
		return
	}

	render.JSON(w, r, CreateJobResponse{
		JobID:     jobID,
		Status:    model.JobCompleted,
		Files:     h.fileResponses(jobID, outcomes),
		CreatedAt: time.Now().UTC(),
	})
}

// saveUploads copies every uploaded part into <upload>/<jobID>/
func (h *JobHandler) saveUploads(jobID string, files []*multipart.FileHeader) ([]model.Source, error) {
	dir := filepath.Join(h.UploadDir, jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	sources := make([]model.Source, 0, len(files))
	for i, fh := range files {
		name := filepath.Base(fh.Filename)
		if name == "." || name == string(filepath.Separator) {
			name = fmt.Sprintf("upload_%d", i+1)
		}
		// Prefix with the index so equal names don't overwrite each other
		path := filepath.Join(dir, fmt.Sprintf("%03d_%s", i+1, name))
		if err := copyUpload(fh, path); err != nil {
			return nil, err
		}
		sources = append(sources, model.Source{Name: name, Path: path})
	}
	return sources, nil
}

func copyUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ListJobs retrieves all pivot jobs
// @Summary List jobs
// @Description Get every pivot job with its current status
// @Tags jobs
// @Produce json
// @Success 200 {array} model.JobSummary
// @Failure 500 {object} ErrorResponse
// @Router /jobs [get]
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Store.ListJobs()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}
	render.JSON(w, r, jobs)
}

// GetJob retrieves a specific job
// @Summary Get job
// @Description Retrieve a job with its spec, file outcomes and errors
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} model.JobDetail
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	params, ok := pathParams(r.URL.Path, "/api/v1/jobs/", "", 1)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Not Found")
		return
	}

	job, err := h.Store.GetJob(params[0])
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	render.JSON(w, r, job)
}

// GetJobFiles retrieves the file outcomes of a job
// @Summary Get job files
// @Description Retrieve the per-file outcome (skipped, failed or succeeded with a movement verdict) of a job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {array} FileResponse
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{id}/files [get]
func (h *JobHandler) GetJobFiles(w http.ResponseWriter, r *http.Request) {
	params, ok := pathParams(r.URL.Path, "/api/v1/jobs/", "/files", 1)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Not Found")
		return
	}
	jobID := params[0]

	if _, err := h.Store.GetJob(jobID); err != nil {
		h.storeError(w, r, err)
		return
	}
	outcomes, err := h.Store.GetFileOutcomes(jobID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to retrieve files")
		return
	}
	render.JSON(w, r, h.fileResponses(jobID, outcomes))
}

// Download serves a pivot output file
// @Summary Download output
// @Description Download the pivot table produced for one file of a job
// @Tags jobs
// @Produce octet-stream
// @Param id path string true "Job ID"
// @Param file path string true "Output file name"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /download/{id}/{file} [get]
func (h *JobHandler) Download(w http.ResponseWriter, r *http.Request) {
	params, ok := pathParams(r.URL.Path, "/api/v1/download/", "", 2)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Not Found")
		return
	}

	path, err := h.Outputs.ResolveOutputFile(params[0], params[1])
	if err != nil {
		writeError(w, r, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", h.Outputs.ContentType(path))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// Health reports liveness
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *JobHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *JobHandler) fileResponses(jobID string, outcomes []model.FileOutcome) []FileResponse {
	out := make([]FileResponse, 0, len(outcomes))
	for _, o := range outcomes {
		fr := FileResponse{FileOutcome: o}
		if o.OutputPath != "" {
			fr.DownloadURL = h.Outputs.GetDownloadURL(jobID, o.OutputPath)
		}
		out = append(out, fr)
	}
	return out
}

func (h *JobHandler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrJobNotFound) {
		writeError(w, r, http.StatusNotFound, "Job not found")
		return
	}
	writeError(w, r, http.StatusInternalServerError, "Failed to retrieve job")
}

// pathParams extracts exactly n non-empty segments between prefix and suffix
func pathParams(path, prefix, suffix string, n int) ([]string, bool) {
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return nil, false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	parts := strings.Split(rest, "/")
	if len(parts) != n {
		return nil, false
	}
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return parts, true
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}
