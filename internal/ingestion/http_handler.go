package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/perfwatch/ingest/internal/auth"
	"github.com/perfwatch/ingest/internal/domain"
	"github.com/perfwatch/ingest/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UploadHandler exposes ingestion as a POST endpoint.
type UploadHandler struct {
	service *Service
}

// NewUploadHandler wraps the service with a multipart upload endpoint.
func NewUploadHandler(service *Service) http.Handler {
	return &UploadHandler{service: service}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	source, err := domain.ParseImportSource(strings.TrimSpace(r.FormValue("source")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	module, err := domain.ParseModule(strings.TrimSpace(r.FormValue("module")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	uploadedBy := strings.TrimSpace(r.FormValue("uploadedBy"))
	if uploadedBy == "" {
		// Fall back to the gateway-supplied identity when the form omits it.
		uploadedBy, _ = auth.UploaderFromContext(r.Context())
	}
	if uploadedBy == "" {
		http.Error(w, "uploadedBy is required", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.service.Ingest(r.Context(), Request{
		FileName:   header.Filename,
		Source:     source,
		Module:     module,
		UploadedBy: uploadedBy,
		Data:       bytes.NewReader(data),
	})
	if err != nil {
		// Job level failures (unsupported format, corrupt bytes) are hard
		// errors, distinct from a completed-with-row-errors result.
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// JobsHandler serves the import job query surface: a filtered listing
// and a single job with a bounded sample of its records.
type JobsHandler struct {
	jobRepo    repository.ImportJobRepository
	recordRepo repository.RecordRepository
}

// NewJobsHandler wires the read-only job endpoints.
func NewJobsHandler(jobRepo repository.ImportJobRepository, recordRepo repository.RecordRepository) http.Handler {
	return &JobsHandler{jobRepo: jobRepo, recordRepo: recordRepo}
}

// sampleRecordLimit bounds how many records ride along with one job.
const sampleRecordLimit = 100

func (h *JobsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/imports"), "/")
	if rest == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, rest)
}

func (h *JobsHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := repository.ImportJobFilter{
		UploadedBy: strings.TrimSpace(r.URL.Query().Get("uploadedBy")),
		Limit:      50,
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := domain.ImportStatus(raw)
		filter.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	jobs, err := h.jobRepo.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "failed to list import jobs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

func (h *JobsHandler) get(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid import job id: %v", err), http.StatusBadRequest)
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "import job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch import job", http.StatusInternalServerError)
		return
	}

	records, err := h.recordRepo.ListByImportJob(r.Context(), id, sampleRecordLimit)
	if err != nil {
		http.Error(w, "failed to fetch import records", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		domain.ImportJob
		SampleData []domain.PerformanceRecord `json:"sampleData"`
	}{ImportJob: job, SampleData: records})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
