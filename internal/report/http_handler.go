package report

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/perfwatch/ingest/internal/repository"
)

// Handler serves the officer ranking endpoints: a JSON leaderboard and
// a CSV download of the same listing.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the reporting service.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/export") {
		h.handleDownload(w, r, filter)
		return
	}
	h.handleLeaderboard(w, r, filter)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request, filter repository.OfficerFilter) {
	officers, err := h.service.Leaderboard(r.Context(), filter)
	if err != nil {
		http.Error(w, "failed to list officers", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(officers)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request, filter repository.OfficerFilter) {
	filename := fmt.Sprintf("officers-%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.service.WriteCSV(r.Context(), w, filter); err != nil {
		// Headers are already written; a truncated body is all the client
		// sees. Log the cause server side.
		log.Printf("[REPORT] failed to stream officer export: %v", err)
	}
}

func filterFromQuery(r *http.Request) (repository.OfficerFilter, error) {
	filter := repository.OfficerFilter{
		Department: strings.TrimSpace(r.URL.Query().Get("department")),
		District:   strings.TrimSpace(r.URL.Query().Get("district")),
		Limit:      50,
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return repository.OfficerFilter{}, fmt.Errorf("limit must be a positive integer")
		}
		filter.Limit = limit
	}

	return filter, nil
}
