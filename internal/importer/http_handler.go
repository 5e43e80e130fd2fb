package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/contentpub/importer/internal/auth"
	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/repository"
	"github.com/contentpub/importer/internal/schema"
	"github.com/contentpub/importer/internal/tabular"
)

// Handler exposes the import pipeline over HTTP.
type Handler struct {
	service   *Service
	uploadDir string
}

// NewHTTPHandler wraps the service. Uploads are copied under uploadDir so the
// reader can write idempotency keys back into them.
func NewHTTPHandler(service *Service, uploadDir string) *Handler {
	return &Handler{service: service, uploadDir: uploadDir}
}

// Routes returns the import endpoints mounted on a mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/import", h.handleUpload)
	mux.HandleFunc("/import/calendar", h.handleCalendar)
	mux.HandleFunc("/import/feed", h.handleFeed)
	mux.HandleFunc("/import/template", h.handleTemplate)
	mux.HandleFunc("/import/rollback", h.handleRollback)
	return mux
}

// handleRollback reverses a completed run on demand.
func (h *Handler) handleRollback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}
	runID, err := uuid.Parse(strings.TrimSpace(r.FormValue("runId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid run id: %v", err), http.StatusBadRequest)
		return
	}
	collectionID, err := uuid.Parse(strings.TrimSpace(r.FormValue("collectionId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid collection id: %v", err), http.StatusBadRequest)
		return
	}
	if err := auth.EnforceCollectionScope(r.Context(), collectionID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	result, err := h.service.Rollback(r.Context(), runID, collectionID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRunNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrRunScope):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, ErrRunNotReversible):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	kind := domain.Kind(strings.TrimSpace(r.FormValue("kind")))
	if !kind.Valid() {
		http.Error(w, fmt.Sprintf("unknown kind %q", kind), http.StatusBadRequest)
		return
	}
	collectionID, err := uuid.Parse(strings.TrimSpace(r.FormValue("collectionId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid collection id: %v", err), http.StatusBadRequest)
		return
	}
	if err := auth.EnforceCollectionScope(r.Context(), collectionID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	path, err := h.saveUpload(header.Filename, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := h.service.ImportFile(r.Context(), kind, collectionID, path)
	if err != nil {
		if errors.Is(err, tabular.ErrUnsupportedFormat) || errors.Is(err, ErrNoImporter) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, statusFor(result), result)
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	h.handleStream(w, r, h.service.ImportCalendar)
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	h.handleStream(w, r, h.service.ImportFeed)
}

// handleStream serves the calendar and feed uploads, which import straight
// from the request body without a write-back copy.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request, importFn func(ctx context.Context, collectionID uuid.UUID, name string, src io.Reader) (*Result, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}
	collectionID, err := uuid.Parse(strings.TrimSpace(r.FormValue("collectionId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid collection id: %v", err), http.StatusBadRequest)
		return
	}
	if err := auth.EnforceCollectionScope(r.Context(), collectionID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := importFn(r.Context(), collectionID, header.Filename, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, statusFor(result), result)
}

// handleTemplate serves an empty CSV carrying the kind's expected header.
func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	kind := domain.Kind(strings.TrimSpace(r.URL.Query().Get("kind")))
	columns, err := schema.RequiredColumns(kind)
	if err != nil {
		http.Error(w, fmt.Sprintf("unknown kind %q", kind), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_template.csv", kind))
	writer := csv.NewWriter(w)
	_ = writer.Write(columns)
	writer.Flush()
}

// saveUpload copies the upload into the working directory so the import can
// rewrite it with generated idempotency keys.
func (h *Handler) saveUpload(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to prepare upload dir: %w", err)
	}
	path := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(name)))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return path, nil
}

// statusFor maps a rejected file to 422 so callers can tell validation
// failures from transport errors.
func statusFor(result *Result) int {
	if result.State == domain.RunReject {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
