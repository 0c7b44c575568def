package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/matclass/internal/pipeline"
	"github.com/dgallion1/matclass/internal/tabular"
	"github.com/go-chi/chi/v5"
)

type batchRequest struct {
	Items []pipeline.Item `json:"items"`
	Model string          `json:"model"`
}

// handleBatch queues a batch either from an uploaded sheet (multipart
// "file", optional "model") or from a JSON body.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "batch classification unavailable", http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	var (
		items    []pipeline.Item
		model    string
		filename string
		err      error
	)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		items, model, filename, err = s.batchFromUpload(r)
	} else {
		var req batchRequest
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			err = fmt.Errorf("invalid JSON body: %w", err)
		}
		items, model = cleanItems(req.Items), req.Model
		if err == nil && len(items) == 0 {
			err = pipeline.ErrNoItems
		}
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	model, ok := s.resolveModel(model)
	if !ok {
		jsonError(w, "unknown model: "+model, http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(model, filename, items)
	if err := s.deps.Orchestrator.Submit(job); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrQueueFull) {
			status = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"items":    len(items),
		"model":    model,
		"poll_url": fmt.Sprintf("/api/batch/%s", job.ID),
	})
}

func (s *Server) batchFromUpload(r *http.Request) (items []pipeline.Item, model, filename string, err error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", "", fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", "", fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename = sanitizeFilename(header.Filename)
	if !tabular.IsSupported(filename) {
		return nil, "", "", fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
	items, err = pipeline.ReadItems(io.LimitReader(file, s.cfg.MaxUploadBytes), filename)
	if err != nil {
		return nil, "", "", err
	}
	return items, r.FormValue("model"), filename, nil
}

// cleanItems drops blank descriptions and numbers items without an id.
func cleanItems(in []pipeline.Item) []pipeline.Item {
	out := make([]pipeline.Item, 0, len(in))
	for i, it := range in {
		it.Description = strings.TrimSpace(it.Description)
		if it.Description == "" {
			continue
		}
		if it.ID == "" {
			it.ID = fmt.Sprint(i + 1)
		}
		out = append(out, it)
	}
	return out
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "batch classification unavailable", http.StatusServiceUnavailable)
		return
	}
	job := s.deps.Orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
