package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/matclass/internal/describe"
)

// handleDescribeFile turns an uploaded document or image into description
// text that the client can then classify.
func (s *Server) handleDescribeFile(w http.ResponseWriter, r *http.Request) {
	if s.deps.Describer == nil {
		jsonError(w, "file description unavailable", http.StatusServiceUnavailable)
		return
	}

	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	model, ok := s.resolveModel(r.FormValue("model"))
	if !ok {
		jsonError(w, "unknown model: "+r.FormValue("model"), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	filename := sanitizeFilename(header.Filename)
	res, err := s.deps.Describer.Describe(r.Context(), filename, header.Header.Get("Content-Type"), data, model)
	switch {
	case errors.Is(err, describe.ErrUnsupported):
		jsonError(w, "unsupported file type: "+err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, describe.ErrEmpty):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		s.log.Error("describe file", "filename", filename, "error", err)
		jsonError(w, "failed to describe file: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
