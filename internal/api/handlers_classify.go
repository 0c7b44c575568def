package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/matclass/internal/metrics"
	"github.com/dgallion1/matclass/internal/navigate"
	"github.com/dgallion1/matclass/internal/store"
)

type classifyRequest struct {
	Item  string `json:"descritivo"`
	Model string `json:"model"`
}

// handleClassify streams the classification trace as server-sent events,
// one "data: <event>" frame per event, and stores the finished result.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	item := strings.TrimSpace(req.Item)
	if item == "" {
		jsonError(w, "empty description", http.StatusBadRequest)
		return
	}
	model, ok := s.resolveModel(req.Model)
	if !ok {
		jsonError(w, "unknown model: "+req.Model, http.StatusBadRequest)
		return
	}
	eng := s.deps.Engines(model)
	if eng == nil {
		jsonError(w, "no engine for model: "+model, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	log := s.log.With("model", model)

	var (
		events  []navigate.Event
		buf     bytes.Buffer
		writeOK = true
	)
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	start := time.Now()
	res := eng.Classify(r.Context(), item, func(ev navigate.Event) {
		events = append(events, ev)
		if !writeOK {
			return
		}
		buf.Reset()
		if err := enc.Encode(ev); err != nil {
			log.Error("encode event", "type", ev.Type, "error", err)
			return
		}
		// Encode ends with a newline; the frame needs a blank line after it.
		frame := append([]byte("data: "), buf.Bytes()...)
		frame = append(frame, '\n')
		if _, err := w.Write(frame); err != nil {
			writeOK = false
			return
		}
		_ = rc.Flush()
	})
	elapsed := time.Since(start)

	metrics.ObserveClassification("api", res.Resolved, res.Depth(), res.Stats.Backtracks, elapsed)

	if r.Context().Err() != nil {
		log.Info("client went away", "code", res.Code, "events", len(events))
		return
	}
	s.record(r.Context(), store.NewRecord(item, model, "api", res, events, elapsed))
}

// record persists a classification. It is not tied to the request
// lifetime so a finished result is kept even if the client disconnects.
func (s *Server) record(ctx context.Context, rec store.Record) {
	if s.deps.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.deps.Store.Save(ctx, rec); err != nil {
		s.log.Error("save classification", "code", rec.Code, "error", err)
	}
}
