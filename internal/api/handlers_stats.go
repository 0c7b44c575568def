package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": s.cfg.LLMProvider,
		"model":    s.cfg.DefaultModel,
		"stats":    s.deps.Stats.Snapshot(),
	})
}
