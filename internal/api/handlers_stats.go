package api

import "net/http"

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"model":   s.llama.Model(),
		"latency": s.llama.Stats.Snapshot(),
	})
}
