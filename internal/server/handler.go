package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/diogo/llamavoice/internal/api"
	"github.com/diogo/llamavoice/internal/models"
)

// maxRequestBody bounds the chat request body.
const maxRequestBody = 1 << 20

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// handleChat streams the provider reply as plain text. Errors before the
// first byte are reported as JSON; later errors truncate the stream.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req api.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeJSONError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	for _, m := range req.Messages {
		if !m.Role.Valid() {
			writeJSONError(w, http.StatusBadRequest, "invalid role: "+string(m.Role))
			return
		}
	}

	messages := req.Messages
	if s.systemPrompt != "" {
		messages = append([]models.Message{{Role: models.RoleSystem, Content: s.systemPrompt}}, messages...)
	}

	flusher, _ := w.(http.Flusher)
	started := false
	written := 0

	err := s.provider.Stream(r.Context(), messages, func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		n, err := w.Write([]byte(chunk))
		written += n
		if err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	switch {
	case err != nil && !started:
		log.Error().Err(err).Str("request_id", reqID).Str("provider", s.provider.Name()).Msg("chat failed")
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	case err != nil:
		log.Warn().Err(err).Str("request_id", reqID).Int("bytes", written).Msg("chat stream interrupted")
	case !started:
		// Empty reply: still a successful plain-text response.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	default:
		log.Debug().Str("request_id", reqID).Int("bytes", written).Msg("chat complete")
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
