package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/cloo-solutions/docgpt/internal/api"
	"github.com/cloo-solutions/docgpt/internal/domain"
)

type ChatHandler struct {
	pipeline ChatPipeline
}

func NewChatHandler(pipeline ChatPipeline) *ChatHandler {
	return &ChatHandler{pipeline: pipeline}
}

type ChatRequest struct {
	Message string `json:"message"`
}

// Chat answers a question as a server-sent event stream with the events
// start, token, end and error. Failures before the first event are plain
// JSON errors.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sink := &sseSink{w: w, flusher: flusher}
	partial, err := h.pipeline.Ask(r.Context(), session, req.Message, sink)
	if err == nil {
		return
	}

	log.Printf("chat failed for session %s: %v", session.ID(), err)
	if !sink.started {
		api.HandleError(w, err)
		return
	}
	sink.send("error", map[string]any{
		"error":   err.Error(),
		"code":    domain.Code(err),
		"partial": partial,
	})
}

// sseSink writes streaming callbacks as server-sent events.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseSink) OnStart() {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
	s.send("start", map[string]any{})
}

func (s *sseSink) OnToken(token string) {
	s.send("token", map[string]any{"token": token})
}

func (s *sseSink) OnEnd(full string) {
	s.send("end", map[string]any{"message": full})
}

func (s *sseSink) send(event string, data map[string]any) {
	payload, _ := json.Marshal(data)
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload)
	s.flusher.Flush()
}
