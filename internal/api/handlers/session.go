package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/docgpt/internal/api"
	"github.com/cloo-solutions/docgpt/internal/domain"
)

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

type SelectModelRequest struct {
	Model string `json:"model"`
}

type MessagesResponse struct {
	State    string               `json:"state"`
	Messages []domain.ChatMessage `json:"messages"`
}

// Get returns the session snapshot.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	api.Success(w, http.StatusOK, session.Snapshot())
}

// Messages replays the chat log. Replaying never appends to it.
func (h *SessionHandler) Messages(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	history := session.History()
	api.Success(w, http.StatusOK, MessagesResponse{
		State:    session.State().String(),
		Messages: history,
	})
}

// SelectModel switches the model used for the next answers.
func (h *SessionHandler) SelectModel(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req SelectModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opt, err := session.SelectModel(req.Model)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, opt)
}
