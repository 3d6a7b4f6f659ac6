// Package handlers implements the chat page and its JSON/SSE API.
package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/docgpt/internal/api"
	"github.com/cloo-solutions/docgpt/internal/api/middleware"
	"github.com/cloo-solutions/docgpt/internal/service"
)

// ChatPipeline is the slice of service.Pipeline the handlers drive.
type ChatPipeline interface {
	Ingest(ctx context.Context, session *service.Session, name string, data []byte) (*service.IngestResult, error)
	Ask(ctx context.Context, session *service.Session, question string, sink service.Sink) (string, error)
	Remove(session *service.Session)
}

// requireSession returns the request's session or writes a 500.
func requireSession(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		api.Error(w, http.StatusInternalServerError, "session middleware not configured")
		return nil, false
	}
	return session, true
}
