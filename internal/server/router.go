package server

import (
	"net/http"

	"github.com/cloo-solutions/docgpt/internal/api"
	"github.com/cloo-solutions/docgpt/internal/api/handlers"
	"github.com/cloo-solutions/docgpt/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	Sessions        middleware.SessionStore
	SecureCookies   bool
	MaxUploadBytes  int64
	PageHandler     *handlers.PageHandler
	SessionHandler  *handlers.SessionHandler
	DocumentHandler *handlers.DocumentHandler
	ChatHandler     *handlers.ChatHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	var maxBodyBytes int64
	if cfg.MaxUploadBytes > 0 {
		maxBodyBytes = cfg.MaxUploadBytes + handlers.MultipartSlack
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Sessions(cfg.Sessions, cfg.SecureCookies))

		r.Get("/", cfg.PageHandler.Index)

		r.Route("/api", func(r chi.Router) {
			r.Get("/session", cfg.SessionHandler.Get)
			r.Get("/messages", cfg.SessionHandler.Messages)
			r.Put("/model", cfg.SessionHandler.SelectModel)

			r.Post("/document", cfg.DocumentHandler.Upload)
			r.Delete("/document", cfg.DocumentHandler.Remove)

			r.Post("/chat", cfg.ChatHandler.Chat)
		})
	})

	return r
}
