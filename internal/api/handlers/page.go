package handlers

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/cloo-solutions/docgpt/internal/domain"
)

//go:embed templates/*
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// PageHandler renders the single chat page.
type PageHandler struct {
	maxUpload int64
}

func NewPageHandler(maxUpload int64) *PageHandler {
	return &PageHandler{maxUpload: maxUpload}
}

type pageData struct {
	Title     string
	Accept    string
	Options   []domain.ModelOption
	Selected  string
	Document  string
	Ready     bool
	Greeting  string
	MaxUpload int64
}

// Index renders the page for the caller's session.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	snap := session.Snapshot()
	data := pageData{
		Title:     snap.Title,
		Accept:    strings.Join(domain.SupportedExtensions, ","),
		Options:   snap.Options,
		Selected:  snap.Model.Label,
		Document:  snap.Document,
		Ready:     snap.Document != "",
		Greeting:  ReadyGreeting,
		MaxUpload: h.maxUpload,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("render page: %v", err)
	}
}
