package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/cloo-solutions/docgpt/internal/api"
)

// DocumentHandler accepts uploads and detaches documents.
type DocumentHandler struct {
	pipeline  ChatPipeline
	maxUpload int64
}

func NewDocumentHandler(pipeline ChatPipeline, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{pipeline: pipeline, maxUpload: maxUpload}
}

type DocumentResponse struct {
	Name     string `json:"name"`
	SHA256   string `json:"sha256"`
	Size     int    `json:"size"`
	Chunks   int    `json:"chunks"`
	Reused   bool   `json:"reused"`
	Greeting string `json:"greeting"`
	State    string `json:"state"`
}

// MultipartSlack covers multipart framing on top of the upload limit.
const MultipartSlack int64 = 64 * 1024

// ReadyGreeting is shown once a document is indexed. It is not part of the log.
const ReadyGreeting = "I'm ready Ask away!"

// Upload reads the multipart field "file" and indexes it for the session.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+MultipartSlack)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if h.maxUpload > 0 && int64(len(data)) > h.maxUpload {
		api.Error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	result, err := h.pipeline.Ingest(r.Context(), session, header.Filename, data)
	if err != nil {
		log.Printf("upload %q failed: %v", header.Filename, err)
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, DocumentResponse{
		Name:     result.Document.Name,
		SHA256:   result.Document.SHA256,
		Size:     len(result.Document.Content),
		Chunks:   len(result.Chunks),
		Reused:   result.Reused,
		Greeting: ReadyGreeting,
		State:    session.State().String(),
	})
}

// Remove detaches the document and clears the chat log.
func (h *DocumentHandler) Remove(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	h.pipeline.Remove(session)
	w.WriteHeader(http.StatusNoContent)
}
