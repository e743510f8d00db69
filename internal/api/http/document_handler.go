package http

import (
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/storage"
)

// DocumentHandler serves the signed download links of the local
// document store.
type DocumentHandler struct {
	store *storage.LocalStore
	now   func() time.Time
}

func NewDocumentHandler(store *storage.LocalStore) *DocumentHandler {
	return &DocumentHandler{store: store, now: time.Now}
}

// HandleDownload streams a document after checking its link signature.
func (h *DocumentHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	key := r.URL.Query().Get("key")
	expires := r.URL.Query().Get("expires")
	if key == "" || expires == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}
	if !h.store.VerifyDownload(key, token, expires, h.now()) {
		http.Error(w, "Link is invalid or expired", http.StatusForbidden)
		return
	}

	file, err := h.store.Open(r.Context(), key)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	contentType := "application/octet-stream"
	if filepath.Ext(key) == ".pdf" {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")

	if _, err := io.Copy(w, file); err != nil {
		logger.Warn("Failed to stream document", "key", key, "error", err)
	}
}
