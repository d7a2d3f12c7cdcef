package media

import (
	"errors"
	"net/http"
	"os"

	"user-portal/internal/httpx"
)

// Handler serves stored profile images on the public image path.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	fileName := r.PathValue("fileName")

	data, err := h.store.Load(username, fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			httpx.WriteStatus(w, http.StatusNotFound, "image not found")
			return
		}
		httpx.WriteStatus(w, http.StatusInternalServerError, "error occurred while processing file")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
