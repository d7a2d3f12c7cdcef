package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"user-portal/internal/httpx"
)

const (
	maxJSONBodyBytes = 1 << 20

	badCredentialsMessage  = "username/password incorrect. please try again"
	accountLockedMessage   = "your account has been locked. please contact administration"
	accountDisabledMessage = "your account has been disabled. please contact administration"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates the posted credentials. The profile goes in the body;
// the session token travels in the Jwt-Token response header.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		httpx.WriteStatus(w, http.StatusBadRequest, "invalid json body")
		return
	}

	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" || body.Password == "" {
		httpx.WriteStatus(w, http.StatusBadRequest, badCredentialsMessage)
		return
	}

	profile, token, err := h.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrBadCredentials):
			httpx.WriteStatus(w, http.StatusBadRequest, badCredentialsMessage)
		case errors.Is(err, ErrAccountLocked):
			httpx.WriteStatus(w, http.StatusUnauthorized, accountLockedMessage)
		case errors.Is(err, ErrAccountDisabled):
			httpx.WriteStatus(w, http.StatusBadRequest, accountDisabledMessage)
		default:
			sentry.CaptureException(err)
			httpx.WriteStatus(w, http.StatusInternalServerError, "failed to login")
		}
		return
	}

	w.Header().Set(TokenHeader, token)
	httpx.WriteJSON(w, http.StatusOK, profile)
}
