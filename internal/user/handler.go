package user

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"

	"user-portal/internal/httpx"
)

const (
	maxJSONBodyBytes   = 1 << 20
	maxUploadSizeBytes = 10 << 20
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body registerRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		httpx.WriteStatus(w, http.StatusBadRequest, "invalid json body")
		return
	}

	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)
	if body.Username == "" || body.Email == "" {
		httpx.WriteStatus(w, http.StatusBadRequest, "username and email are required")
		return
	}

	created, err := h.service.Register(r.Context(), body.FirstName, body.LastName, body.Username, body.Email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, created)
}

func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	input, ok := h.userFormInput(w, r)
	if !ok {
		return
	}

	created, err := h.service.AddUser(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, created)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	input, ok := h.userFormInput(w, r)
	if !ok {
		return
	}

	currentUsername := strings.TrimSpace(r.FormValue("currentUsername"))
	if currentUsername == "" {
		httpx.WriteStatus(w, http.StatusBadRequest, "currentUsername is required")
		return
	}

	updated, err := h.service.UpdateUser(r.Context(), currentUsername, UpdateUserInput(input))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	u, err := h.service.FindByUsername(r.Context(), username)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PathValue("email"))
	if email == "" {
		httpx.WriteStatus(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.service.ResetPassword(r.Context(), email); err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.WriteStatus(w, http.StatusOK, "email sent to "+email)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.WriteStatus(w, http.StatusOK, "user deleted successfully")
}

func (h *Handler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSizeBytes); err != nil {
		httpx.WriteStatus(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	if username == "" {
		httpx.WriteStatus(w, http.StatusBadRequest, "username is required")
		return
	}

	data, ok := h.imageFile(w, r, true)
	if !ok {
		return
	}

	updated, err := h.service.UpdateProfileImage(r.Context(), username, data)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) userFormInput(w http.ResponseWriter, r *http.Request) (AddUserInput, bool) {
	if err := r.ParseMultipartForm(maxUploadSizeBytes); err != nil {
		httpx.WriteStatus(w, http.StatusBadRequest, "invalid multipart form")
		return AddUserInput{}, false
	}

	role, err := ParseRole(strings.TrimSpace(r.FormValue("role")))
	if err != nil {
		httpx.WriteStatus(w, http.StatusBadRequest, "unknown role")
		return AddUserInput{}, false
	}

	input := AddUserInput{
		FirstName: strings.TrimSpace(r.FormValue("firstName")),
		LastName:  strings.TrimSpace(r.FormValue("lastName")),
		Username:  strings.TrimSpace(r.FormValue("username")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Role:      role,
		Active:    parseBool(r.FormValue("active"), true),
		Locked:    parseBool(r.FormValue("locked"), false),
	}
	if input.Username == "" || input.Email == "" {
		httpx.WriteStatus(w, http.StatusBadRequest, "username and email are required")
		return AddUserInput{}, false
	}

	data, ok := h.imageFile(w, r, false)
	if !ok {
		return AddUserInput{}, false
	}
	input.ProfileImage = data

	return input, true
}

// imageFile reads the optional profileImage part and validates it is an
// image within the size cap.
func (h *Handler) imageFile(w http.ResponseWriter, r *http.Request, required bool) ([]byte, bool) {
	file, _, err := r.FormFile("profileImage")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && !required {
			return nil, true
		}
		httpx.WriteStatus(w, http.StatusBadRequest, "profileImage file is required")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
	if err != nil {
		httpx.WriteStatus(w, http.StatusBadRequest, "failed to read profile image")
		return nil, false
	}
	if len(data) == 0 {
		httpx.WriteStatus(w, http.StatusBadRequest, "profile image is empty")
		return nil, false
	}
	if len(data) > maxUploadSizeBytes {
		httpx.WriteStatus(w, http.StatusBadRequest, "profile image is too large")
		return nil, false
	}
	if !strings.HasPrefix(strings.ToLower(http.DetectContentType(data)), "image/") {
		httpx.WriteStatus(w, http.StatusBadRequest, "profile image must be an image file")
		return nil, false
	}

	return data, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.WriteStatus(w, http.StatusBadRequest, "no user found by username")
	case errors.Is(err, ErrEmailNotFound):
		httpx.WriteStatus(w, http.StatusBadRequest, "no user found for email")
	case errors.Is(err, ErrUsernameExists):
		httpx.WriteStatus(w, http.StatusBadRequest, "username already exists")
	case errors.Is(err, ErrEmailExists):
		httpx.WriteStatus(w, http.StatusBadRequest, "email already exists")
	default:
		sentry.CaptureException(err)
		httpx.WriteStatus(w, http.StatusInternalServerError, "an error occurred while processing the request")
	}
}

func parseBool(value string, fallback bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}
