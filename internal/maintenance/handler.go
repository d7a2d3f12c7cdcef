package maintenance

import (
	"net/http"
	"strings"

	"user-portal/internal/auth"
	"user-portal/internal/httpx"
	"user-portal/internal/observability"
)

// CleanupHandler prunes expired login-attempt counters on demand. It is
// meant to be hit by a scheduler and is disabled unless a cron secret is
// configured.
type CleanupHandler struct {
	tracker    *auth.AttemptTracker
	logger     *observability.Logger
	cronSecret string
}

func NewCleanupHandler(tracker *auth.AttemptTracker, logger *observability.Logger, cronSecret string) *CleanupHandler {
	return &CleanupHandler{
		tracker:    tracker,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		httpx.WriteStatus(w, http.StatusNotFound, "not found")
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		httpx.WriteStatus(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	pruned := h.tracker.PruneExpired()
	remaining := h.tracker.Len()

	h.logger.Info("attempt_cache_pruned", map[string]any{
		"pruned":    pruned,
		"remaining": remaining,
	})

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"pruned":    pruned,
		"remaining": remaining,
	})
}
