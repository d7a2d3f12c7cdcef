package auth

import (
	"net/http"
	"strings"

	"user-portal/internal/httpx"
	"user-portal/internal/observability"
)

const (
	unauthenticatedMessage = "you need to log in to access this resource"
	forbiddenMessage       = "you do not have enough permission"
)

// Gate authenticates incoming requests. Paths on the public allow list pass
// through untouched; everything else must carry a verifiable bearer token,
// which becomes a Principal in the request context. The outward 401 body is
// deliberately constant; the concrete failure reason is only logged.
type Gate struct {
	tokens      *TokenProvider
	publicPaths []string
	logger      *observability.Logger
}

func NewGate(tokens *TokenProvider, publicPaths []string, logger *observability.Logger) *Gate {
	return &Gate{
		tokens:      tokens,
		publicPaths: publicPaths,
		logger:      logger,
	}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || g.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := bearerToken(r)
		if !ok {
			g.reject(w, r, "missing bearer token")
			return
		}

		claims, err := g.tokens.Verify(raw)
		if err != nil {
			// A bad signature is a security event, not client noise.
			if err == ErrTokenInvalid {
				g.logger.Warn("token_rejected", map[string]any{
					"path":   r.URL.Path,
					"reason": "invalid signature or malformed token",
					"ip":     observability.ClientIP(r),
				})
			}
			g.reject(w, r, err.Error())
			return
		}

		principal := Principal{
			Username:    claims.Subject,
			Authorities: claims.Authorities,
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
	})
}

// Require wraps a route handler with a capability check against the
// principal the gate attached. It denies with 403 when the authority is
// missing and with 401 when no principal is present at all (a route wired
// outside the gate's middleware).
func (g *Gate) Require(authority string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFrom(r.Context())
		if !ok {
			g.reject(w, r, "no principal in context")
			return
		}
		if !principal.HasAuthority(authority) {
			httpx.WriteStatus(w, http.StatusForbidden, forbiddenMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Gate) isPublic(path string) bool {
	for _, public := range g.publicPaths {
		if strings.HasSuffix(public, "/") {
			if strings.HasPrefix(path, public) {
				return true
			}
			continue
		}
		if path == public {
			return true
		}
	}
	return false
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, reason string) {
	g.logger.Info("request_unauthenticated", map[string]any{
		"path":   r.URL.Path,
		"reason": reason,
	})
	httpx.WriteStatus(w, http.StatusUnauthorized, unauthenticatedMessage)
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
