package auth

import "context"

// Principal is the request-scoped identity derived from a verified token.
// It lives only in the request context and is never persisted.
type Principal struct {
	Username    string
	Authorities []string
}

// HasAuthority reports whether the principal carries the given capability.
func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the authenticated principal set by the gate.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
