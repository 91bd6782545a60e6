package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"tunecase/internal/access"
	"tunecase/internal/logging"
	"tunecase/internal/store"
)

type principalKey struct{}

// Resolver maps a bearer token to the account it was issued for.
type Resolver interface {
	Resolve(ctx context.Context, token string) (store.User, error)
}

// RequireAuth rejects requests without a live bearer token and stores the
// caller's principal on the request context.
func RequireAuth(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if !errors.Is(err, store.ErrUnauthorized) {
					logging.FromContext(r.Context()).Error().Err(err).Msg("resolve token")
					writeError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}

			ctx := WithPrincipal(r.Context(), access.Principal{UserID: user.ID, Email: user.Email})
			ctx = logging.WithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by RequireAuth.
func PrincipalFrom(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(access.Principal)
	return p, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
