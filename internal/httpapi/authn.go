package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"bountyhub.org/internal/auth"
	"bountyhub.org/internal/bounty"
	"bountyhub.org/internal/ids"
)

const (
	authHeader   = "Authorization"
	bearerScheme = "Bearer "
)

// withAuth resolves the bearer token into a trusted actor and attaches it to
// the request context. The actor record is re-loaded from storage on every
// request so a token outlives its user by at most one lookup.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r.Header.Get(authHeader))
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "No token provided, authorization denied")
			return
		}

		claims, err := auth.ParseAndValidate(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}
		// The subject must name a user; any other entity kind in a signed
		// token is rejected without a storage lookup.
		if ids.Kind(claims.Subject) != ids.PrefixUser {
			writeError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		actor, err := a.svc.GetUser(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, bounty.ErrNotFound) {
				writeError(w, r, http.StatusUnauthorized, "User not found")
				return
			}
			respondServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(bounty.ContextWithActor(r.Context(), actor)))
	})
}

// requireRole rejects actors whose role is outside the allow-list. It runs
// before any resource is loaded, so a mismatched role never learns whether
// the target exists.
func requireRole(roles ...bounty.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := bounty.ActorFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "No token provided, authorization denied")
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, http.StatusForbidden, "You do not have permission to perform this action")
		})
	}
}

// actor returns the authenticated user placed in context by withAuth.
func actor(r *http.Request) (*bounty.User, bool) {
	return bounty.ActorFromContext(r.Context())
}

func extractBearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(header, bearerScheme) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerScheme):])
	return token, token != ""
}
