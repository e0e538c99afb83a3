package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/api/response"
	"github.com/edvin/hostpanel/internal/core"
	"github.com/edvin/hostpanel/internal/model"
)

type contextKey string

const identityKey contextKey = "identity"

// SessionCookie carries the session token for browser clients.
const SessionCookie = "panel_session"

// Identity is the authenticated caller of a request. Exactly one of
// SessionToken and APIKey is set.
type Identity struct {
	User         *model.User
	SessionToken string
	APIKey       *model.ApiKey
}

func (i *Identity) Actor() core.Actor {
	return core.ActorFor(i.User)
}

// GetIdentity returns the caller, or nil for anonymous requests.
func GetIdentity(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// SessionAuthenticator resolves session tokens; satisfied by
// *core.AuthService.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// KeyAuthenticator resolves raw API keys; satisfied by *core.APIKeyService.
type KeyAuthenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.User, *model.ApiKey, error)
}

// Authenticate resolves the caller from an X-API-Key header, a Bearer
// token or the session cookie, in that order. An invalid API key is
// rejected outright; an unknown or expired session leaves the request
// anonymous so that public routes such as logout keep working.
func Authenticate(sessions SessionAuthenticator, keys KeyAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.Header.Get("X-API-Key"); raw != "" {
				user, key, err := keys.Authenticate(r.Context(), raw)
				if err != nil {
					response.WriteServiceError(w, r, err)
					return
				}
				if !core.KeyAllows(key, r.Method) {
					response.WriteError(w, http.StatusForbidden, "API key does not permit "+r.Method+" requests")
					return
				}
				serveAs(next, w, r, &Identity{User: user, APIKey: key})
				return
			}

			token := SessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := sessions.Authenticate(r.Context(), token)
			if err != nil {
				if core.KindOf(err) != core.KindUnauthorized {
					response.WriteServiceError(w, r, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			serveAs(next, w, r, &Identity{User: user, SessionToken: token})
		})
	}
}

func serveAs(next http.Handler, w http.ResponseWriter, r *http.Request, id *Identity) {
	zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Int64("user_id", id.User.ID)
	})
	next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
}

// SessionToken extracts a session token from the Authorization header or
// the session cookie.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r.Context()) == nil {
			response.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers without the admin role. It implies
// RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r.Context())
		if id == nil {
			response.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !id.User.IsAdmin() {
			response.WriteError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
