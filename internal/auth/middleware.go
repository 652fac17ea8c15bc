package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rollcall-hq/rollcall/internal/authz"
	"github.com/rollcall-hq/rollcall/internal/shared"
)

type actorContextKey struct{}

// ContextWithActor stores the resolved actor in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the resolved actor from context, nil when the
// request is anonymous.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}

// Middleware wires authorization helpers for HTTP handlers. UI layers are
// pure consumers of the resolver's boolean decisions; no call site re-derives
// them.
type Middleware struct {
	Repo     Repository
	Resolver *authz.Resolver
	Logger   *slog.Logger
}

// LoadActor resolves the session's actor once per request and stores it in
// the request context. Anonymous requests pass through untouched.
func (m Middleware) LoadActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.ActorID() == 0 {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := m.Repo.FindByID(r.Context(), sess.ActorID())
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("load session actor", slog.Int64("actor_id", sess.ActorID()), slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}

// RequireAny ensures the current actor holds at least one of the permissions.
func (m Middleware) RequireAny(perms ...authz.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			actor := ActorFromContext(r.Context())
			if actor == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			info := actor.Info()
			for _, perm := range perms {
				if m.Resolver.IsAllowed(info, perm) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAll ensures the current actor holds every listed permission.
func (m Middleware) RequireAll(perms ...authz.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			info := actor.Info()
			for _, perm := range perms {
				if !m.Resolver.IsAllowed(info, perm) {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
