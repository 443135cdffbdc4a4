package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/http/respond"
	"github.com/ad2m/missions/internal/mission"
)

// ActorLoader resolves the subject of a verified token.
type ActorLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*actor.Actor, error)
}

// Middleware authenticates the bearer token of every request and stores the
// actor in the request context. Unknown or deactivated actors are rejected.
func (t *Tokens) Middleware(actors ActorLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				respond.Error(w, r, mission.ErrUnauthenticated)
				return
			}

			id, err := t.Parse(raw)
			if err != nil {
				slog.Debug("rejected token", "error", err)
				respond.Error(w, r, mission.ErrUnauthenticated)

				return
			}

			a, err := actors.Get(r.Context(), id)
			if err != nil {
				if errors.Is(err, actor.ErrNotFound) {
					respond.Error(w, r, mission.ErrUnauthenticated)
					return
				}

				respond.Error(w, r, err)

				return
			}

			if !a.Active {
				respond.Error(w, r, &mission.Error{Kind: mission.KindUnauthenticated, Message: "account is disabled"})
				return
			}

			next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")

	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
