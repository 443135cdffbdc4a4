package actor

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("actor not found")

// Actor is a person known to the directory: a requester, an approver, or both.
type Actor struct {
	ID        uuid.UUID
	Matricule string
	Name      string
	Email     string
	Roles     []Role
	ReportsTo *uuid.UUID
	Active    bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Has reports whether the actor holds the given role.
func (a *Actor) Has(r Role) bool {
	return slices.Contains(a.Roles, r)
}

// HasAny reports whether the actor holds at least one of the given roles.
func (a *Actor) HasAny(roles ...Role) bool {
	return slices.ContainsFunc(roles, a.Has)
}

func (a *Actor) IsAdmin() bool {
	return a.Has(RoleAdmin)
}

// IsDecisionMaker is true for every role that takes part in the approval chain.
func (a *Actor) IsDecisionMaker() bool {
	return a.HasAny(RoleAdmin, RoleChief, RoleFinance, RoleCoordinator, RolePaymentAgent)
}

// IsPlainRequester is true for actors who may only see and act on their own missions.
func (a *Actor) IsPlainRequester() bool {
	return !a.IsDecisionMaker()
}

// IsRestrictedChief is a hierarchical chief whose visibility is limited to the
// missions they own, are assigned to, or already approved.
func (a *Actor) IsRestrictedChief() bool {
	return a.Has(RoleChief) && !a.IsAdmin()
}

// SkipsChiefStep is true when the actor's own missions bypass hierarchical approval.
func (a *Actor) SkipsChiefStep() bool {
	return a.HasAny(RoleChief, RoleCoordinator, RoleFinance, RolePaymentAgent)
}

// NeedsChief is true for missionnaires, who must report to a hierarchical chief.
func (a *Actor) NeedsChief() bool {
	return a.IsPlainRequester() && a.Has(RoleRequester)
}

type ctxKey struct{}

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the authenticated actor, or nil when the request is anonymous.
func FromContext(ctx context.Context) *Actor {
	a, _ := ctx.Value(ctxKey{}).(*Actor)
	return a
}
