package mission

import (
	"github.com/ad2m/missions/internal/actor"
)

// canView reports whether a may see m. A restricted chief gets NotFound so that
// the mission's existence is not revealed; a plain requester gets Forbidden.
func canView(a *actor.Actor, m *Mission) error {
	switch {
	case a.IsRestrictedChief():
		if m.RequesterID == a.ID || sameID(m.AssignedApproverID, a.ID) || sameID(m.ChiefApproverID, a.ID) {
			return nil
		}

		return ErrNotFound
	case a.IsPlainRequester():
		if m.RequesterID != a.ID {
			return errorf(KindForbidden, "you can only access your own missions")
		}
	}

	return nil
}

// canViewLedger limits ledger access to payment agents, admins and the requester.
func canViewLedger(a *actor.Actor, m *Mission) error {
	if a.HasAny(actor.RolePaymentAgent, actor.RoleAdmin) || m.RequesterID == a.ID {
		return nil
	}

	return errorf(KindForbidden, "you are not allowed to view this mission's ledger")
}

// scopeFor narrows a listing to the missions a may see.
func scopeFor(a *actor.Actor, mine bool) ListFilter {
	var f ListFilter

	id := a.ID

	switch {
	case mine || a.IsPlainRequester():
		f.RequesterID = &id
	case a.IsRestrictedChief():
		f.ParticipantID = &id
	}

	return f
}

// Visible is the in-memory counterpart of the filter built by scopeFor.
func (f ListFilter) Visible(m *Mission) bool {
	if f.RequesterID != nil && m.RequesterID != *f.RequesterID {
		return false
	}

	if f.ParticipantID != nil {
		id := *f.ParticipantID
		if m.RequesterID != id && !sameID(m.AssignedApproverID, id) && !sameID(m.ChiefApproverID, id) {
			return false
		}
	}

	if f.Status != nil && m.Status != *f.Status {
		return false
	}

	return true
}
