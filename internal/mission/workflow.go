package mission

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ad2m/missions/internal/actor"
)

// Payload carries the optional inputs of a transition.
type Payload struct {
	// Note is the rejection reason or the reconciliation note.
	Note string

	// TotalJustified is the amount covered by receipts, used by reconcile_documents.
	TotalJustified *decimal.Decimal

	// Payment is required by record_payment.
	Payment *PaymentParams
}

type PaymentParams struct {
	Amount        decimal.Decimal
	OperationDate time.Time
	Reference     string
}

// rule describes who may fire an action and from which statuses.
type rule struct {
	roles    []actor.Role
	owner    bool // the requester may act
	assignee bool // the chief assigned to the mission may act
	from     []Status
	step     func(ctx context.Context, t *transition) error
}

var rules = map[Action]rule{
	ActionSubmit: {
		owner: true,
		from:  []Status{StatusDraft},
		step:  submit,
	},
	ActionApproveChief: {
		roles:    []actor.Role{actor.RoleAdmin},
		assignee: true,
		from:     []Status{StatusPendingChief},
		step:     approveChief,
	},
	ActionApproveFinance: {
		roles: []actor.Role{actor.RoleFinance},
		from:  []Status{StatusValidatedChief},
		step:  approveFinance,
	},
	ActionApproveCoordinator: {
		roles: []actor.Role{actor.RoleCoordinator},
		from:  []Status{StatusValidatedFinance},
		step:  approveCoordinator,
	},
	ActionRecordPayment: {
		roles: []actor.Role{actor.RolePaymentAgent},
		from:  []Status{StatusValidatedCoordinator},
		step:  recordPayment,
	},
	ActionConfirmPayment: {
		roles: []actor.Role{actor.RolePaymentAgent},
		from:  []Status{StatusValidatedCoordinator},
		step:  confirmPayment,
	},
	ActionBegin: {
		owner: true,
		from:  []Status{StatusAdvancePaid},
		step:  begin,
	},
	ActionReconcileDocuments: {
		roles: []actor.Role{actor.RolePaymentAgent},
		from:  []Status{StatusAdvancePaid, StatusInProgress},
		step:  reconcileDocuments,
	},
	ActionClose: {
		roles: []actor.Role{actor.RolePaymentAgent},
		from:  []Status{StatusInProgress},
		step:  closeMission,
	},
	ActionReject: {
		roles: []actor.Role{actor.RoleChief, actor.RoleFinance, actor.RoleCoordinator, actor.RoleAdmin},
		from:  []Status{StatusPendingChief, StatusValidatedChief, StatusValidatedFinance, StatusValidatedCoordinator},
		step:  reject,
	},
}

func (r rule) permits(a *actor.Actor, m *Mission) bool {
	if r.owner && m.RequesterID == a.ID {
		return true
	}

	if r.assignee && a.Has(actor.RoleChief) && sameID(m.AssignedApproverID, a.ID) {
		return true
	}

	return a.HasAny(r.roles...)
}

func (r rule) accepts(s Status) bool {
	return slices.Contains(r.from, s)
}

// authorize checks the acting role first and the current status second.
func authorize(action Action, a *actor.Actor, m *Mission) (rule, error) {
	r, ok := rules[action]
	if !ok {
		return rule{}, errorf(KindValidation, "unknown action %q", action)
	}

	if !r.permits(a, m) {
		return rule{}, errorf(KindForbidden, "you are not allowed to %s this mission", action)
	}

	if !r.accepts(m.Status) {
		return rule{}, errorf(KindInvalidState, "cannot %s a mission in status %s", action, m.Status)
	}

	return r, nil
}

// Allowed reports whether a may apply action to m in its current status.
func Allowed(action Action, a *actor.Actor, m *Mission) error {
	if a == nil {
		return ErrUnauthenticated
	}

	_, err := authorize(action, a, m)

	return err
}

// AvailableActions lists what a can do on m right now, ignoring payload preconditions.
// Callers are expected to have checked visibility already.
func AvailableActions(a *actor.Actor, m *Mission) []Action {
	if a == nil || m == nil {
		return nil
	}

	var out []Action

	for _, action := range Actions {
		r := rules[action]
		if !r.permits(a, m) || !r.accepts(m.Status) {
			continue
		}

		if action == ActionReconcileDocuments && m.DocumentsReconciled {
			continue
		}

		out = append(out, action)
	}

	return out
}

// transition is the working state of one action being applied inside a database transaction.
type transition struct {
	actor   *actor.Actor
	mission *Mission
	payload Payload
	now     time.Time
	tx      Tx
	actors  ActorProvider

	// advance is set when the step produced a ledger record.
	advance *Advance
}

func (t *transition) actorID() *uuid.UUID {
	id := t.actor.ID
	return &id
}

func submit(ctx context.Context, t *transition) error {
	m := t.mission

	if t.actor.SkipsChiefStep() {
		m.ChiefApproverID = t.actorID()
		m.Status = StatusValidatedChief

		return nil
	}

	chief, err := t.actors.ReportsTo(ctx, m.RequesterID)
	if err != nil {
		return fmt.Errorf("resolving hierarchical chief: %w", err)
	}

	if chief == nil {
		return errorf(KindPrecondition, "no hierarchical chief is assigned to the requester")
	}

	m.AssignedApproverID = chief
	m.Status = StatusPendingChief

	return nil
}

func approveChief(_ context.Context, t *transition) error {
	t.mission.ChiefApproverID = t.actorID()
	t.mission.Status = StatusValidatedChief

	return nil
}

// approveFinance skips the coordinator step when the requester is a coordinator.
func approveFinance(ctx context.Context, t *transition) error {
	m := t.mission

	roles, err := t.actors.RolesOf(ctx, m.RequesterID)
	if err != nil {
		return fmt.Errorf("loading requester roles: %w", err)
	}

	m.FinanceApproverID = t.actorID()
	m.Status = StatusValidatedFinance

	if slices.Contains(roles, actor.RoleCoordinator) {
		m.Status = StatusValidatedCoordinator
	}

	return nil
}

func approveCoordinator(_ context.Context, t *transition) error {
	t.mission.CoordinatorApproverID = t.actorID()
	t.mission.Status = StatusValidatedCoordinator

	return nil
}

func recordPayment(ctx context.Context, t *transition) error {
	m := t.mission
	p := t.payload.Payment

	if p == nil {
		return errorf(KindValidation, "payment amount and operation date are required")
	}

	if err := validatePayment(p); err != nil {
		return err
	}

	if m.RequestedAdvance != nil && p.Amount.GreaterThan(*m.RequestedAdvance) {
		return errorf(KindPrecondition, "amount %s exceeds the requested advance %s",
			p.Amount.StringFixed(2), m.RequestedAdvance.StringFixed(2))
	}

	existing, err := t.tx.FindAdvance(ctx, m.ID, OperationPayment)
	if err != nil {
		return fmt.Errorf("checking existing payment: %w", err)
	}

	if existing != nil {
		return errorf(KindPrecondition, "a payment advance is already recorded for this mission")
	}

	t.advance = &Advance{
		MissionID:        m.ID,
		Amount:           p.Amount,
		Kind:             OperationPayment,
		OperationDate:    p.OperationDate,
		PaymentReference: p.Reference,
		RecordedByID:     t.actor.ID,
	}

	return nil
}

func confirmPayment(ctx context.Context, t *transition) error {
	m := t.mission

	existing, err := t.tx.FindAdvance(ctx, m.ID, OperationPayment)
	if err != nil {
		return fmt.Errorf("checking existing payment: %w", err)
	}

	if existing == nil {
		return errorf(KindPrecondition, "record the advance payment before confirming it")
	}

	m.Status = StatusAdvancePaid

	return nil
}

func begin(_ context.Context, t *transition) error {
	t.mission.Status = StatusInProgress
	return nil
}

// reconcileDocuments marks receipts as checked. When a justified total is
// given, the unspent part of the paid advance becomes the amount to reimburse.
func reconcileDocuments(ctx context.Context, t *transition) error {
	m := t.mission

	if m.DocumentsReconciled {
		return errorf(KindInvalidState, "documents are already reconciled")
	}

	if tj := t.payload.TotalJustified; tj != nil {
		if tj.IsNegative() {
			return errorf(KindValidation, "total justified must not be negative")
		}

		paid, err := t.tx.FindAdvance(ctx, m.ID, OperationPayment)
		if err != nil {
			return fmt.Errorf("loading paid advance: %w", err)
		}

		justified := tj.Round(2)
		m.TotalJustified = &justified

		if paid != nil {
			due := decimal.Max(paid.Amount.Sub(justified), decimal.Zero)
			m.AmountToReimburse = &due
		}
	}

	now := t.now
	m.DocumentsReconciled = true
	m.ReconciledAt = &now
	m.ReconciliationNote = t.payload.Note

	return nil
}

func closeMission(_ context.Context, t *transition) error {
	if !t.mission.DocumentsReconciled {
		return errorf(KindPrecondition, "documents must be reconciled before closing")
	}

	now := t.now
	t.mission.ClosedAt = &now
	t.mission.Status = StatusClosed

	return nil
}

// reject returns the mission to draft and forgets the approval that led to the rejected step.
func reject(_ context.Context, t *transition) error {
	m := t.mission

	switch m.Status {
	case StatusPendingChief:
		m.ChiefApproverID = nil
	case StatusValidatedChief:
		m.FinanceApproverID = nil
	case StatusValidatedFinance:
		m.CoordinatorApproverID = nil
	}

	m.Status = StatusDraft

	return nil
}

func sameID(id *uuid.UUID, other uuid.UUID) bool {
	return id != nil && *id == other
}
