package mission

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the position of a mission in the approval chain.
type Status string

const (
	StatusDraft                Status = "draft"
	StatusPendingChief         Status = "pending_chief"
	StatusValidatedChief       Status = "validated_chief"
	StatusValidatedFinance     Status = "validated_finance"
	StatusValidatedCoordinator Status = "validated_coordinator"
	StatusAdvancePaid          Status = "advance_paid"
	StatusInProgress           Status = "in_progress"
	StatusClosed               Status = "closed"
)

// Statuses lists every status in happy-path order.
var Statuses = []Status{
	StatusDraft,
	StatusPendingChief,
	StatusValidatedChief,
	StatusValidatedFinance,
	StatusValidatedCoordinator,
	StatusAdvancePaid,
	StatusInProgress,
	StatusClosed,
}

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Engaged is true once funds have moved; rejection is no longer possible.
func (s Status) Engaged() bool {
	return s == StatusAdvancePaid || s == StatusInProgress || s == StatusClosed
}

// Action names a workflow transition.
type Action string

const (
	ActionSubmit             Action = "submit"
	ActionApproveChief       Action = "approve_chief"
	ActionApproveFinance     Action = "approve_finance"
	ActionApproveCoordinator Action = "approve_coordinator"
	ActionRecordPayment      Action = "record_payment"
	ActionConfirmPayment     Action = "confirm_payment"
	ActionBegin              Action = "begin"
	ActionReconcileDocuments Action = "reconcile_documents"
	ActionClose              Action = "close"
	ActionReject             Action = "reject"
)

// Actions lists every action in the order they usually happen.
var Actions = []Action{
	ActionSubmit,
	ActionApproveChief,
	ActionApproveFinance,
	ActionApproveCoordinator,
	ActionRecordPayment,
	ActionConfirmPayment,
	ActionBegin,
	ActionReconcileDocuments,
	ActionClose,
	ActionReject,
}

func ParseAction(s string) (Action, bool) {
	a := Action(s)
	return a, slices.Contains(Actions, a)
}

// OperationKind is the type of a ledger record.
type OperationKind string

const (
	OperationPayment        OperationKind = "payment"
	OperationRegularization OperationKind = "regularization"
	OperationReimbursement  OperationKind = "reimbursement"
)

// Mission is a travel request moving through the approval chain.
type Mission struct {
	ID          uuid.UUID
	RequesterID uuid.UUID

	// AssignedApproverID is the hierarchical chief responsible for the pending_chief step.
	AssignedApproverID    *uuid.UUID
	ChiefApproverID       *uuid.UUID
	FinanceApproverID     *uuid.UUID
	CoordinatorApproverID *uuid.UUID

	Subject       string
	Destination   string
	Purpose       string
	TransportMode string
	StartDate     *time.Time
	EndDate       *time.Time

	RequestedAdvance  *decimal.Decimal
	TotalJustified    *decimal.Decimal
	AmountToReimburse *decimal.Decimal

	Status              Status
	DocumentsReconciled bool
	ReconciledAt        *time.Time
	ReconciliationNote  string
	ClosedAt            *time.Time

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Advance is an immutable ledger record tied to a mission.
type Advance struct {
	ID               uuid.UUID
	MissionID        uuid.UUID
	Amount           decimal.Decimal
	Kind             OperationKind
	OperationDate    time.Time
	PaymentReference string
	RecordedByID     uuid.UUID
	CreatedAt        time.Time
}

// Activity is one entry of a mission's audit trail.
type Activity struct {
	ID        uuid.UUID
	MissionID uuid.UUID
	ActorID   uuid.UUID
	Action    Action
	From      Status
	To        Status
	Note      string
	CreatedAt time.Time
}

// Event is emitted after a transition has been committed.
type Event struct {
	MissionID   uuid.UUID
	RequesterID uuid.UUID
	ActorID     uuid.UUID
	Action      Action
	From        Status
	To          Status
	At          time.Time
}
