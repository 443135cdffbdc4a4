package mission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ad2m/missions/internal/actor"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=mission
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Mission, error)
	List(ctx context.Context, filter ListFilter) ([]*Mission, error)
	CountByStatus(ctx context.Context, filter ListFilter) (map[Status]int, error)
	Create(ctx context.Context, mission *Mission) error

	ListAdvances(ctx context.Context, missionID uuid.UUID) ([]*Advance, error)
	ListActivities(ctx context.Context, missionID uuid.UUID) ([]*Activity, error)

	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work holding a row lock on the missions it loads.
type Tx interface {
	LockMission(ctx context.Context, id uuid.UUID) (*Mission, error)
	SaveMission(ctx context.Context, mission *Mission) error
	DeleteMission(ctx context.Context, id uuid.UUID) error

	// FindAdvance returns nil when the mission has no record of that kind.
	FindAdvance(ctx context.Context, missionID uuid.UUID, kind OperationKind) (*Advance, error)
	CreateAdvance(ctx context.Context, a *Advance) error
	AppendActivity(ctx context.Context, a *Activity) error

	Commit() error
	Rollback() error
}

// ActorProvider answers the directory questions the workflow needs.
type ActorProvider interface {
	RolesOf(ctx context.Context, id uuid.UUID) ([]actor.Role, error)
	ReportsTo(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
}

// Notifier is told about every committed transition.
type Notifier interface {
	MissionChanged(ctx context.Context, e Event) error
}

type ListFilter struct {
	// RequesterID keeps only missions owned by this actor.
	RequesterID *uuid.UUID
	// ParticipantID keeps missions owned by, assigned to, or approved by this chief.
	ParticipantID *uuid.UUID
	Status        *Status
	Limit         int
}

type ListOptions struct {
	Mine   bool
	Status *Status
	Limit  int
}

type Service struct {
	repo     Repository
	actors   ActorProvider
	notifier Notifier
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, actors ActorProvider, opts ...Option) *Service {
	s := &Service{repo: repo, actors: actors, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) List(ctx context.Context, a *actor.Actor, opts ListOptions) ([]*Mission, error) {
	if a == nil {
		return nil, ErrUnauthenticated
	}

	if opts.Status != nil && !opts.Status.Valid() {
		return nil, errorf(KindValidation, "unknown status %q", *opts.Status)
	}

	filter := scopeFor(a, opts.Mine)
	filter.Status = opts.Status
	filter.Limit = opts.Limit

	return s.repo.List(ctx, filter)
}

// CountByStatus counts the missions visible to a, grouped by status.
func (s *Service) CountByStatus(ctx context.Context, a *actor.Actor) (map[Status]int, error) {
	if a == nil {
		return nil, ErrUnauthenticated
	}

	return s.repo.CountByStatus(ctx, scopeFor(a, false))
}

func (s *Service) Get(ctx context.Context, a *actor.Actor, id uuid.UUID) (*Mission, error) {
	if a == nil {
		return nil, ErrUnauthenticated
	}

	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := canView(a, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *Service) CreateDraft(ctx context.Context, a *actor.Actor, params DraftParams) (*Mission, error) {
	if a == nil {
		return nil, ErrUnauthenticated
	}

	if err := validateDraft(params); err != nil {
		return nil, err
	}

	m := &Mission{
		RequesterID: a.ID,
		Status:      StatusDraft,
	}
	params.writeTo(m)

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *Service) UpdateDraft(ctx context.Context, a *actor.Actor, id uuid.UUID, update DraftUpdate) (*Mission, error) {
	if a == nil {
		return nil, ErrUnauthenticated
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	m, err := s.lockEditable(ctx, tx, a, id, "modified")
	if err != nil {
		return nil, err
	}

	params := draftOf(m)
	update.applyTo(&params)

	if err := validateDraft(params); err != nil {
		return nil, err
	}

	params.writeTo(m)

	if err := tx.SaveMission(ctx, m); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}

	return m, nil
}

func (s *Service) Delete(ctx context.Context, a *actor.Actor, id uuid.UUID) error {
	if a == nil {
		return ErrUnauthenticated
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.lockEditable(ctx, tx, a, id, "deleted"); err != nil {
		return err
	}

	if err := tx.DeleteMission(ctx, id); err != nil {
		return fmt.Errorf("delete mission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	return nil
}

// lockEditable loads a draft the actor owns, or any draft for an admin.
func (s *Service) lockEditable(ctx context.Context, tx Tx, a *actor.Actor, id uuid.UUID, verb string) (*Mission, error) {
	m, err := tx.LockMission(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := canView(a, m); err != nil {
		return nil, err
	}

	if m.RequesterID != a.ID && !a.IsAdmin() {
		return nil, errorf(KindForbidden, "only the requester or an administrator can modify this mission")
	}

	if m.Status != StatusDraft {
		return nil, errorf(KindForbidden, "only draft missions can be %s", verb)
	}

	return m, nil
}

// Transition applies action to the mission and returns its new state.
func (s *Service) Transition(ctx context.Context, a *actor.Actor, id uuid.UUID, action Action, payload Payload) (*Mission, error) {
	t, err := s.apply(ctx, a, id, action, payload)
	if err != nil {
		return nil, err
	}

	return t.mission, nil
}

// RecordPayment writes the advance payment to the ledger without moving the mission.
func (s *Service) RecordPayment(ctx context.Context, a *actor.Actor, id uuid.UUID, params PaymentParams) (*Advance, error) {
	t, err := s.apply(ctx, a, id, ActionRecordPayment, Payload{Payment: &params})
	if err != nil {
		return nil, err
	}

	return t.advance, nil
}

func (s *Service) ListLedger(ctx context.Context, a *actor.Actor, id uuid.UUID) ([]*Advance, error) {
	m, err := s.Get(ctx, a, id)
	if err != nil {
		return nil, err
	}

	if err := canViewLedger(a, m); err != nil {
		return nil, err
	}

	return s.repo.ListAdvances(ctx, id)
}

func (s *Service) History(ctx context.Context, a *actor.Actor, id uuid.UUID) ([]*Activity, error) {
	if _, err := s.Get(ctx, a, id); err != nil {
		return nil, err
	}

	return s.repo.ListActivities(ctx, id)
}

// apply runs one transition under a row lock. The ledger check, the ledger
// write, the mission update and the audit entry commit together or not at all.
func (s *Service) apply(ctx context.Context, a *actor.Actor, id uuid.UUID, action Action, payload Payload) (*transition, error) {
	if a == nil {
		return nil, ErrUnauthenticated
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	current, err := tx.LockMission(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := canView(a, current); err != nil {
		return nil, err
	}

	r, err := authorize(action, a, current)
	if err != nil {
		return nil, err
	}

	working := *current
	t := &transition{
		actor:   a,
		mission: &working,
		payload: payload,
		now:     s.now(),
		tx:      tx,
		actors:  s.actors,
	}

	if err := r.step(ctx, t); err != nil {
		return nil, err
	}

	if t.advance != nil {
		if err := tx.CreateAdvance(ctx, t.advance); err != nil {
			return nil, fmt.Errorf("record advance: %w", err)
		}
	} else {
		if err := tx.SaveMission(ctx, &working); err != nil {
			return nil, fmt.Errorf("save mission: %w", err)
		}
	}

	activity := &Activity{
		MissionID: working.ID,
		ActorID:   a.ID,
		Action:    action,
		From:      current.Status,
		To:        working.Status,
		Note:      payload.Note,
	}
	if err := tx.AppendActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("append activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}

	s.notify(ctx, Event{
		MissionID:   working.ID,
		RequesterID: working.RequesterID,
		ActorID:     a.ID,
		Action:      action,
		From:        current.Status,
		To:          working.Status,
		At:          t.now,
	})

	return t, nil
}

// notify never fails the caller; the transition is already committed.
func (s *Service) notify(ctx context.Context, e Event) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.MissionChanged(ctx, e); err != nil {
		slog.Warn("failed to publish mission event",
			"mission_id", e.MissionID, "action", e.Action, "error", err)
	}
}
