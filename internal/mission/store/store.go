package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ad2m/missions/internal/mission"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectMissionColumns = `
	m.id, m.requester_id, m.assigned_approver_id, m.approved_by_chief_id,
	m.approved_by_finance_id, m.approved_by_coordinator_id,
	m.subject, m.destination, m.purpose, m.transport_mode, m.start_date, m.end_date,
	m.requested_advance, m.total_justified, m.amount_to_reimburse,
	m.status, m.documents_reconciled, m.reconciled_at, m.reconciliation_note, m.closed_at,
	m.created_at, m.updated_at
`

// scanMission expects the column order of selectMissionColumns.
func scanMission(s scanner) (*mission.Mission, error) {
	var (
		m                                 mission.Mission
		status                            string
		purpose, transport, note          sql.NullString
		requested, justified, toReimburse decimal.NullDecimal
	)

	if err := s.Scan(
		&m.ID, &m.RequesterID, &m.AssignedApproverID, &m.ChiefApproverID,
		&m.FinanceApproverID, &m.CoordinatorApproverID,
		&m.Subject, &m.Destination, &purpose, &transport, &m.StartDate, &m.EndDate,
		&requested, &justified, &toReimburse,
		&status, &m.DocumentsReconciled, &m.ReconciledAt, &note, &m.ClosedAt,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	m.Status = mission.Status(status)
	m.Purpose = purpose.String
	m.TransportMode = transport.String
	m.ReconciliationNote = note.String
	m.RequestedAdvance = decimalPtr(requested)
	m.TotalJustified = decimalPtr(justified)
	m.AmountToReimburse = decimalPtr(toReimburse)

	return &m, nil
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}

	return &d.Decimal
}

func getMission(ctx context.Context, q queryer, id uuid.UUID, lock bool) (*mission.Mission, error) {
	query := `SELECT ` + selectMissionColumns + ` FROM missions m WHERE m.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	m, err := scanMission(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, mission.ErrNotFound
		}

		return nil, fmt.Errorf("getting mission: %w", err)
	}

	return m, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*mission.Mission, error) {
	return getMission(ctx, s.db, id, false)
}

// whereClause renders the filter as a SQL predicate starting at placeholder $1.
func whereClause(filter mission.ListFilter) (string, []any) {
	conds := []string{"TRUE"}

	var args []any

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.RequesterID != nil {
		conds = append(conds, "m.requester_id = "+next(*filter.RequesterID))
	}

	if filter.ParticipantID != nil {
		p := next(*filter.ParticipantID)
		conds = append(conds, fmt.Sprintf(
			"(m.requester_id = %[1]s OR m.assigned_approver_id = %[1]s OR m.approved_by_chief_id = %[1]s)", p))
	}

	if filter.Status != nil {
		conds = append(conds, "m.status = "+next(string(*filter.Status)))
	}

	return strings.Join(conds, " AND "), args
}

func (s *Store) List(ctx context.Context, filter mission.ListFilter) ([]*mission.Mission, error) {
	where, args := whereClause(filter)

	query := `SELECT ` + selectMissionColumns + ` FROM missions m WHERE ` + where +
		` ORDER BY m.created_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing missions: %w", err)
	}
	defer rows.Close()

	var missions []*mission.Mission

	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning mission: %w", err)
		}

		missions = append(missions, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating missions: %w", err)
	}

	return missions, nil
}

func (s *Store) CountByStatus(ctx context.Context, filter mission.ListFilter) (map[mission.Status]int, error) {
	where, args := whereClause(filter)

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.status, COUNT(*) FROM missions m WHERE `+where+` GROUP BY m.status`, args...)
	if err != nil {
		return nil, fmt.Errorf("counting missions: %w", err)
	}
	defer rows.Close()

	counts := make(map[mission.Status]int)

	for rows.Next() {
		var (
			status string
			n      int
		)

		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}

		counts[mission.Status(status)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}

	return counts, nil
}

func (s *Store) Create(ctx context.Context, m *mission.Mission) error {
	query := `
		INSERT INTO missions (requester_id, subject, destination, purpose, transport_mode,
			start_date, end_date, requested_advance, status, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		m.RequesterID,
		m.Subject,
		m.Destination,
		m.Purpose,
		m.TransportMode,
		m.StartDate,
		m.EndDate,
		nullDecimal(m.RequestedAdvance),
		m.Status,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating mission: %w", err)
	}

	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(*d)
}

const selectAdvanceColumns = `a.id, a.mission_id, a.amount, a.kind, a.operation_date, a.payment_reference, a.recorded_by_id, a.created_at`

func scanAdvance(s scanner) (*mission.Advance, error) {
	var (
		a    mission.Advance
		kind string
		ref  sql.NullString
	)

	if err := s.Scan(&a.ID, &a.MissionID, &a.Amount, &kind, &a.OperationDate, &ref, &a.RecordedByID, &a.CreatedAt); err != nil {
		return nil, err
	}

	a.Kind = mission.OperationKind(kind)
	a.PaymentReference = ref.String

	return &a, nil
}

func (s *Store) ListAdvances(ctx context.Context, missionID uuid.UUID) ([]*mission.Advance, error) {
	query := `SELECT ` + selectAdvanceColumns + ` FROM advances a WHERE a.mission_id = $1 ORDER BY a.operation_date, a.created_at`

	rows, err := s.db.QueryContext(ctx, query, missionID)
	if err != nil {
		return nil, fmt.Errorf("listing advances: %w", err)
	}
	defer rows.Close()

	var advances []*mission.Advance

	for rows.Next() {
		a, err := scanAdvance(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning advance: %w", err)
		}

		advances = append(advances, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating advances: %w", err)
	}

	return advances, nil
}

func (s *Store) ListActivities(ctx context.Context, missionID uuid.UUID) ([]*mission.Activity, error) {
	query := `
		SELECT id, mission_id, actor_id, action, from_status, to_status, note, created_at
		FROM mission_activities
		WHERE mission_id = $1
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, missionID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer rows.Close()

	var activities []*mission.Activity

	for rows.Next() {
		var (
			a                mission.Activity
			action, from, to string
			note             sql.NullString
		)

		if err := rows.Scan(&a.ID, &a.MissionID, &a.ActorID, &action, &from, &to, &note, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}

		a.Action = mission.Action(action)
		a.From = mission.Status(from)
		a.To = mission.Status(to)
		a.Note = note.String

		activities = append(activities, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}

	return activities, nil
}

type missionTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (mission.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning mission tx: %w", err)
	}

	return &missionTx{tx: dbTx}, nil
}

func (t *missionTx) Commit() error   { return t.tx.Commit() }
func (t *missionTx) Rollback() error { return t.tx.Rollback() }

// LockMission holds the row lock until the transaction ends, so concurrent
// transitions on the same mission run one after the other.
func (t *missionTx) LockMission(ctx context.Context, id uuid.UUID) (*mission.Mission, error) {
	return getMission(ctx, t.tx, id, true)
}

func (t *missionTx) SaveMission(ctx context.Context, m *mission.Mission) error {
	query := `
		UPDATE missions
		SET assigned_approver_id = $1, approved_by_chief_id = $2, approved_by_finance_id = $3,
			approved_by_coordinator_id = $4, subject = $5, destination = $6,
			purpose = NULLIF($7, ''), transport_mode = NULLIF($8, ''), start_date = $9, end_date = $10,
			requested_advance = $11, total_justified = $12, amount_to_reimburse = $13,
			status = $14, documents_reconciled = $15, reconciled_at = $16,
			reconciliation_note = NULLIF($17, ''), closed_at = $18, updated_at = NOW()
		WHERE id = $19
		RETURNING updated_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		m.AssignedApproverID,
		m.ChiefApproverID,
		m.FinanceApproverID,
		m.CoordinatorApproverID,
		m.Subject,
		m.Destination,
		m.Purpose,
		m.TransportMode,
		m.StartDate,
		m.EndDate,
		nullDecimal(m.RequestedAdvance),
		nullDecimal(m.TotalJustified),
		nullDecimal(m.AmountToReimburse),
		m.Status,
		m.DocumentsReconciled,
		m.ReconciledAt,
		m.ReconciliationNote,
		m.ClosedAt,
		m.ID,
	).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mission.ErrNotFound
		}

		return fmt.Errorf("updating mission: %w", err)
	}

	return nil
}

func (t *missionTx) DeleteMission(ctx context.Context, id uuid.UUID) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM missions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting mission: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting mission: %w", err)
	}

	if n == 0 {
		return mission.ErrNotFound
	}

	return nil
}

func (t *missionTx) FindAdvance(ctx context.Context, missionID uuid.UUID, kind mission.OperationKind) (*mission.Advance, error) {
	query := `SELECT ` + selectAdvanceColumns + ` FROM advances a WHERE a.mission_id = $1 AND a.kind = $2 ORDER BY a.created_at LIMIT 1`

	a, err := scanAdvance(t.tx.QueryRowContext(ctx, query, missionID, kind))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding advance: %w", err)
	}

	return a, nil
}

func (t *missionTx) CreateAdvance(ctx context.Context, a *mission.Advance) error {
	query := `
		INSERT INTO advances (mission_id, recorded_by_id, amount, kind, operation_date, payment_reference, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NOW())
		RETURNING id, created_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		a.MissionID,
		a.RecordedByID,
		a.Amount,
		a.Kind,
		a.OperationDate,
		a.PaymentReference,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating advance: %w", err)
	}

	return nil
}

func (t *missionTx) AppendActivity(ctx context.Context, a *mission.Activity) error {
	query := `
		INSERT INTO mission_activities (mission_id, actor_id, action, from_status, to_status, note, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NOW())
		RETURNING id, created_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		a.MissionID,
		a.ActorID,
		a.Action,
		a.From,
		a.To,
		a.Note,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}

	return nil
}
