package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ad2m/missions/internal/actor"
)

// Store is the Postgres-backed actor directory. Role labels are normalized on
// the way in and on the way out, so callers only ever see canonical roles.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// UpsertParams describes one directory entry keyed by matricule.
type UpsertParams struct {
	Matricule      string
	Name           string
	Email          string
	Roles          []string
	ChiefMatricule string
	Active         bool
}

const selectActorColumns = `a.id, a.matricule, a.name, a.email, a.reports_to, a.active, a.created_at, a.updated_at`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanActor(s scanner) (*actor.Actor, error) {
	var (
		a     actor.Actor
		email sql.NullString
	)

	if err := s.Scan(&a.ID, &a.Matricule, &a.Name, &email, &a.ReportsTo, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	a.Email = email.String

	return &a, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*actor.Actor, error) {
	query := `SELECT ` + selectActorColumns + ` FROM actors a WHERE a.id = $1`

	a, err := scanActor(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, actor.ErrNotFound
		}

		return nil, fmt.Errorf("getting actor: %w", err)
	}

	if a.Roles, err = s.RolesOf(ctx, a.ID); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Store) GetByMatricule(ctx context.Context, matricule string) (*actor.Actor, error) {
	query := `SELECT ` + selectActorColumns + ` FROM actors a WHERE a.matricule = $1`

	a, err := scanActor(s.db.QueryRowContext(ctx, query, matricule))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, actor.ErrNotFound
		}

		return nil, fmt.Errorf("getting actor by matricule: %w", err)
	}

	if a.Roles, err = s.RolesOf(ctx, a.ID); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Store) RolesOf(ctx context.Context, id uuid.UUID) ([]actor.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role FROM actor_roles WHERE actor_id = $1 ORDER BY role`, id)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var labels []string

	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}

		labels = append(labels, label)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}

	return actor.NormalizeRoles(labels), nil
}

func (s *Store) ReportsTo(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var chief *uuid.UUID

	err := s.db.QueryRowContext(ctx, `SELECT reports_to FROM actors WHERE id = $1`, id).Scan(&chief)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, actor.ErrNotFound
		}

		return nil, fmt.Errorf("getting reports_to: %w", err)
	}

	return chief, nil
}

// Upsert creates or updates an actor and replaces its role set. A missionnaire
// must report to an actor holding the chief role; every other role has no chief.
func (s *Store) Upsert(ctx context.Context, p UpsertParams) (*actor.Actor, error) {
	roles := actor.NormalizeRoles(p.Roles)
	if len(roles) == 0 {
		return nil, fmt.Errorf("actor %s: at least one role is required", p.Matricule)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	var reportsTo *uuid.UUID

	probe := &actor.Actor{Roles: roles}
	if probe.NeedsChief() {
		if p.ChiefMatricule == "" {
			return nil, fmt.Errorf("actor %s: a missionnaire must have a hierarchical chief", p.Matricule)
		}

		chief, err := chiefByMatricule(ctx, dbTx, p.ChiefMatricule)
		if err != nil {
			return nil, fmt.Errorf("actor %s: %w", p.Matricule, err)
		}

		reportsTo = &chief
	}

	query := `
		INSERT INTO actors AS a (matricule, name, email, reports_to, active, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NOW())
		ON CONFLICT (matricule) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, reports_to = EXCLUDED.reports_to,
		    active = EXCLUDED.active, updated_at = NOW()
		RETURNING ` + selectActorColumns

	a, err := scanActor(dbTx.QueryRowContext(ctx, query, p.Matricule, p.Name, p.Email, reportsTo, p.Active))
	if err != nil {
		return nil, fmt.Errorf("upserting actor: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM actor_roles WHERE actor_id = $1`, a.ID); err != nil {
		return nil, fmt.Errorf("clearing roles: %w", err)
	}

	for _, r := range roles {
		if _, err := dbTx.ExecContext(ctx, `INSERT INTO actor_roles (actor_id, role) VALUES ($1, $2)`, a.ID, r); err != nil {
			return nil, fmt.Errorf("inserting role %s: %w", r, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("committing actor: %w", err)
	}

	a.Roles = roles

	return a, nil
}

func chiefByMatricule(ctx context.Context, tx *sql.Tx, matricule string) (uuid.UUID, error) {
	query := `
		SELECT a.id
		FROM actors a
		JOIN actor_roles r ON r.actor_id = a.id
		WHERE a.matricule = $1 AND r.role = $2
	`

	var id uuid.UUID

	err := tx.QueryRowContext(ctx, query, matricule, actor.RoleChief).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("chief %s not found or lacks the %s role", matricule, actor.RoleChief)
		}

		return uuid.Nil, fmt.Errorf("resolving chief: %w", err)
	}

	return id, nil
}
