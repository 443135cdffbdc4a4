package roster

import (
	"context"
	"fmt"
	"io"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/actor/store"
)

// Directory is where imported actors are written.
type Directory interface {
	Upsert(ctx context.Context, p store.UpsertParams) (*actor.Actor, error)
}

type Service struct {
	dir Directory
}

func NewService(dir Directory) *Service {
	return &Service{dir: dir}
}

// RowError is an entry the directory refused.
type RowError struct {
	Row       int
	Matricule string
	Err       error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.Matricule, e.Err)
}

type Report struct {
	Sheet    *Sheet
	Imported []*actor.Actor
	Failed   []RowError
}

// Import parses r and upserts every entry. Entries that need a chief are
// written after everyone else, so a chief listed further down the file exists
// by the time their reports are imported. A refused entry does not stop the import.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Report, error) {
	sheet, err := Parse(r)
	if err != nil {
		return nil, err
	}

	report := &Report{Sheet: sheet}

	var later []Entry

	for _, e := range sheet.Entries {
		if (&actor.Actor{Roles: actor.NormalizeRoles(e.Roles)}).NeedsChief() {
			later = append(later, e)
			continue
		}

		s.upsert(ctx, e, report)
	}

	for _, e := range later {
		s.upsert(ctx, e, report)
	}

	return report, nil
}

func (s *Service) upsert(ctx context.Context, e Entry, report *Report) {
	a, err := s.dir.Upsert(ctx, store.UpsertParams{
		Matricule:      e.Matricule,
		Name:           e.Name,
		Email:          e.Email,
		Roles:          e.Roles,
		ChiefMatricule: e.ChiefMatricule,
		Active:         e.Active,
	})
	if err != nil {
		report.Failed = append(report.Failed, RowError{Row: e.Row, Matricule: e.Matricule, Err: err})
		return
	}

	report.Imported = append(report.Imported, a)
}
