package roster_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/actor/store"
	"github.com/ad2m/missions/internal/roster"
)

type fakeDirectory struct {
	order []string
	known map[string]bool
}

func (d *fakeDirectory) Upsert(_ context.Context, p store.UpsertParams) (*actor.Actor, error) {
	d.order = append(d.order, p.Matricule)

	if p.ChiefMatricule != "" && !d.known[p.ChiefMatricule] {
		return nil, errors.New("chief " + p.ChiefMatricule + " not found")
	}

	d.known[p.Matricule] = true

	return &actor.Actor{ID: uuid.New(), Matricule: p.Matricule, Roles: actor.NormalizeRoles(p.Roles)}, nil
}

func TestService_Import_ChiefsFirst(t *testing.T) {
	csv := `matricule;nom;role;chef
M010;Yao Aïcha;missionnaire;C001
M011;Koffi Paul;missionnaire;C404
C001;Kouadio Serge;chef hiérarchique;
F001;Traoré Ibrahim;raf;
`

	dir := &fakeDirectory{known: map[string]bool{}}
	svc := roster.NewService(dir)

	report, err := svc.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, []string{"C001", "F001", "M010", "M011"}, dir.order)
	assert.Len(t, report.Imported, 3)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 3, report.Failed[0].Row)
	assert.Equal(t, "M011", report.Failed[0].Matricule)
	assert.Contains(t, report.Failed[0].Error(), "chief C404 not found")
}

func TestService_Import_ParseError(t *testing.T) {
	svc := roster.NewService(&fakeDirectory{known: map[string]bool{}})

	_, err := svc.Import(context.Background(), strings.NewReader("nothing useful\n"))

	assert.Error(t, err)
}
