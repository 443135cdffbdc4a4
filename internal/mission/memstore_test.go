package mission_test

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/mission"
)

// memStore is an in-memory Repository. Transactions are serialized the way
// row locks serialize concurrent transitions on the same mission.
type memStore struct {
	txMu sync.Mutex

	mu         sync.Mutex
	missions   map[uuid.UUID]mission.Mission
	advances   []mission.Advance
	activities []mission.Activity
}

func newMemStore() *memStore {
	return &memStore{missions: make(map[uuid.UUID]mission.Mission)}
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*mission.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.missions[id]
	if !ok {
		return nil, mission.ErrNotFound
	}

	return &m, nil
}

func (s *memStore) List(_ context.Context, filter mission.ListFilter) ([]*mission.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*mission.Mission

	for _, id := range slices.SortedFunc(maps.Keys(s.missions), func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	}) {
		m := s.missions[id]
		if filter.Visible(&m) {
			out = append(out, &m)
		}
	}

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func (s *memStore) CountByStatus(ctx context.Context, filter mission.ListFilter) (map[mission.Status]int, error) {
	list, _ := s.List(ctx, filter)

	counts := make(map[mission.Status]int)
	for _, m := range list {
		counts[m.Status]++
	}

	return counts, nil
}

func (s *memStore) Create(_ context.Context, m *mission.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	s.missions[m.ID] = *m

	return nil
}

func (s *memStore) ListAdvances(_ context.Context, missionID uuid.UUID) ([]*mission.Advance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*mission.Advance

	for _, a := range s.advances {
		if a.MissionID == missionID {
			out = append(out, &a)
		}
	}

	return out, nil
}

func (s *memStore) ListActivities(_ context.Context, missionID uuid.UUID) ([]*mission.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*mission.Activity

	for _, a := range s.activities {
		if a.MissionID == missionID {
			out = append(out, &a)
		}
	}

	return out, nil
}

func (s *memStore) Begin(_ context.Context) (mission.Tx, error) {
	s.txMu.Lock()
	return &memTx{s: s, saved: make(map[uuid.UUID]mission.Mission)}, nil
}

func (s *memStore) advanceCount(missionID uuid.UUID) int {
	list, _ := s.ListAdvances(context.Background(), missionID)
	return len(list)
}

// memTx stages writes and applies them on Commit.
type memTx struct {
	s          *memStore
	saved      map[uuid.UUID]mission.Mission
	deleted    []uuid.UUID
	advances   []mission.Advance
	activities []mission.Activity
	done       bool
}

func (t *memTx) LockMission(ctx context.Context, id uuid.UUID) (*mission.Mission, error) {
	return t.s.Get(ctx, id)
}

func (t *memTx) SaveMission(_ context.Context, m *mission.Mission) error {
	now := time.Now()
	m.UpdatedAt = &now
	t.saved[m.ID] = *m

	return nil
}

func (t *memTx) DeleteMission(_ context.Context, id uuid.UUID) error {
	t.deleted = append(t.deleted, id)
	return nil
}

func (t *memTx) FindAdvance(_ context.Context, missionID uuid.UUID, kind mission.OperationKind) (*mission.Advance, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for _, a := range append(slices.Clone(t.s.advances), t.advances...) {
		if a.MissionID == missionID && a.Kind == kind {
			return &a, nil
		}
	}

	return nil, nil
}

func (t *memTx) CreateAdvance(_ context.Context, a *mission.Advance) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	t.advances = append(t.advances, *a)

	return nil
}

func (t *memTx) AppendActivity(_ context.Context, a *mission.Activity) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	t.activities = append(t.activities, *a)

	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}

	t.s.mu.Lock()
	maps.Copy(t.s.missions, t.saved)

	for _, id := range t.deleted {
		delete(t.s.missions, id)
	}

	t.s.advances = append(t.s.advances, t.advances...)
	t.s.activities = append(t.s.activities, t.activities...)
	t.s.mu.Unlock()

	t.finish()

	return nil
}

func (t *memTx) Rollback() error {
	if !t.done {
		t.finish()
	}

	return nil
}

func (t *memTx) finish() {
	t.done = true
	t.s.txMu.Unlock()
}

// directory is an in-memory ActorProvider.
type directory struct {
	actors map[uuid.UUID]*actor.Actor
}

func newDirectory() *directory {
	return &directory{actors: make(map[uuid.UUID]*actor.Actor)}
}

func (d *directory) add(name string, chief *actor.Actor, roles ...actor.Role) *actor.Actor {
	a := &actor.Actor{ID: uuid.New(), Matricule: name, Name: name, Roles: roles, Active: true}
	if chief != nil {
		a.ReportsTo = &chief.ID
	}

	d.actors[a.ID] = a

	return a
}

func (d *directory) RolesOf(_ context.Context, id uuid.UUID) ([]actor.Role, error) {
	a, ok := d.actors[id]
	if !ok {
		return nil, actor.ErrNotFound
	}

	return a.Roles, nil
}

func (d *directory) ReportsTo(_ context.Context, id uuid.UUID) (*uuid.UUID, error) {
	a, ok := d.actors[id]
	if !ok {
		return nil, actor.ErrNotFound
	}

	return a.ReportsTo, nil
}
