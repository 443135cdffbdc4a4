package dashboard

import (
	"context"
	"fmt"
	"slices"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/mission"
)

const recentLimit = 8

// Summary is the landing view of an actor: counters, recent missions and the size of their inbox.
type Summary struct {
	Total        int
	ByStatus     map[mission.Status]int
	Recent       []*mission.Mission
	Todo         int
	TodoStatuses []mission.Status
}

// Service builds dashboards on top of the mission service, so every number
// respects the same visibility rules as the mission list.
type Service struct {
	missions *mission.Service
}

func NewService(missions *mission.Service) *Service {
	return &Service{missions: missions}
}

func (s *Service) Summary(ctx context.Context, a *actor.Actor) (*Summary, error) {
	counts, err := s.missions.CountByStatus(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("counting missions: %w", err)
	}

	recent, err := s.missions.List(ctx, a, mission.ListOptions{Limit: recentLimit})
	if err != nil {
		return nil, fmt.Errorf("listing recent missions: %w", err)
	}

	sum := &Summary{
		ByStatus:     make(map[mission.Status]int, len(mission.Statuses)),
		Recent:       recent,
		TodoStatuses: TodoStatuses(a),
	}

	for _, st := range mission.Statuses {
		sum.ByStatus[st] = counts[st]
		sum.Total += counts[st]
	}

	for _, st := range sum.TodoStatuses {
		sum.Todo += counts[st]
	}

	return sum, nil
}

// TodoStatuses lists the statuses in which a usually has something to do.
func TodoStatuses(a *actor.Actor) []mission.Status {
	var out []mission.Status

	add := func(roles []actor.Role, statuses ...mission.Status) {
		if !a.HasAny(roles...) {
			return
		}

		for _, st := range statuses {
			if !slices.Contains(out, st) {
				out = append(out, st)
			}
		}
	}

	add([]actor.Role{actor.RoleChief, actor.RoleAdmin}, mission.StatusPendingChief)
	add([]actor.Role{actor.RoleFinance, actor.RoleAdmin}, mission.StatusValidatedChief)
	add([]actor.Role{actor.RoleCoordinator, actor.RoleAdmin}, mission.StatusValidatedFinance)
	add([]actor.Role{actor.RolePaymentAgent, actor.RoleAdmin}, mission.StatusValidatedCoordinator, mission.StatusInProgress)

	if a.IsPlainRequester() {
		out = append(out, mission.StatusDraft, mission.StatusAdvancePaid)
	}

	return out
}
