package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/ad2m/missions/cmd/tui/internal/view"
	"github.com/ad2m/missions/internal/actor"
	actorStore "github.com/ad2m/missions/internal/actor/store"
	"github.com/ad2m/missions/internal/config"
	"github.com/ad2m/missions/internal/dashboard"
	"github.com/ad2m/missions/internal/database"
	"github.com/ad2m/missions/internal/mission"
	missionStore "github.com/ad2m/missions/internal/mission/store"
	"github.com/ad2m/missions/internal/roster"
)

type model struct {
	actor            *actor.Actor
	missionService   *mission.Service
	dashboardService *dashboard.Service
	rosterService    *roster.Service

	currentView View

	dashboardView view.DashboardModel
	inboxView     view.InboxModel
	draftView     view.DraftModel
	rosterView    view.RosterModel
}

type View int

const (
	ViewDashboard View = 0
	ViewInbox     View = 1
	ViewDraft     View = 2
	ViewRoster    View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	actors := actorStore.New(db)

	matricule := os.Getenv("MISSIONS_ACTOR")
	if matricule == "" {
		slog.Error("MISSIONS_ACTOR must hold the matricule of the person using the TUI")
		os.Exit(1)
	}

	me, err := actors.GetByMatricule(context.Background(), matricule)
	if err != nil {
		slog.Error("failed to load actor", "matricule", matricule, "error", err)
		os.Exit(1)
	}

	if !me.Active {
		slog.Error("actor is deactivated", "matricule", matricule)
		os.Exit(1)
	}

	missionSvc := mission.NewService(missionStore.New(db), actors)
	dashboardSvc := dashboard.NewService(missionSvc)

	return model{
		actor:            me,
		missionService:   missionSvc,
		dashboardService: dashboardSvc,
		rosterService:    roster.NewService(actors),
		currentView:      ViewDashboard,
		dashboardView:    view.NewDashboardModel(dashboardSvc, me),
	}
}

func (m model) Init() tea.Cmd {
	return m.dashboardView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewDashboard {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewInbox
				m.inboxView = view.NewInboxModel(m.missionService, m.actor)

				return m, m.inboxView.Init()
			case "2":
				m.currentView = ViewDraft
				m.draftView = view.NewDraftModel(m.missionService, m.actor)

				return m, m.draftView.Init()
			case "3":
				if !m.actor.IsAdmin() {
					return m, nil
				}

				m.currentView = ViewRoster
				m.rosterView = view.NewRosterModel(m.rosterService)

				return m, m.rosterView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewDashboard
		m.dashboardView = m.dashboardView.WithStatus(msg.Status)

		return m, m.dashboardView.Init()
	}

	switch m.currentView {
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewInbox:
		var newModel tea.Model
		newModel, cmd = m.inboxView.Update(msg)
		m.inboxView = newModel.(view.InboxModel)
	case ViewDraft:
		var newModel tea.Model
		newModel, cmd = m.draftView.Update(msg)
		m.draftView = newModel.(view.DraftModel)
	case ViewRoster:
		var newModel tea.Model
		newModel, cmd = m.rosterView.Update(msg)
		m.rosterView = newModel.(view.RosterModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewInbox:
		return m.inboxView.View()
	case ViewDraft:
		return m.draftView.View()
	case ViewRoster:
		return m.rosterView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
