package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/dashboard"
	"github.com/ad2m/missions/internal/mission"
)

// DashboardModel is the landing screen: counters per status and the actor's to-do count.
type DashboardModel struct {
	CommonModel
	dashboard *dashboard.Service
	actor     *actor.Actor

	summary *dashboard.Summary
	err     error
	status  string
}

func NewDashboardModel(svc *dashboard.Service, a *actor.Actor) DashboardModel {
	return DashboardModel{dashboard: svc, actor: a}
}

func (m DashboardModel) Title() string { return "Dashboard" }

func (m DashboardModel) ShortHelp() string {
	help := "1: missions | 2: new mission | r: refresh"
	if m.actor.IsAdmin() {
		help += " | 3: import roster"
	}

	return help + " | q: quit"
}

// WithStatus returns a copy showing status above the counters.
func (m DashboardModel) WithStatus(status string) DashboardModel {
	m.status = status
	return m
}

func (m DashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadMsg:
		m.summary, m.err = msg.summary, msg.err
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "r" {
			return m, m.loadCmd()
		}
	}

	return m, nil
}

func (m DashboardModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", lipgloss.NewStyle().Bold(true).Render("Missions"))
	fmt.Fprintf(&b, "Signed in as %s (%s)\n\n", m.actor.Name, m.actor.Matricule)

	if m.status != "" {
		b.WriteString(lipgloss.NewStyle().Faint(true).Render(m.status) + "\n\n")
	}

	switch {
	case m.err != nil:
		fmt.Fprintf(&b, "Error: %v\n", m.err)
	case m.summary == nil:
		b.WriteString("Loading...\n")
	default:
		fmt.Fprintf(&b, "Waiting for you: %s\n\n", activeStyle(fmt.Sprint(m.summary.Todo)))

		for _, st := range mission.Statuses {
			fmt.Fprintf(&b, "  %-22s %4d\n", StatusLabel(st), m.summary.ByStatus[st])
		}

		fmt.Fprintf(&b, "  %-22s %4d\n", "total", m.summary.Total)
	}

	b.WriteString("\n" + m.ShortHelp())

	return lipgloss.NewStyle().Padding(2).Render(b.String())
}

// Messages

type dashboardLoadMsg struct {
	summary *dashboard.Summary
	err     error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		summary, err := m.dashboard.Summary(ctx, m.actor)

		return dashboardLoadMsg{summary: summary, err: err}
	}
}
