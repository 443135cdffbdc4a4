package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/mission"
)

type draftInput struct {
	subject     string
	destination string
	purpose     string
	transport   string
	start       string
	end         string
	advance     string
}

// DraftModel collects the fields of a new mission and saves it as a draft.
type DraftModel struct {
	CommonModel
	missions *mission.Service
	actor    *actor.Actor

	form   *huh.Form
	in     *draftInput
	saving bool
	err    error
}

func NewDraftModel(missions *mission.Service, a *actor.Actor) DraftModel {
	in := &draftInput{}

	required := func(label string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", label)
			}
			return nil
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("subject").Title("Subject").Value(&in.subject).Validate(required("subject")),
			huh.NewInput().Key("destination").Title("Destination").Value(&in.destination).Validate(required("destination")),
			huh.NewText().Key("purpose").Title("Purpose").Value(&in.purpose),
			huh.NewSelect[string]().
				Key("transport").
				Title("Transport").
				Options(huh.NewOptions("Véhicule de service", "Transport public", "Avion", "Autre")...).
				Value(&in.transport),
		),
		huh.NewGroup(
			huh.NewInput().Key("start").Title("Start date").Placeholder("YYYY-MM-DD").Value(&in.start).Validate(validDate),
			huh.NewInput().Key("end").Title("End date").Placeholder("YYYY-MM-DD").Value(&in.end).Validate(validDate),
			huh.NewInput().Key("advance").Title("Requested advance").Placeholder("optional").Value(&in.advance).Validate(validAmount),
		),
	).WithWidth(60).WithShowHelp(false)

	return DraftModel{
		missions: missions,
		actor:    a,
		form:     form,
		in:       in,
	}
}

func (m DraftModel) Title() string { return "New Mission" }

func (m DraftModel) ShortHelp() string { return "Tab: next field | Esc: cancel" }

func (m DraftModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m DraftModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

	case draftSavedMsg:
		m.saving = false

		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		return m, BackWith(fmt.Sprintf("Draft %q saved.", msg.mission.Subject))
	}

	if m.saving || m.err != nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.saving = true

	return m, m.saveCmd()
}

func (m DraftModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	switch {
	case m.err != nil:
		return style.Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("Error: %v", m.err)) +
				"\n\n(Esc to go back)",
		)
	case m.saving:
		return style.Render("Saving draft...")
	}

	return style.Render(m.form.View())
}

// Messages

type draftSavedMsg struct {
	mission *mission.Mission
	err     error
}

func (m DraftModel) saveCmd() tea.Cmd {
	in := *m.in

	return func() tea.Msg {
		start, err := parseDate(in.start)
		if err != nil {
			return draftSavedMsg{err: err}
		}

		end, err := parseDate(in.end)
		if err != nil {
			return draftSavedMsg{err: err}
		}

		advance, err := parseAmount(in.advance)
		if err != nil {
			return draftSavedMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		created, err := m.missions.CreateDraft(ctx, m.actor, mission.DraftParams{
			Subject:          in.subject,
			Destination:      in.destination,
			Purpose:          in.purpose,
			TransportMode:    in.transport,
			StartDate:        start,
			EndDate:          end,
			RequestedAdvance: advance,
		})

		return draftSavedMsg{mission: created, err: err}
	}
}
