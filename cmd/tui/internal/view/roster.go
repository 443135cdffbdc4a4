package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ad2m/missions/internal/roster"
)

const rosterTimeout = 2 * time.Minute

type rosterState int

const (
	rosterStateFilePick rosterState = iota
	rosterStateImporting
	rosterStateResult
)

// RosterModel picks an HR export on disk and loads it into the directory.
type RosterModel struct {
	CommonModel
	roster *roster.Service

	state      rosterState
	filePicker filepicker.Model

	report *roster.Report
	status string
	err    error
}

func NewRosterModel(svc *roster.Service) RosterModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return RosterModel{
		roster:     svc,
		filePicker: fp,
	}
}

func (m RosterModel) Title() string { return "Import Roster" }

func (m RosterModel) ShortHelp() string { return "Esc: back | Enter: select" }

func (m RosterModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m RosterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			if m.state == rosterStateResult {
				m.state = rosterStateFilePick
				m.report, m.err, m.status = nil, nil, ""

				return m, m.filePicker.Init()
			}

			return m, Back
		}

	case rosterResultMsg:
		m.state = rosterStateResult
		m.report = msg.report
		m.err = msg.err

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = fmt.Sprintf("Imported %d of %d people (%s).",
			len(msg.report.Imported), len(msg.report.Sheet.Entries), msg.report.Sheet.Charset)

		return m, nil
	}

	if m.state != rosterStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = rosterStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m RosterModel) View() string {
	switch m.state {
	case rosterStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select the HR export to import:\n\n%s", m.filePicker.View()),
		)
	case rosterStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case rosterStateResult:
		return m.viewResult()
	}

	return ""
}

func (m RosterModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)

	if m.err != nil {
		return style.Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.status) +
				"\n\n(Esc to go back)",
		)
	}

	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(m.status))

	if len(m.report.Failed) > 0 {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("Refused rows:"))

		for _, f := range m.report.Failed {
			fmt.Fprintf(&b, "\n  %s", f.Error())
		}
	}

	b.WriteString("\n\n(Esc to go back)")

	return style.Render(b.String())
}

// Messages

type rosterResultMsg struct {
	report *roster.Report
	err    error
}

func (m RosterModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return rosterResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), rosterTimeout)
		defer cancel()

		report, err := m.roster.Import(ctx, f)

		return rosterResultMsg{report: report, err: err}
	}
}
