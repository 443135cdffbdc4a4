package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

// View is implemented by every screen the root model switches between.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

type CommonModel struct {
	Width  int
	Height int
}

// BackMsg returns to the dashboard. A non-empty Status is shown there.
type BackMsg struct {
	Status string
}

func Back() tea.Msg {
	return BackMsg{}
}

func BackWith(status string) tea.Cmd {
	return func() tea.Msg { return BackMsg{Status: status} }
}
