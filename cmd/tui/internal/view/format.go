package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/ad2m/missions/internal/mission"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders an amount in CFA francs, or a dash when unset.
func FormatAmount(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}

	return d.StringFixed(2)
}

// FormatDate formats a date as YYYY-MM-DD, or a dash when unset.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}

	return t.Format(time.DateOnly)
}

// FormatPeriod renders the travel dates of a mission.
func FormatPeriod(m *mission.Mission) string {
	if m.StartDate == nil && m.EndDate == nil {
		return "-"
	}

	return fmt.Sprintf("%s → %s", FormatDate(m.StartDate), FormatDate(m.EndDate))
}

// StatusLabel turns a status into the label shown in tables.
func StatusLabel(s mission.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	return s
}

// parseDate accepts an empty string as "no date".
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("use YYYY-MM-DD")
	}

	return &t, nil
}

// parseAmount accepts an empty string as "no amount" and a comma as decimal separator.
func parseAmount(s string) (*decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return nil, fmt.Errorf("not an amount")
	}

	return &d, nil
}

func validDate(s string) error {
	_, err := parseDate(s)
	return err
}

func validAmount(s string) error {
	_, err := parseAmount(s)
	return err
}
