package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/mission"
)

type inboxState int

const (
	inboxStateBrowse inboxState = iota
	inboxStateForm
)

// InboxModel lists the missions visible to the actor and applies workflow actions to them.
type InboxModel struct {
	CommonModel
	missions *mission.Service
	actor    *actor.Actor

	state   inboxState
	table   table.Model
	rows    []*mission.Mission
	form    *huh.Form
	pending mission.Action

	statusIdx int // 0 means every status
	mine      bool

	loading bool
	err     error
	status  string

	// bind outlives the value copies bubbletea makes of the model.
	bind *actionInput
}

type actionInput struct {
	note      string
	amount    string
	date      string
	reference string
	justified string
}

func NewInboxModel(missions *mission.Service, a *actor.Actor) InboxModel {
	columns := []table.Column{
		{Title: "Subject", Width: 30},
		{Title: "Destination", Width: 18},
		{Title: "Period", Width: 25},
		{Title: "Advance", Width: 12},
		{Title: "Status", Width: 22},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	return InboxModel{
		missions: missions,
		actor:    a,
		table:    t,
		loading:  true,
	}
}

func (m InboxModel) Title() string { return "Missions" }

func (m InboxModel) ShortHelp() string {
	if m.state == inboxStateForm {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | 1-9: apply action | s: status filter | m: mine | r: refresh"
}

func (m InboxModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m InboxModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case inboxLoadMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.rows = msg.missions
			m.refreshTable()
		}

		return m, nil

	case inboxActionMsg:
		m.state = inboxStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			return m, nil
		}

		m.status = fmt.Sprintf("%s applied.", msg.action)

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-12, 5))

		return m, nil
	}

	if m.state == inboxStateForm {
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m InboxModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch k := keyMsg.String(); k {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.statusIdx = (m.statusIdx + 1) % (len(mission.Statuses) + 1)
			return m, m.loadCmd()
		case "m":
			m.mine = !m.mine
			return m, m.loadCmd()
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			return m.startAction(int(k[0] - '1'))
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m InboxModel) selected() *mission.Mission {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return nil
	}

	return m.rows[idx]
}

// startAction applies the n-th available action, asking for a payload first when it needs one.
func (m InboxModel) startAction(n int) (tea.Model, tea.Cmd) {
	sel := m.selected()
	if sel == nil {
		return m, nil
	}

	actions := mission.AvailableActions(m.actor, sel)
	if n >= len(actions) {
		return m, nil
	}

	action := actions[n]
	m.pending = action
	m.bind = &actionInput{}

	var fields []huh.Field

	switch action {
	case mission.ActionReject:
		fields = append(fields, huh.NewText().
			Key("note").
			Title("Reason").
			Value(&m.bind.note).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("give a reason")
				}
				return nil
			}))
	case mission.ActionRecordPayment:
		if sel.RequestedAdvance != nil {
			m.bind.amount = sel.RequestedAdvance.StringFixed(2)
		}

		fields = append(fields,
			huh.NewInput().Key("amount").Title("Amount").Value(&m.bind.amount).Validate(validAmount),
			huh.NewInput().Key("date").Title("Operation date").Placeholder("YYYY-MM-DD").Value(&m.bind.date).Validate(validDate),
			huh.NewInput().Key("reference").Title("Payment reference").Value(&m.bind.reference),
		)
	case mission.ActionReconcileDocuments:
		fields = append(fields,
			huh.NewInput().Key("justified").Title("Total justified").Placeholder("optional").Value(&m.bind.justified).Validate(validAmount),
			huh.NewText().Key("note").Title("Note").Value(&m.bind.note),
		)
	default:
		return m, m.applyCmd(sel, action)
	}

	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(45).WithShowHelp(false)
	m.state = inboxStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m InboxModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = inboxStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.applyCmd(m.selected(), m.pending)
}

func (m InboxModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading missions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	statusLabel := "All"
	if st := m.statusFilter(); st != nil {
		statusLabel = StatusLabel(*st)
	}

	mineLabel := "No"
	if m.mine {
		mineLabel = "Yes"
	}

	header := fmt.Sprintf("Filter: [s] Status: %s | [m] Mine only: %s",
		activeStyle(statusLabel), activeStyle(mineLabel))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if panel := m.panel(); panel != "" {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m InboxModel) panel() string {
	sel := m.selected()
	if sel == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", lipgloss.NewStyle().Bold(true).Render(sel.Subject))
	fmt.Fprintf(&b, "Destination: %s\n", sel.Destination)
	fmt.Fprintf(&b, "Transport:   %s\n", sel.TransportMode)
	fmt.Fprintf(&b, "Advance:     %s\n", FormatAmount(sel.RequestedAdvance))

	if sel.DocumentsReconciled {
		fmt.Fprintf(&b, "Justified:   %s\n", FormatAmount(sel.TotalJustified))
		fmt.Fprintf(&b, "To refund:   %s\n", FormatAmount(sel.AmountToReimburse))
	}

	if m.state == inboxStateForm && m.form != nil {
		fmt.Fprintf(&b, "\n%s\n\n%s", activeStyle(string(m.pending)), m.form.View())
	} else {
		actions := mission.AvailableActions(m.actor, sel)
		if len(actions) == 0 {
			b.WriteString("\nNothing to do.")
		} else {
			b.WriteString("\nActions:\n")

			for i, a := range actions {
				fmt.Fprintf(&b, "  %d. %s\n", i+1, a)
			}
		}
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(48).
		Render(b.String())
}

func (m InboxModel) statusFilter() *mission.Status {
	if m.statusIdx == 0 {
		return nil
	}

	return new(mission.Statuses[m.statusIdx-1])
}

func (m *InboxModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, ms := range m.rows {
		rows = append(rows, table.Row{
			ms.Subject,
			ms.Destination,
			FormatPeriod(ms),
			FormatAmount(ms.RequestedAdvance),
			StatusLabel(ms.Status),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type inboxLoadMsg struct {
	missions []*mission.Mission
	err      error
}

func (m InboxModel) loadCmd() tea.Cmd {
	opts := mission.ListOptions{Mine: m.mine, Status: m.statusFilter()}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		missions, err := m.missions.List(ctx, m.actor, opts)

		return inboxLoadMsg{missions: missions, err: err}
	}
}

type inboxActionMsg struct {
	action mission.Action
	err    error
}

func (m InboxModel) applyCmd(target *mission.Mission, action mission.Action) tea.Cmd {
	if target == nil {
		return nil
	}

	in := m.bind
	if in == nil {
		in = &actionInput{}
	}

	payload, err := buildPayload(action, in)
	if err != nil {
		return func() tea.Msg { return inboxActionMsg{action: action, err: err} }
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if action == mission.ActionRecordPayment {
			_, err := m.missions.RecordPayment(ctx, m.actor, target.ID, *payload.Payment)
			return inboxActionMsg{action: action, err: err}
		}

		_, err := m.missions.Transition(ctx, m.actor, target.ID, action, payload)

		return inboxActionMsg{action: action, err: err}
	}
}

func buildPayload(action mission.Action, in *actionInput) (mission.Payload, error) {
	p := mission.Payload{Note: strings.TrimSpace(in.note)}

	switch action {
	case mission.ActionRecordPayment:
		amount, err := parseAmount(in.amount)
		if err != nil {
			return p, err
		}

		date, err := parseDate(in.date)
		if err != nil {
			return p, err
		}

		params := &mission.PaymentParams{Reference: strings.TrimSpace(in.reference)}
		if amount != nil {
			params.Amount = *amount
		}

		if date != nil {
			params.OperationDate = *date
		}

		p.Payment = params
	case mission.ActionReconcileDocuments:
		justified, err := parseAmount(in.justified)
		if err != nil {
			return p, err
		}

		p.TotalJustified = justified
	}

	return p, nil
}
