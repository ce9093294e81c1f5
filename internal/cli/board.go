package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/trackboard/internal/cli/formatter"
	"github.com/alexanderramin/trackboard/internal/grouping"
	"github.com/alexanderramin/trackboard/internal/service"
	"github.com/alexanderramin/trackboard/internal/cli/views"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type boardKeyMap struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	Delete    key.Binding
	Refresh   key.Binding
	Quit      key.Binding
}

func defaultBoardKeys() boardKeyMap {
	return boardKeyMap{
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "column")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "column")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "card")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "card")),
		MoveLeft:  key.NewBinding(key.WithKeys("H"), key.WithHelp("H/L", "move issue")),
		MoveRight: key.NewBinding(key.WithKeys("L")),
		MoveUp:    key.NewBinding(key.WithKeys("K"), key.WithHelp("K/J", "reorder")),
		MoveDown:  key.NewBinding(key.WithKeys("J")),
		Delete:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Up, k.MoveLeft, k.MoveUp, k.Delete, k.Refresh, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// boardLoadedMsg signals that the controller finished loading or refreshing.
type boardLoadedMsg struct{ err error }

// boardActionMsg reports a finished move or delete of issueID.
type boardActionMsg struct {
	issueID string
	verb    string
	err     error
}

// boardModel is the interactive kanban board. Every change goes through the
// controller, which shows it optimistically before the request completes.
type boardModel struct {
	ctx    context.Context
	ctl    service.IssueListController
	board  *views.Board
	keys   boardKeyMap
	help   help.Model
	loaded bool

	col, row      int
	width, height int

	status string
	err    error
}

func newBoardModel(ctx context.Context, ctl service.IssueListController, loaded bool) *boardModel {
	return &boardModel{
		ctx:    ctx,
		ctl:    ctl,
		board:  views.NewBoard(ctl, ctl.Lookup()),
		keys:   defaultBoardKeys(),
		help:   help.New(),
		loaded: loaded,
		width:  120,
	}
}

func (m *boardModel) Init() tea.Cmd {
	if m.loaded {
		return nil
	}
	return m.load()
}

func (m *boardModel) load() tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		return boardLoadedMsg{err: ctl.Load(ctx)}
	}
}

func (m *boardModel) refresh() tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		return boardLoadedMsg{err: ctl.Refresh(ctx)}
	}
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case boardLoadedMsg:
		m.loaded = true
		m.err = msg.err
		// Lookup is only known after the first load.
		m.board = views.NewBoard(m.ctl, m.ctl.Lookup())
		m.clamp()
		return m, nil

	case boardActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Could not %s issue: %v", msg.verb, msg.err)
		} else {
			m.status = ""
			m.follow(msg.issueID)
		}
		m.clamp()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *boardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		m.status = "Refreshing..."
		return m, m.refresh()
	case key.Matches(msg, m.keys.Left):
		m.col--
	case key.Matches(msg, m.keys.Right):
		m.col++
	case key.Matches(msg, m.keys.Up):
		m.row--
	case key.Matches(msg, m.keys.Down):
		m.row++
	case key.Matches(msg, m.keys.MoveLeft):
		return m, m.moveColumn(-1)
	case key.Matches(msg, m.keys.MoveRight):
		return m, m.moveColumn(1)
	case key.Matches(msg, m.keys.MoveUp):
		return m, m.reorder(-1)
	case key.Matches(msg, m.keys.MoveDown):
		return m, m.reorder(1)
	case key.Matches(msg, m.keys.Delete):
		return m, m.remove()
	}
	m.clamp()
	return m, nil
}

// cursor returns the selected card's position, if any.
func (m *boardModel) cursor() (grouping.Position, string, bool) {
	cols := m.board.Columns()
	if m.col < 0 || m.col >= len(cols) {
		return grouping.Position{}, "", false
	}
	c := cols[m.col]
	if m.row < 0 || m.row >= len(c.Cards) {
		return grouping.Position{}, "", false
	}
	return grouping.Position{Key: c.Key, Index: m.row}, c.Cards[m.row].Issue.ID, true
}

func (m *boardModel) moveColumn(delta int) tea.Cmd {
	from, id, ok := m.cursor()
	cols := m.board.Columns()
	target := m.col + delta
	if !ok || target < 0 || target >= len(cols) {
		return nil
	}
	toKey := cols[target].Key
	toIndex := len(cols[target].Cards)
	m.col = target
	return m.action(id, "move", func(ctx context.Context) error {
		return m.board.Drop(ctx, from, toKey, toIndex)
	})
}

func (m *boardModel) reorder(delta int) tea.Cmd {
	from, id, ok := m.cursor()
	if !ok {
		return nil
	}
	if !m.ctl.DisplayFilters().OrderBy.IsManual() {
		m.status = "Reordering needs manual ordering (view set --order-by sort_order)"
		return nil
	}
	to := from.Index + delta
	if to < 0 || to >= len(m.board.Columns()[m.col].Cards) {
		return nil
	}
	m.row = to
	return m.action(id, "reorder", func(ctx context.Context) error {
		return m.board.Drop(ctx, from, from.Key, to)
	})
}

func (m *boardModel) remove() tea.Cmd {
	pos, id, ok := m.cursor()
	if !ok {
		return nil
	}
	return m.action(id, "delete", func(ctx context.Context) error {
		return m.board.Delete(ctx, pos)
	})
}

func (m *boardModel) action(issueID, verb string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return boardActionMsg{issueID: issueID, verb: verb, err: fn(ctx)}
	}
}

// follow moves the cursor onto issueID wherever it ended up.
func (m *boardModel) follow(issueID string) {
	for c, col := range m.board.Columns() {
		for r, card := range col.Cards {
			if card.Issue.ID == issueID {
				m.col, m.row = c, r
				return
			}
		}
	}
}

func (m *boardModel) clamp() {
	cols := m.board.Columns()
	if len(cols) == 0 {
		m.col, m.row = 0, 0
		return
	}
	m.col = min(max(m.col, 0), len(cols)-1)
	n := len(cols[m.col].Cards)
	if n == 0 {
		m.row = 0
		return
	}
	m.row = min(max(m.row, 0), n-1)
}

func (m *boardModel) View() string {
	var b strings.Builder
	scope := m.ctl.Scope()
	b.WriteString(formatter.StyleHeader.Render(strings.ToUpper(scope.Project)+" board") + "\n\n")

	switch {
	case !m.loaded:
		b.WriteString(formatter.Dim("Loading...") + "\n")
	case m.err != nil && m.ctl.Group().Total() == 0:
		b.WriteString(formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n")
	default:
		var cur *grouping.Position
		if pos, _, ok := m.cursor(); ok {
			cur = &pos
		}
		b.WriteString(m.board.RenderCursor(m.width, cur))
	}

	if m.status != "" {
		b.WriteString("\n" + formatter.StyleYellow.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func newBoardCmd(app *App, flags *scopeFlags) *cobra.Command {
	var display displayFlags
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Interactive kanban board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("board needs an interactive terminal (use issues list --layout kanban)")
			}
			ctx := cmd.Context()
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			opts, err := listOptions(ctx, cmd, app, scope, &display, nil)
			if err != nil {
				return err
			}
			// Failures show in the status line; toasts would garble the alt screen.
			app.State.Notifier = service.NoopNotifier{}
			ctl := service.NewIssueListController(app.State, scope, opts...)
			return app.runProgram(newBoardModel(ctx, ctl, false), cmd.OutOrStdout())
		},
	}

	display.register(cmd.Flags())

	return cmd
}
