package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/local"
	"github.com/alexanderramin/trackboard/internal/service"
	"github.com/alexanderramin/trackboard/internal/testutil"
	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
project:
  workspace: acme
  identifier: web
  name: Website
states:
  - {ref: todo, name: Todo, group: unstarted}
  - {ref: doing, name: In Progress, group: started}
  - {ref: done, name: Done, group: completed}
labels:
  - {ref: bug, name: bug}
  - {ref: ui, name: ui}
members:
  - {ref: alice, display_name: Alice}
  - {ref: bob, display_name: Bob}
issues:
  - ref: login
    name: Login page
    description: Users sign in with **email**.
    state: todo
    priority: high
    assignees: [alice]
    labels: [ui]
    target_date: 2024-03-05
    estimate_point: 3
  - ref: crash
    name: Crash on save
    state: doing
    priority: urgent
    labels: [bug]
    created_by: bob
  - ref: polish
    name: Polish login
    parent: login
`

var cliNow = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func newTestApp(t *testing.T) (*App, *local.Backend) {
	t.Helper()
	database := testutil.NewTestDB(t)
	backend := local.NewBackend(database, testutil.NewTestUoW(database), "tester")
	backend.SetClock(func() time.Time { return cliNow.Add(-48 * time.Hour) })

	seed, err := local.ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	_, err = backend.Import(context.Background(), seed)
	require.NoError(t, err)
	backend.SetClock(func() time.Time { return cliNow })

	app := &App{
		API:           backend,
		State:         service.NewAppState(backend, time.Minute, service.WithClock(func() time.Time { return cliNow })),
		Importer:      backend,
		Workspace:     "acme",
		Project:       "WEB",
		Now:           func() time.Time { return cliNow },
		IsInteractive: func() bool { return false },
	}
	return app, backend
}

func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stripANSI(buf.String()), err
}

func issueByKey(t *testing.T, app *App, key string) *domain.Issue {
	t.Helper()
	scope, err := (&scopeFlags{}).scope(app)
	require.NoError(t, err)
	is, err := resolveIssue(context.Background(), app, scope, key)
	require.NoError(t, err)
	return is
}

func TestRoot_RequiresProject(t *testing.T) {
	app, _ := newTestApp(t)
	app.Project = ""

	_, err := executeCmd(t, app, "issues", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project selected")

	out, err := executeCmd(t, app, "issues", "list", "-p", "web")
	require.NoError(t, err)
	assert.Contains(t, out, "Login page")
}

func TestIssuesList_DefaultGroupsByState(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := executeCmd(t, app, "issues", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Todo (2)")
	assert.Contains(t, out, "In Progress (1)")
	assert.Contains(t, out, "Done (0)")
	assert.Contains(t, out, "WEB-1")
	assert.Contains(t, out, "Crash on save")
}

func TestIssuesList_KanbanByPriority(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := executeCmd(t, app, "issues", "list", "--layout", "kanban", "--group-by", "priority")
	require.NoError(t, err)
	assert.Contains(t, out, "Urgent (1)")
	assert.Contains(t, out, "High (1)")
	assert.NotContains(t, out, "Todo (2)")
}

func TestIssuesList_Filters(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := executeCmd(t, app, "issues", "list", "--state", "in progress", "--show-empty-groups=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Crash on save")
	assert.NotContains(t, out, "Login page")

	out, err = executeCmd(t, app, "issues", "list", "--label", "ui")
	require.NoError(t, err)
	assert.Contains(t, out, "Login page")
	assert.NotContains(t, out, "Crash on save")

	_, err = executeCmd(t, app, "issues", "list", "--priority", "huge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown priority "huge"`)

	_, err = executeCmd(t, app, "issues", "list", "--assignee", "carol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown member "carol"`)
}

func TestIssuesList_Search(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := executeCmd(t, app, "issues", "list", "--search", "save")
	require.NoError(t, err)
	assert.Contains(t, out, "WEB-2")
	assert.NotContains(t, out, "WEB-1")

	out, err = executeCmd(t, app, "issues", "list", "-s", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, `No issues match "zzz".`)
}

func TestIssuesShow(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := executeCmd(t, app, "issues", "show", "WEB-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Login page")
	assert.Contains(t, out, "email")
	assert.Contains(t, out, "Polish login")

	_, err = executeCmd(t, app, "issues", "show", "WEB-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issue WEB-9 not found")

	_, err = executeCmd(t, app, "issues", "show", "no-such-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `issue "no-such-id" not found`)
}

func TestIssuesUpdate(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := executeCmd(t, app, "issues", "update", "WEB-1", "--state", "done", "--priority", "low", "--labels", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated WEB-1:")
	assert.Contains(t, out, "state")
	assert.Contains(t, out, "priority")

	is := issueByKey(t, app, "WEB-1")
	assert.Equal(t, domain.PriorityLow, is.Priority)
	assert.Equal(t, domain.StateCompleted, is.StateGroup)
	assert.Empty(t, is.Labels)

	// The next listing sees the change rather than a cached copy.
	out, err = executeCmd(t, app, "issues", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Done (1)")
}

func TestIssuesUpdate_Errors(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := executeCmd(t, app, "issues", "update", "WEB-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")

	_, err = executeCmd(t, app, "issues", "update", "WEB-1", "--state", "Blocked")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown state "Blocked"`)

	_, err = executeCmd(t, app, "issues", "update", "WEB-1", "--estimate=-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid estimate")
}

func TestIssuesEdit(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := executeCmd(t, app, "issues", "edit", "WEB-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs an interactive terminal")

	app.IsInteractive = func() bool { return true }
	app.RunForm = func(*huh.Form) error { return nil }
	out, err := executeCmd(t, app, "issues", "edit", "WEB-1")
	require.NoError(t, err)
	assert.Contains(t, out, "No changes to WEB-1.")

	app.RunForm = func(*huh.Form) error { return huh.ErrUserAborted }
	out, err = executeCmd(t, app, "issues", "edit", "WEB-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Edit cancelled.")
}

func TestIssuesMove(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := executeCmd(t, app, "issues", "move", "WEB-1", "--to", "in progress")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved WEB-1 to In Progress")
	assert.Equal(t, domain.StateStarted, issueByKey(t, app, "WEB-1").StateGroup)

	out, err = executeCmd(t, app, "issues", "move", "WEB-2", "--group-by", "priority", "--to", "Low")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved WEB-2 to Low")
	assert.Equal(t, domain.PriorityLow, issueByKey(t, app, "WEB-2").Priority)

	_, err = executeCmd(t, app, "issues", "move", "WEB-1", "--to", "Blocked")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown group "Blocked"`)
}

func TestIssuesDelete(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := executeCmd(t, app, "issues", "delete", "WEB-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to delete WEB-2 without --yes")

	app.IsInteractive = func() bool { return true }
	app.RunForm = func(*huh.Form) error { return nil }
	out, err := executeCmd(t, app, "issues", "delete", "WEB-2")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	out, err = executeCmd(t, app, "issues", "delete", "WEB-2", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted WEB-2")

	_, err = executeCmd(t, app, "issues", "show", "WEB-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestIssuesHistory(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := executeCmd(t, app, "issues", "update", "WEB-1", "--state", "Done")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "issues", "history", "WEB-1")
	require.NoError(t, err)
	assert.Contains(t, out, "WEB-1 HISTORY")
	assert.Contains(t, out, "set the state to Done")
}

func TestIssuesLink(t *testing.T) {
	app, _ := newTestApp(t)
	var copied string
	app.Clipboard = func(s string) error {
		copied = s
		return nil
	}

	out, err := executeCmd(t, app, "issues", "link", "WEB-1", "--copy")
	require.NoError(t, err)
	assert.Contains(t, out, "trackboard://acme/browse/WEB-1")
	assert.Contains(t, out, "Copied to clipboard.")
	assert.Equal(t, "trackboard://acme/browse/WEB-1", copied)

	app.LinkBase = "https://tracker.example.com/"
	out, err = executeCmd(t, app, "issues", "link", "WEB-2")
	require.NoError(t, err)
	assert.Contains(t, out, "https://tracker.example.com/acme/browse/WEB-2/")
}

func TestViewSetAndShow(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := executeCmd(t, app, "view", "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")

	_, err = executeCmd(t, app, "view", "set", "--state", "Blocked")
	require.Error(t, err)

	out, err := executeCmd(t, app, "view", "set", "--layout", "kanban", "--group-by", "priority", "--priority", "urgent,high")
	require.NoError(t, err)
	assert.Contains(t, out, "kanban")
	assert.Contains(t, out, "urgent")

	out, err = executeCmd(t, app, "view", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "kanban")
	assert.Contains(t, out, "priority")

	// Listing picks up the saved layout and filters.
	out, err = executeCmd(t, app, "issues", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Urgent (1)")
	assert.Contains(t, out, "High (1)")
	assert.NotContains(t, out, "Polish login")

	_, err = executeCmd(t, app, "view", "set", "--clear-filters")
	require.NoError(t, err)
	out, err = executeCmd(t, app, "issues", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Polish login")
}

func TestCalendar(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := executeCmd(t, app, "calendar", "--month", "2024-03")
	require.NoError(t, err)
	assert.Contains(t, out, "MARCH 2024")
	assert.Contains(t, out, "WEB-1")

	_, err = executeCmd(t, app, "calendar", "--month", "March")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --month")
}

func TestAnalytics(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := executeCmd(t, app, "analytics", "--x-axis", "priority")
	require.NoError(t, err)
	assert.Contains(t, out, "ISSUES BY PRIORITY")
	assert.Contains(t, out, "urgent")
	assert.Contains(t, out, "high")

	path := filepath.Join(t.TempDir(), "chart.svg")
	out, err = executeCmd(t, app, "analytics", "-x", "state_group", "--svg", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), "Issues by state group")

	_, err = executeCmd(t, app, "analytics")
	require.Error(t, err)
}

func TestImport(t *testing.T) {
	app, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project:
  workspace: acme
  identifier: api
  name: API
states:
  - {ref: todo, name: Todo, group: unstarted}
issues:
  - {ref: first, name: First endpoint, state: todo}
`), 0o644))

	out, err := executeCmd(t, app, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created project API")
	assert.Contains(t, out, "API-1")

	out, err = executeCmd(t, app, "issues", "list", "-p", "api")
	require.NoError(t, err)
	assert.Contains(t, out, "First endpoint")

	app.Importer = nil
	_, err = executeCmd(t, app, "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs the local replica")
}

func TestBoardCmd_NeedsTerminal(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := executeCmd(t, app, "board")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "board needs an interactive terminal")
}

func TestIssueLink(t *testing.T) {
	assert.Equal(t, "trackboard://acme/browse/WEB-3", issueLink("", "acme", "WEB-3"))
	assert.Equal(t, "https://x.test/acme/browse/WEB-3/", issueLink("https://x.test", "acme", "WEB-3"))
}
