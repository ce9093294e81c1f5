package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/local"
	"github.com/alexanderramin/trackboard/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// Importer loads seed files. Only the local replica implements it.
type Importer interface {
	Import(ctx context.Context, seed *local.Seed) (*local.ImportResult, error)
}

// App holds everything CLI commands need.
type App struct {
	API   api.IssueAPI
	State *service.AppState
	// Importer is nil when commands run against a remote server.
	Importer Importer

	Workspace string
	Project   string
	// LinkBase prefixes issue links printed by `issues link`.
	LinkBase string

	Now           func() time.Time
	IsInteractive func() bool
	Clipboard     func(string) error
	// RunForm and RunProgram are replaced in tests.
	RunForm    func(*huh.Form) error
	RunProgram func(m tea.Model, out io.Writer) error
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) runForm(f *huh.Form) error {
	if a.RunForm != nil {
		return a.RunForm(f)
	}
	return f.Run()
}

func (a *App) runProgram(m tea.Model, out io.Writer) error {
	if a.RunProgram != nil {
		return a.RunProgram(m, out)
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(out)).Run()
	return err
}

// scopeFlags are the persistent flags narrowing every command.
type scopeFlags struct {
	width     int
	workspace string
	project   string
	cycle     string
	module    string
	view      string
}

func (f *scopeFlags) scope(app *App) (api.Scope, error) {
	s := api.Scope{
		Workspace: domain.CoalesceStr(f.workspace, app.Workspace, "default"),
		Project:   domain.CoalesceStr(f.project, app.Project),
		Cycle:     f.cycle,
		Module:    f.module,
		View:      f.view,
	}
	if s.Project == "" {
		return s, fmt.Errorf("no project selected (use --project or TRACKBOARD_PROJECT)")
	}
	return s, nil
}

// NewRootCmd creates the top-level "trackboard" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	flags := &scopeFlags{}
	root := &cobra.Command{
		Use:           "trackboard",
		Short:         "Browse and organise project issues from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.workspace, "workspace", "w", "", "Workspace slug")
	pf.StringVarP(&flags.project, "project", "p", "", "Project identifier or id")
	pf.StringVar(&flags.cycle, "cycle", "", "Narrow to a cycle")
	pf.StringVar(&flags.module, "module", "", "Narrow to a module")
	pf.StringVar(&flags.view, "view", "", "Use a saved view")
	pf.IntVar(&flags.width, "width", 120, "Output width in columns")

	root.AddCommand(
		newIssuesCmd(app, flags),
		newViewCmd(app, flags),
		newCalendarCmd(app, flags),
		newAnalyticsCmd(app, flags),
		newImportCmd(app),
		newBoardCmd(app, flags),
	)

	return root
}
