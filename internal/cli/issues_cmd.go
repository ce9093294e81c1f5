package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/cli/formatter"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/grouping"
	"github.com/alexanderramin/trackboard/internal/service"
	"github.com/alexanderramin/trackboard/internal/cli/views"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/huh"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

func newIssuesCmd(app *App, flags *scopeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue", "i"},
		Short:   "List and change issues",
	}

	cmd.AddCommand(
		newIssuesListCmd(app, flags),
		newIssuesShowCmd(app, flags),
		newIssuesUpdateCmd(app, flags),
		newIssuesEditCmd(app, flags),
		newIssuesMoveCmd(app, flags),
		newIssuesDeleteCmd(app, flags),
		newIssuesHistoryCmd(app, flags),
		newIssuesLinkCmd(app, flags),
	)

	return cmd
}

// listOptions turns display and filter flags into controller overrides on
// top of the view's saved props.
func listOptions(ctx context.Context, cmd *cobra.Command, app *App, scope api.Scope, d *displayFlags, f *filterFlags) ([]service.ControllerOption, error) {
	fs := cmd.Flags()
	if !d.changed(fs) && (f == nil || !f.changed(fs)) {
		return nil, nil
	}
	props, err := service.NewViewPropsService(app.State).Get(ctx, scope)
	if err != nil {
		return nil, err
	}
	var opts []service.ControllerOption
	if d.changed(fs) {
		opts = append(opts, service.WithDisplayFilters(d.apply(fs, props.DisplayFilters)))
	}
	if f != nil && f.changed(fs) {
		meta, err := service.LoadMetadata(ctx, app.API, scope)
		if err != nil {
			return nil, err
		}
		filters, err := f.apply(fs, props.Filters, meta.Lookup())
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithFilters(filters))
	}
	return opts, nil
}

func newIssuesListCmd(app *App, flags *scopeFlags) *cobra.Command {
	var (
		display displayFlags
		filters filterFlags
		search  string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List issues in the view's layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			opts, err := listOptions(ctx, cmd, app, scope, &display, &filters)
			if err != nil {
				return err
			}
			ctl, err := loadController(ctx, app, scope, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if search != "" {
				fmt.Fprint(out, searchResults(ctl, search, flags.width))
				return nil
			}
			adapter := views.ForLayout(ctl.DisplayFilters().Layout, ctl, ctl.Lookup())
			if c, ok := adapter.(interface{ SetClock(func() time.Time) }); ok {
				c.SetClock(app.now)
			}
			fmt.Fprint(out, adapter.Render(flags.width))
			return nil
		},
	}

	display.register(cmd.Flags())
	filters.register(cmd.Flags())
	cmd.Flags().StringVarP(&search, "search", "s", "", "Fuzzy match issue keys and names")

	return cmd
}

// searchResults ranks the view's issues by fuzzy match against "KEY name".
func searchResults(ctl service.IssueListController, query string, width int) string {
	issues := views.Flatten(ctl.Group())
	ident := strings.ToUpper(ctl.Scope().Project)
	targets := make([]string, len(issues))
	for i, is := range issues {
		targets[i] = domain.IssueKey(ident, is.SequenceID) + " " + is.Name
	}
	matches := fuzzy.Find(query, targets)
	if len(matches) == 0 {
		return formatter.Dim(fmt.Sprintf("No issues match %q.", query)) + "\n"
	}
	lookup := ctl.Lookup()
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		is := issues[m.Index]
		rows = append(rows, []string{
			domain.IssueKey(ident, is.SequenceID),
			is.Name,
			lookup.StateName(is.StateID),
			string(is.Priority),
		})
	}
	return formatter.RenderTableMax([]string{"KEY", "NAME", "STATE", "PRIORITY"}, rows, max(width/2, 20))
}

func newIssuesShowCmd(app *App, flags *scopeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an issue with its description and sub-issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			is, err := resolveIssue(ctx, app, scope, args[0])
			if err != nil {
				return err
			}
			meta, err := service.LoadMetadata(ctx, app.API, scope)
			if err != nil {
				return err
			}
			all, err := app.API.ListIssues(ctx, projectOnly(scope), domain.IssueFilters{}, domain.DisplayFilters{SubIssues: true})
			if err != nil {
				return fmt.Errorf("listing sub-issues: %w", err)
			}
			var children []domain.Issue
			for _, c := range all {
				if c.ParentID == is.ID {
					children = append(children, c)
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatIssueDetail(formatter.IssueDetail{
				Issue:       *is,
				Identifier:  projectIdentifier(ctx, app, scope),
				Lookup:      meta.Lookup(),
				Description: renderMarkdown(is.Description, flags.width, app.interactive()),
				Children:    children,
				Now:         app.now(),
			}))
			return nil
		},
	}
}

// updateColumns maps `issues update` flags to spreadsheet columns.
var updateColumns = []struct{ flag, column string }{
	{"name", "name"},
	{"state", "state"},
	{"priority", "priority"},
	{"assignees", "assignees"},
	{"labels", "labels"},
	{"start", "start_date"},
	{"target", "target_date"},
	{"estimate", "estimate"},
}

func newIssuesUpdateCmd(app *App, flags *scopeFlags) *cobra.Command {
	values := make(map[string]*string, len(updateColumns))
	var description string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change issue fields",
		Long: `Change issue fields. States, labels and members are matched by name or id.
Pass an empty value to clear assignees, labels or dates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			ctl, err := loadController(ctx, app, scope)
			if err != nil {
				return err
			}
			is, err := resolveIssue(ctx, app, scope, args[0])
			if err != nil {
				return err
			}

			var patch domain.IssuePatch
			for _, u := range updateColumns {
				if !cmd.Flags().Changed(u.flag) {
					continue
				}
				p, err := views.ParseCell(u.column, *values[u.flag], ctl.Lookup())
				if err != nil {
					return err
				}
				mergePatch(&patch, p)
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update (set at least one field flag)")
			}

			if err := ctl.UpdateIssue(ctx, is.ID, patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", domain.IssueKey(projectIdentifier(ctx, app, scope), is.SequenceID), fieldNames(patch))
			return nil
		},
	}

	for _, u := range updateColumns {
		v := new(string)
		values[u.flag] = v
		cmd.Flags().StringVar(v, u.flag, "", "New "+strings.ReplaceAll(u.column, "_", " "))
	}
	cmd.Flags().StringVar(&description, "description", "", "New description (markdown)")

	return cmd
}

func newIssuesEditCmd(app *App, flags *scopeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit ID",
		Short: "Edit an issue in an interactive form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("issues edit needs an interactive terminal (use issues update)")
			}
			ctx := cmd.Context()
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			ctl, err := loadController(ctx, app, scope)
			if err != nil {
				return err
			}
			is, err := resolveIssue(ctx, app, scope, args[0])
			if err != nil {
				return err
			}

			values := newEditValues(*is)
			if err := app.runForm(issueEditForm(&values, ctl.Metadata())); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), "Edit cancelled.")
					return nil
				}
				return err
			}
			patch, err := values.patch(*is, ctl.Lookup())
			if err != nil {
				return err
			}
			key := domain.IssueKey(projectIdentifier(ctx, app, scope), is.SequenceID)
			if patch.IsEmpty() {
				fmt.Fprintf(cmd.OutOrStdout(), "No changes to %s.\n", key)
				return nil
			}
			if err := ctl.UpdateIssue(ctx, is.ID, patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", key, fieldNames(patch))
			return nil
		},
	}
}

func newIssuesMoveCmd(app *App, flags *scopeFlags) *cobra.Command {
	var (
		display displayFlags
		to      string
		index   int
	)
	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Move an issue to another group or position, as a board drag would",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			opts, err := listOptions(ctx, cmd, app, scope, &display, nil)
			if err != nil {
				return err
			}
			ctl, err := loadController(ctx, app, scope, opts...)
			if err != nil {
				return err
			}
			is, err := resolveIssue(ctx, app, scope, args[0])
			if err != nil {
				return err
			}
			from, err := findPosition(ctl, is.ID)
			if err != nil {
				return err
			}

			toKey := from.Key
			if to != "" {
				if toKey, err = resolveGroupKey(ctl, to); err != nil {
					return err
				}
			}
			toIndex := index
			if !cmd.Flags().Changed("index") {
				toIndex = len(ctl.Group().Groups[toKey])
			}
			if err := ctl.Move(ctx, from, toKey, toIndex); err != nil {
				return err
			}

			title := ctl.Lookup().GroupTitle(ctl.DisplayFilters().GroupBy, toKey, grouping.NoneKey)
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", domain.IssueKey(projectIdentifier(ctx, app, scope), is.SequenceID), title)
			return nil
		},
	}

	display.register(cmd.Flags())
	cmd.Flags().StringVar(&to, "to", "", "Target group key or title (default: the issue's group)")
	cmd.Flags().IntVar(&index, "index", 0, "Position in the target group (default: last)")

	return cmd
}

func newIssuesDeleteCmd(app *App, flags *scopeFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			ctl, err := loadController(ctx, app, scope)
			if err != nil {
				return err
			}
			is, err := resolveIssue(ctx, app, scope, args[0])
			if err != nil {
				return err
			}
			key := domain.IssueKey(projectIdentifier(ctx, app, scope), is.SequenceID)

			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to delete %s without --yes", key)
				}
				confirmed := false
				if err := app.runForm(confirmForm(fmt.Sprintf("Delete %s %q?", key, is.Name), &confirmed)); err != nil && !errors.Is(err, huh.ErrUserAborted) {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			pos, err := findPosition(ctl, is.ID)
			if err != nil {
				return err
			}
			if err := ctl.Remove(ctx, pos.Key, pos.Index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", key)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newIssuesHistoryCmd(app *App, flags *scopeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Show an issue's activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			is, err := resolveIssue(ctx, app, scope, args[0])
			if err != nil {
				return err
			}
			meta, err := service.LoadMetadata(ctx, app.API, scope)
			if err != nil {
				return err
			}
			lines, err := service.NewActivityService(app.State).History(ctx, scope, is.ID, meta.Lookup())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			key := domain.IssueKey(projectIdentifier(ctx, app, scope), is.SequenceID)
			fmt.Fprintln(out, formatter.Header(key+" history"))
			fmt.Fprint(out, formatter.FormatActivity(lines, app.now()))
			return nil
		},
	}
}

// issueLink builds the web URL of an issue. Without a server the link uses
// the trackboard:// scheme.
func issueLink(base, workspace, key string) string {
	if base == "" {
		return fmt.Sprintf("trackboard://%s/browse/%s", workspace, key)
	}
	return fmt.Sprintf("%s/%s/browse/%s/", strings.TrimRight(base, "/"), workspace, key)
}

func newIssuesLinkCmd(app *App, flags *scopeFlags) *cobra.Command {
	var copyLink bool
	cmd := &cobra.Command{
		Use:   "link ID",
		Short: "Print an issue's link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			is, err := resolveIssue(ctx, app, scope, args[0])
			if err != nil {
				return err
			}
			link := issueLink(app.LinkBase, scope.Workspace, domain.IssueKey(projectIdentifier(ctx, app, scope), is.SequenceID))
			fmt.Fprintln(cmd.OutOrStdout(), link)

			if copyLink {
				write := app.Clipboard
				if write == nil {
					write = clipboard.WriteAll
				}
				if err := write(link); err != nil {
					return fmt.Errorf("copying link: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Copied to clipboard."))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&copyLink, "copy", "c", false, "Copy the link to the clipboard")

	return cmd
}
