package cli

import (
	"fmt"

	"github.com/alexanderramin/trackboard/internal/cli/formatter"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/service"
	"github.com/spf13/cobra"
)

func newViewCmd(app *App, flags *scopeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show or change the saved display options of a view",
	}

	cmd.AddCommand(
		newViewShowCmd(app, flags),
		newViewSetCmd(app, flags),
	)

	return cmd
}

func newViewShowCmd(app *App, flags *scopeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the view's layout, grouping, ordering and filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			props, err := service.NewViewPropsService(app.State).Get(ctx, scope)
			if err != nil {
				return err
			}
			meta, err := service.LoadMetadata(ctx, app.API, scope)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatViewProps(props, meta.Lookup()))
			return nil
		},
	}
}

func newViewSetCmd(app *App, flags *scopeFlags) *cobra.Command {
	var (
		display      displayFlags
		filters      filterFlags
		clearFilters bool
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change and save the view's display options and filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs := cmd.Flags()
			if !display.changed(fs) && !filters.changed(fs) && !clearFilters {
				return fmt.Errorf("nothing to change (see --help for options)")
			}
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			meta, err := service.LoadMetadata(ctx, app.API, scope)
			if err != nil {
				return err
			}
			lookup := meta.Lookup()
			// Resolve names up front so a typo saves nothing.
			if _, err := filters.apply(fs, domain.IssueFilters{}, lookup); err != nil {
				return err
			}

			props, err := service.NewViewPropsService(app.State).Update(ctx, scope, func(p *domain.ViewProps) {
				if clearFilters {
					p.Filters = domain.IssueFilters{}
				}
				p.DisplayFilters = display.apply(fs, p.DisplayFilters)
				p.Filters, _ = filters.apply(fs, p.Filters, lookup)
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatViewProps(props, lookup))
			return nil
		},
	}

	display.register(cmd.Flags())
	filters.register(cmd.Flags())
	cmd.Flags().BoolVar(&clearFilters, "clear-filters", false, "Remove all saved filters before applying new ones")

	return cmd
}
