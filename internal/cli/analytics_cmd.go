package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/alexanderramin/trackboard/internal/analytics"
	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/cli/formatter"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/service"
	"github.com/spf13/cobra"
)

func newAnalyticsCmd(app *App, flags *scopeFlags) *cobra.Command {
	var (
		xAxis, yAxis, segment string
		allProjects           bool
		svgPath               string
	)
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Chart issue counts or estimates by a dimension",
		Long: `Chart issue counts or estimates by a dimension.

Dimensions: state, state_group, priority, labels, assignees, created_by,
cycle, module, target_date, start_date, created_at, completed_at.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q := api.AnalyticsQuery{XAxis: xAxis, YAxis: yAxis, Segment: segment}
			workspace := domain.CoalesceStr(flags.workspace, app.Workspace, "default")
			if !allProjects {
				scope, err := flags.scope(app)
				if err != nil {
					return err
				}
				p, err := app.API.GetProject(ctx, scope)
				if err != nil {
					return fmt.Errorf("getting project: %w", err)
				}
				q.Projects = []string{p.ID}
			}

			data, err := service.NewAnalyticsService(app.State).BarGraph(ctx, workspace, q)
			if err != nil {
				return err
			}

			title := "Issues by " + strings.ReplaceAll(xAxis, "_", " ")
			if yAxis == analytics.YAxisEstimate {
				title = "Estimate by " + strings.ReplaceAll(xAxis, "_", " ")
			}
			if svgPath != "" {
				f, err := os.Create(svgPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", svgPath, err)
				}
				formatter.WriteBarChartSVG(f, data, title)
				if err := f.Close(); err != nil {
					return fmt.Errorf("writing %s: %w", svgPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", svgPath)
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.Header(title))
			fmt.Fprint(out, formatter.RenderBarChart(data, max(flags.width-40, 10)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&xAxis, "x-axis", "x", "", "Dimension to bucket by (required)")
	cmd.Flags().StringVarP(&yAxis, "y-axis", "y", analytics.YAxisIssueCount, "issue_count or estimate")
	cmd.Flags().StringVar(&segment, "segment", "", "Second dimension to stack bars by")
	cmd.Flags().BoolVar(&allProjects, "all-projects", false, "Aggregate the whole workspace")
	cmd.Flags().StringVar(&svgPath, "svg", "", "Write the chart to an SVG file instead")
	_ = cmd.MarkFlagRequired("x-axis")

	return cmd
}
