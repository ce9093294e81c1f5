package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/service"
	"github.com/alexanderramin/trackboard/internal/cli/views"
	"github.com/spf13/cobra"
)

func newCalendarCmd(app *App, flags *scopeFlags) *cobra.Command {
	var (
		month    string
		week     bool
		weekends bool
	)
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show issues on their target dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope, err := flags.scope(app)
			if err != nil {
				return err
			}
			var anchor time.Time
			if month != "" {
				m, err := time.ParseInLocation("2006-01", month, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --month %q (expected YYYY-MM)", month)
				}
				anchor = m
			}

			props, err := service.NewViewPropsService(app.State).Get(ctx, scope)
			if err != nil {
				return err
			}
			display := props.DisplayFilters
			display.Layout = domain.LayoutCalendar
			if cmd.Flags().Changed("week") {
				display.CalendarLayout = domain.CalendarMonth
				if week {
					display.CalendarLayout = domain.CalendarWeek
				}
			}
			if cmd.Flags().Changed("weekends") {
				display.CalendarShowWeekends = weekends
			}

			ctl, err := loadController(ctx, app, scope, service.WithDisplayFilters(display))
			if err != nil {
				return err
			}
			cal := views.NewCalendar(ctl, ctl.Lookup())
			cal.SetClock(app.now)
			if !anchor.IsZero() {
				cal.SetAnchor(anchor)
			}
			fmt.Fprint(cmd.OutOrStdout(), cal.Render(flags.width))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month to show, YYYY-MM (default: current)")
	cmd.Flags().BoolVar(&week, "week", false, "Show one week instead of a month")
	cmd.Flags().BoolVar(&weekends, "weekends", true, "Show Saturdays and Sundays")

	return cmd
}
