package cli

import (
	"fmt"

	"github.com/alexanderramin/trackboard/internal/cli/formatter"
	"github.com/alexanderramin/trackboard/internal/local"
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a project and its issues from a YAML or JSON seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Importer == nil {
				return fmt.Errorf("import needs the local replica (unset TRACKBOARD_API_URL)")
			}
			seed, err := local.LoadSeed(args[0])
			if err != nil {
				return fmt.Errorf("loading seed: %w", err)
			}

			stop := formatter.StartSpinner(cmd.ErrOrStderr(), "Importing "+args[0])
			res, err := app.Importer.Import(cmd.Context(), seed)
			stop()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatImportResult(res))
			return nil
		},
	}
}
