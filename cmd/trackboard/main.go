package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/cli"
	"github.com/alexanderramin/trackboard/internal/config"
	"github.com/alexanderramin/trackboard/internal/db"
	"github.com/alexanderramin/trackboard/internal/local"
	"github.com/alexanderramin/trackboard/internal/service"
	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app := &cli.App{
		Workspace: cfg.Workspace,
		Project:   cfg.Project,
		LinkBase:  cfg.APIURL,
		Clipboard: clipboard.WriteAll,
	}

	// Empty API URL: serve everything from the local SQLite replica.
	if cfg.UseLocal() {
		database, err := db.OpenDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		backend := local.NewBackend(database, db.NewSQLiteUnitOfWork(database), cfg.Actor)
		app.API = backend
		app.Importer = backend
	} else {
		app.API = api.NewClient(cfg.APIURL, cfg.APIToken, cfg.HTTPTimeout())
	}

	var observer service.UseCaseObserver = service.NoopUseCaseObserver{}
	if cfg.LogUseCases {
		observer = service.NewLogUseCaseObserver(os.Stderr)
	}
	app.State = service.NewAppState(app.API, cfg.CacheTTL(),
		service.WithNotifier(service.NewWriterNotifier(os.Stderr)),
		service.WithObserver(observer),
	)

	// Detect interactive terminal for forms and the board.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
