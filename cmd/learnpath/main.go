package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/learnpath/internal/app"
	"github.com/alexanderramin/learnpath/internal/catalog"
	"github.com/alexanderramin/learnpath/internal/cli"
	"github.com/alexanderramin/learnpath/internal/config"
	"github.com/alexanderramin/learnpath/internal/db"
	"github.com/alexanderramin/learnpath/internal/logger"
	"github.com/alexanderramin/learnpath/internal/repository"
	"github.com/alexanderramin/learnpath/internal/service"
	"github.com/alexanderramin/learnpath/internal/store"
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

	log, err := logger.New(cfg.LogMode, cfg.LogHashSalt)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)
	observer := service.NewLogUseCaseObserver(log)

	// Wire services
	durable := service.NewDurableProgress(service.NewSQLiteProgressRepos(database), uow, observer)
	certificates := service.NewCertificateService(repository.NewSQLiteCertificateRepo(database), uow, observer)

	a := &cli.App{
		Catalog:       cat,
		Durable:       durable,
		Certificates:  certificates,
		Guest:         app.NewGuestFile(cfg.GuestPath),
		Store:         store.Options{SaveDebounce: cfg.SaveDebounce},
		Log:           log,
		DefaultUserID: cfg.DefaultUserID,
		HTTPAddr:      cfg.HTTPAddr,
	}

	// Detect interactive terminal for the bypass course picker.
	a.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(a).Execute()
}
