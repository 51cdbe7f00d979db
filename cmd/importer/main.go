package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/propgraph/propgraph/pkg/config"
	"github.com/propgraph/propgraph/pkg/importer"
	"github.com/propgraph/propgraph/pkg/logging"
	"github.com/propgraph/propgraph/pkg/store/gormstore"
)

func main() {
	entity := flag.String("entity", "", "collection to import: masterDevelopment, subDevelopment, project, inventory or customer")
	file := flag.String("file", "", "path to an .xlsx or .csv file")
	user := flag.String("user", "", "user id recorded as the owner of imported records")
	flag.Parse()

	if *entity == "" || *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	collection, err := importer.ParseCollection(*entity)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	store, err := gormstore.NewStore(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if cfg.Database.AutoMigrate {
		if err := store.AutoMigrate(); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sheet, err := importer.ReadFile(*file)
	if err != nil {
		logger.Fatal("Failed to read file", zap.String("file", *file), zap.Error(err))
	}

	report, err := importer.New(store.DB(), cfg.Import, logger).Import(ctx, collection, sheet, *user)
	if err != nil {
		logger.Fatal("Import failed", zap.String("entity", *entity), zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("Failed to write report", zap.Error(err))
	}
	if !report.Success {
		os.Exit(1)
	}
}
