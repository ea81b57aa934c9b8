package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	statementspg "github.com/kevinwong150/journalex-sub001/internal/modules/statements/pg"
	"github.com/kevinwong150/journalex-sub001/internal/modules/statements/service"
	"github.com/kevinwong150/journalex-sub001/pkg/db"
	"github.com/kevinwong150/journalex-sub001/pkg/logger"
)

// One-shot importer: reads an activity-statement CSV export and ingests
// it into the execution store.
//
//	DATABASE_DSN=postgres://... go run ./cmd/import --file statement.csv

func run() error {
	viper.SetDefault("file", "statement.csv")
	viper.AutomaticEnv()
	_ = viper.BindEnv("dsn", "DATABASE_DSN")

	if len(os.Args) > 2 && os.Args[1] == "--file" {
		viper.Set("file", os.Args[2])
	}

	dsn := viper.GetString("dsn")
	if dsn == "" {
		return errors.New("DATABASE_DSN is required")
	}

	file, err := os.Open(viper.GetString("file"))
	if err != nil {
		return errors.Wrap(err, "open statement file")
	}
	defer func() {
		_ = file.Close()
	}()

	rows, err := service.ParseStatement(file)
	if err != nil {
		return errors.Wrap(err, "parse statement")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn})
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	txm := db.NewPgTxManager(pool)
	defer txm.Close()

	ingestor := service.NewIngestor(statementspg.NewExecutions(txm))
	report, err := ingestor.IngestStatement(ctx, rows)
	if err != nil {
		return errors.Wrap(err, "ingest statement")
	}

	fmt.Printf("run %s: inserted=%d skipped=%d rejected=%d\n",
		report.RunID, report.Inserted, report.Skipped, report.Rejected)
	return nil
}

func main() {
	logger.SetServiceName("journalex-import")
	if err := logger.Init(); err != nil {
		panic(err)
	}
	if err := run(); err != nil {
		logger.Fatal("import: %v", err)
	}
}
