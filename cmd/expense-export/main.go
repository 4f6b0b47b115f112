package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/EnkrateiaLucca/expense-report-automation/internal/common"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/export"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("expense-export")
	var (
		fromStr = fs.StringLong("from", "", "start of the date window (YYYY-MM-DD)")
		toStr   = fs.StringLong("to", "", "end of the date window (YYYY-MM-DD)")
		outPath = fs.StringLong("o", "expenses.xlsx", "output workbook path")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("EXPENSE")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	from, err := parseDateFlag(*fromStr)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := parseDateFlag(*toStr)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}
	if from != nil && to != nil && to.Before(*from) {
		return errors.New("--to is before --from")
	}

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := repository.Open(ctx, repository.Config{
		Driver:      cfg.Database.Driver,
		DSN:         cfg.Database.DSN,
		DialTimeout: 10 * time.Second,
	}, logger)
	if err != nil {
		return err
	}
	defer repository.Close(db, logger)

	svc := export.NewService(repository.NewExpenseRepository(db, cfg.Database.Driver), logger)
	data, err := svc.ExportExpensesXLSX(ctx, from, to)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	logger.Info("export.written", "path", *outPath, "bytes", len(data))
	return nil
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
