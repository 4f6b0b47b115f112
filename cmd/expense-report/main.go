package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/EnkrateiaLucca/expense-report-automation/internal/common"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/mindee"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/parse"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/repository"
)

func main() {
	if err := run(); err != nil {
		var pf *parse.ParseFailure
		if errors.As(err, &pf) {
			fmt.Fprintf(os.Stderr, "error: %v\n", pf)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("expense-report")
	var (
		imagePath = fs.StringLong("image", "", "path to the receipt image to process")
		inputJSON = fs.StringLong("input-json", "", "parse a saved prediction payload instead of calling the service")
		enhance   = fs.BoolLong("enhance", "preprocess the image before upload")
		noSave    = fs.BoolLong("no-save", "skip persisting the record")
		logLevel  = fs.StringLong("log-level", "info", "log level (debug, info, warn, error)")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("EXPENSE")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		return err
	}
	if *imagePath == "" && *inputJSON == "" {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		return errors.New("either --image or --input-json is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *inputJSON == "" {
		// Only the live path needs service credentials.
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	raw, err := fetchPrediction(ctx, cfg, *imagePath, *inputJSON, *enhance || cfg.Mindee.EnhanceUpload, logger)
	if err != nil {
		return err
	}

	parser := parse.NewParser(parse.Config{
		LowConfidenceThreshold: cfg.Parse.LowConfidenceThreshold,
	}, logger)
	rec, err := parser.Parse(raw)
	if err != nil {
		return err
	}
	status := rec.ReviewStatus(cfg.Parse.LowConfidenceThreshold)

	if !*noSave {
		db, err := repository.Open(ctx, repository.Config{
			Driver:      cfg.Database.Driver,
			DSN:         cfg.Database.DSN,
			DialTimeout: 10 * time.Second,
		}, logger)
		if err != nil {
			return err
		}
		defer repository.Close(db, logger)

		repo := repository.NewExpenseRepository(db, cfg.Database.Driver)
		id, err := repo.Save(ctx, rec, status)
		if err != nil {
			return err
		}
		rec.ID = id
		logger.Info("record.saved", "id", id.String(), "review_status", string(status))
	}

	out := struct {
		Record       any    `json:"record"`
		ReviewStatus string `json:"review_status"`
	}{Record: rec, ReviewStatus: string(status)}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// fetchPrediction returns the raw prediction payload, either replayed from a
// local file or fetched live from the document service.
func fetchPrediction(ctx context.Context, cfg *common.Config, imagePath, inputJSON string, enhance bool, logger *slog.Logger) ([]byte, error) {
	if inputJSON != "" {
		raw, err := os.ReadFile(inputJSON)
		if err != nil {
			return nil, fmt.Errorf("read prediction payload: %w", err)
		}
		return raw, nil
	}

	image, filename, err := mindee.PrepareUpload(imagePath, enhance)
	if err != nil {
		return nil, err
	}
	client := mindee.NewClient(mindee.Config{
		APIKey:  cfg.Mindee.APIKey,
		BaseURL: cfg.Mindee.BaseURL,
		Timeout: cfg.Mindee.Timeout,
	}, logger)
	return client.ParseReceipt(ctx, image, filename)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
