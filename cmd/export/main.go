package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rakshalabs/raksha/internal/export"
	"github.com/rakshalabs/raksha/internal/setup"
	"github.com/urfave/cli/v3"
)

// ExportLogDir specifies where export log files are stored.
const ExportLogDir = "logs/export_logs"

var ErrInvalidFormat = errors.New("invalid export format")

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "export",
		Usage: "Export blacklist entries as model training datasets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   string(export.FormatJSONL),
				Usage:   "Output format (jsonl, csv or sqlite)",
			},
			&cli.Float64Flag{
				Name:    "min-confidence",
				Aliases: []string{"c"},
				Value:   export.DefaultMinConfidence,
				Usage:   "Exclude entries below this confidence",
			},
			&cli.BoolFlag{
				Name:    "verified-only",
				Aliases: []string{"v"},
				Usage:   "Export only analyst-verified entries",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of entries to export",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "exports",
				Usage:   "Base output directory for export files",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			format := export.Format(c.String("format"))
			switch format {
			case export.FormatJSONL, export.FormatCSV, export.FormatSQLite:
			default:
				return fmt.Errorf("%w: %s", ErrInvalidFormat, format)
			}

			// Initialize application with required dependencies
			app, err := setup.InitializeApp(ctx, ExportLogDir)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Cleanup(ctx)

			// Create timestamped output directory
			timestamp := time.Now().UTC().Format("2006-01-02_150405")
			outDir := filepath.Join(c.String("output"), timestamp)

			exporter := export.New(app.DB.Model().Blacklist(), app.Logger)

			count, err := exporter.Export(ctx, &export.Options{
				Format:        format,
				MinConfidence: c.Float64("min-confidence"),
				VerifiedOnly:  c.Bool("verified-only"),
				Limit:         int(c.Int("limit")),
				OutDir:        outDir,
			})
			if err != nil {
				return fmt.Errorf("failed to export data: %w", err)
			}

			log.Printf("Exported %d training samples to %s", count, outDir)

			return nil
		},
	}

	return app.Run(context.Background(), os.Args)
}
