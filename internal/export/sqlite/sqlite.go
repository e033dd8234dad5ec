// Package sqlite writes training samples into a standalone SQLite database.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rakshalabs/raksha/internal/database/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Filename is the fixed output name inside the export directory.
const Filename = "training_samples.db"

// batchSize bounds how many inserts share one transaction.
const batchSize = 1000

// Exporter handles exporting training samples to a SQLite database.
type Exporter struct {
	outDir string
}

// New creates a new SQLite exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes all samples into a training_samples table.
func (e *Exporter) Export(samples []*types.TrainingSample) error {
	path := filepath.Join(e.outDir, Filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", Filename, err)
	}

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	err = sqlitex.Execute(conn, `
		CREATE TABLE training_samples (
			value TEXT NOT NULL,
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			ai_reasoning TEXT NOT NULL,
			scam_type TEXT NOT NULL,
			confidence REAL NOT NULL,
			language TEXT NOT NULL
		)
	`, nil)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	for i := 0; i < len(samples); i += batchSize {
		end := min(i+batchSize, len(samples))

		if err := sqlitex.Execute(conn, "BEGIN TRANSACTION", nil); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		for _, sample := range samples[i:end] {
			err := sqlitex.Execute(conn,
				`INSERT INTO training_samples
					(value, type, message, ai_reasoning, scam_type, confidence, language)
					VALUES (?, ?, ?, ?, ?, ?, ?)`,
				&sqlitex.ExecOptions{
					Args: []any{
						sample.Value,
						sample.Type,
						sample.Message,
						sample.AIReasoning,
						sample.ScamType,
						sample.Confidence,
						sample.Language,
					},
				})
			if err != nil {
				return fmt.Errorf("failed to insert record: %w", err)
			}
		}

		if err := sqlitex.Execute(conn, "COMMIT", nil); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
	}

	return nil
}
