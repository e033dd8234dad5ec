// Package csv writes training samples as tabular data.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rakshalabs/raksha/internal/database/types"
)

// Filename is the fixed output name inside the export directory.
const Filename = "training_samples.csv"

// Header names the exported columns in order.
var Header = []string{"value", "type", "message", "ai_reasoning", "scam_type", "confidence", "language"}

// Exporter handles exporting training samples to csv files.
type Exporter struct {
	outDir string
}

// New creates a new csv exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes all samples to a single csv file.
func (e *Exporter) Export(samples []*types.TrainingSample) error {
	path := filepath.Join(e.outDir, Filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", Filename, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, sample := range samples {
		if err := writer.Write([]string{
			sample.Value,
			sample.Type,
			sample.Message,
			sample.AIReasoning,
			sample.ScamType,
			fmt.Sprintf("%.2f", sample.Confidence),
			sample.Language,
		}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	return nil
}
