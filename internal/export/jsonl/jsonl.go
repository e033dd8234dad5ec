// Package jsonl writes training samples as OpenAI-style fine-tuning lines.
package jsonl

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/rakshalabs/raksha/internal/database/types"
)

// Filename is the fixed output name inside the export directory.
const Filename = "training_samples.jsonl"

// Message is one chat turn of a fine-tuning sample.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Record is one JSONL training line: the scam message as the user turn, the
// analysis as the assistant turn, and the verdict fields alongside.
type Record struct {
	Messages   []Message `json:"messages"`
	Label      string    `json:"label"`
	ScamType   string    `json:"scam_type"`
	Confidence float64   `json:"confidence"`
	Language   string    `json:"language"`
}

// Records converts samples into fine-tuning records. Shared with the REST
// export endpoint, which returns the same shape inline.
func Records(samples []*types.TrainingSample) []*Record {
	records := make([]*Record, len(samples))

	for i, sample := range samples {
		records[i] = &Record{
			Messages: []Message{
				{Role: "user", Content: sample.Message},
				{Role: "assistant", Content: sample.AIReasoning},
			},
			Label:      "scam",
			ScamType:   sample.ScamType,
			Confidence: sample.Confidence,
			Language:   sample.Language,
		}
	}

	return records
}

// Exporter handles exporting training samples to a JSONL file.
type Exporter struct {
	outDir string
}

// New creates a new JSONL exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes all samples to a single JSONL file, one record per line.
func (e *Exporter) Export(samples []*types.TrainingSample) error {
	path := filepath.Join(e.outDir, Filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", Filename, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create jsonl file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	for _, record := range Records(samples) {
		line, err := sonic.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}

		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush jsonl file: %w", err)
	}

	return nil
}
