// Package export turns blacklist entries into model training datasets.
// Non-consented rows keep their verdict context but never their message.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/export/csv"
	"github.com/rakshalabs/raksha/internal/export/jsonl"
	"github.com/rakshalabs/raksha/internal/export/sqlite"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for formats no writer implements.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format represents a supported export format.
type Format string

const (
	FormatJSONL  Format = "jsonl"
	FormatCSV    Format = "csv"
	FormatSQLite Format = "sqlite"
)

const (
	// RedactedMessage replaces message bodies whose submitters never
	// consented to training-data use.
	RedactedMessage = "[REDACTED]"

	// DefaultMinConfidence keeps weak verdicts out of training sets unless a
	// caller asks for them.
	DefaultMinConfidence = 0.70

	// DefaultLimit caps an export when no limit is given.
	DefaultLimit = 10000
)

// Options selects and filters one export run.
type Options struct {
	Format        Format
	MinConfidence float64
	VerifiedOnly  bool
	Limit         int
	OutDir        string
}

// Store is the database surface the exporter needs.
type Store interface {
	SelectForTraining(ctx context.Context, minConfidence float64, verifiedOnly bool, limit int) ([]*types.BlacklistEntry, error)
}

// Exporter writes training datasets in the supported formats.
type Exporter struct {
	store  Store
	logger *zap.Logger
}

// New creates a new exporter instance.
func New(store Store, logger *zap.Logger) *Exporter {
	return &Exporter{
		store:  store,
		logger: logger.Named("export"),
	}
}

// Export fetches matching entries, applies redaction, and writes them in the
// requested format. Returns how many samples were written.
func (e *Exporter) Export(ctx context.Context, opts *Options) (int, error) {
	var writer interface {
		Export(samples []*types.TrainingSample) error
	}

	switch opts.Format {
	case FormatJSONL:
		writer = jsonl.New(opts.OutDir)
	case FormatCSV:
		writer = csv.New(opts.OutDir)
	case FormatSQLite:
		writer = sqlite.New(opts.OutDir)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.Format)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	entries, err := e.store.SelectForTraining(ctx, opts.MinConfidence, opts.VerifiedOnly, limit)
	if err != nil {
		return 0, err
	}

	samples := ToTrainingSamples(entries)

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writer.Export(samples); err != nil {
		return 0, err
	}

	e.logger.Info("Exported training samples",
		zap.Int("count", len(samples)),
		zap.String("format", string(opts.Format)),
		zap.String("outDir", opts.OutDir))

	return len(samples), nil
}

// ToTrainingSamples projects blacklist entries into the export shape.
// Entries without a consented message body are redacted.
func ToTrainingSamples(entries []*types.BlacklistEntry) []*types.TrainingSample {
	samples := make([]*types.TrainingSample, len(entries))

	for i, entry := range entries {
		sample := &types.TrainingSample{
			Value:    entry.Value,
			Type:     string(entry.Type),
			Message:  RedactedMessage,
			Language: "en",
		}

		if entry.FullMessage != nil {
			sample.Message = *entry.FullMessage
		}

		if entry.AIReasoning != nil {
			sample.AIReasoning = *entry.AIReasoning
		}

		if entry.ScamType != nil {
			sample.ScamType = *entry.ScamType
		}

		if entry.Confidence != nil {
			sample.Confidence = *entry.Confidence
		}

		if entry.Language != nil {
			sample.Language = *entry.Language
		}

		samples[i] = sample
	}

	return samples
}
