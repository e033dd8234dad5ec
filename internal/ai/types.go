package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
)

const (
	// ApplicationJSON is the MIME type for JSON content.
	ApplicationJSON = "application/json"

	// VerdictCacheSize caps the in-process verdict cache.
	VerdictCacheSize = 1024
)

// Package-level errors.
var (
	// ErrModelResponse indicates the model returned no usable response.
	ErrModelResponse = errors.New("model response error")
	// ErrAllModelsFailed indicates every configured vision model was tried
	// without success.
	ErrAllModelsFailed = errors.New("all vision models failed")
)

// ModelVerdict is the normalized result of one remote model call.
type ModelVerdict struct {
	Level      enum.RiskLevel
	Reason     string
	ScamType   *string
	Confidence float64
	Language   string
}

// modelResponse mirrors the JSON schema the models are constrained to.
type modelResponse struct {
	RiskLevel        string  `json:"risk_level"`
	Reason           string  `json:"reason"`
	ScamType         *string `json:"scam_type"`
	Confidence       float64 `json:"confidence"`
	OriginalLanguage string  `json:"original_language"`
}

// CacheKey builds the verdict cache key for a message/sender pair. The NUL
// separator keeps distinct pairs from colliding on concatenation.
func CacheKey(message, sender string) string {
	return message + "\x00" + sender
}

// stripJSONFence removes a Markdown code fence around a JSON payload. Models
// occasionally wrap responses in fences despite the JSON response MIME type.
func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)

	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// DecodeVerdict parses a raw model response into a verdict, stripping code
// fences and normalizing the risk level. Out-of-range confidence values are
// rejected so a malformed response never drives the pipeline.
func DecodeVerdict(raw []byte) (*ModelVerdict, error) {
	cleaned := stripJSONFence(string(raw))

	var resp modelResponse
	if err := sonic.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelResponse, err)
	}

	if resp.Confidence < 0 || resp.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence out of range", ErrModelResponse)
	}

	scamType := resp.ScamType
	if scamType != nil && *scamType == "" {
		scamType = nil
	}

	return &ModelVerdict{
		Level:      enum.NormalizeRiskLevel(resp.RiskLevel),
		Reason:     resp.Reason,
		ScamType:   scamType,
		Confidence: resp.Confidence,
		Language:   resp.OriginalLanguage,
	}, nil
}
