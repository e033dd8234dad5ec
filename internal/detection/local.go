package detection

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rakshalabs/raksha/internal/ai"
	"github.com/rakshalabs/raksha/internal/detection/patterns"
	"go.uber.org/zap"
)

// ollamaRequest is the generate call accepted by Ollama-compatible servers.
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
	TopP        float64 `json:"top_p"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// localRequest is the payload embedded in the local model prompt. It mirrors
// the remote request shape minus the pattern hints, which a small local
// model tends to parrot instead of verify.
type localRequest struct {
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

// OllamaModel classifies messages against a local Ollama-compatible
// inference server. It shares the remote stage's prompt and response schema
// so both stages decode through the same verdict parser.
type OllamaModel struct {
	endpoint string
	model    string
	system   string
	client   *http.Client
	logger   *zap.Logger
}

// NewOllamaModel creates a local model stage against the given base URL,
// typically http://localhost:11434.
func NewOllamaModel(baseURL, model string, timeout time.Duration, logger *zap.Logger) *OllamaModel {
	buckets := patterns.Buckets()
	taxonomy := make([]string, 0, len(buckets))

	for _, bucket := range buckets {
		taxonomy = append(taxonomy, string(bucket))
	}

	return &OllamaModel{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/api/generate",
		model:    model,
		system:   fmt.Sprintf(ai.TextSystemPrompt, strings.Join(taxonomy, "\n")),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.Named("local_model"),
	}
}

// Classify runs one message through the local model. Any transport or
// schema failure is returned to the caller, which skips the stage.
func (m *OllamaModel) Classify(ctx context.Context, message, sender string) (*ai.ModelVerdict, error) {
	payload, err := sonic.Marshal(localRequest{Message: message, Sender: sender})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := sonic.Marshal(ollamaRequest{
		Model:  m.model,
		Prompt: m.system + "\n\n" + fmt.Sprintf(ai.TextRequestPrompt, payload),
		Stream: false,
		Format: "json",
		Options: ollamaOptions{
			Temperature: 0.2,
			TopK:        1,
			TopP:        0.1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generate call: %w", err)
	}

	req.Header.Set("Content-Type", ai.ApplicationJSON)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local model unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: local model returned status %d", ai.ErrModelResponse, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read generate response: %w", err)
	}

	var generated ollamaResponse
	if err := sonic.Unmarshal(data, &generated); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrModelResponse, err)
	}

	verdict, err := ai.DecodeVerdict([]byte(generated.Response))
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Local model classified message",
		zap.String("level", string(verdict.Level)),
		zap.Float64("confidence", verdict.Confidence))

	return verdict, nil
}
