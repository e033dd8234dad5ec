package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/generative-ai-go/genai"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/detection/patterns"
	"github.com/rakshalabs/raksha/internal/setup"
	"github.com/rakshalabs/raksha/pkg/utils"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/json"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	// TextSystemPrompt instructs the model to classify one message against the
	// known scam taxonomy. The taxonomy list is appended at construction time.
	TextSystemPrompt = `You are a scam detection analyst reviewing SMS and chat messages received by users in India.

Input format:
{
  "message": "raw message text",
  "sender": "sender id or phone number, may be empty",
  "pattern_hints": ["indicator categories already matched by a local ruleset"]
}

Output format:
{
  "risk_level": "HIGH, MEDIUM, or LOW",
  "reason": "one sentence explanation a non-technical user understands",
  "scam_type": "one of the known scam types below, or null when the message is safe",
  "confidence": 0.0-1.0,
  "original_language": "ISO 639-1 code of the message language"
}

Risk levels:
HIGH: message is almost certainly an attempt to steal money, credentials, or OTPs
MEDIUM: suspicious indicators are present but intent is not certain
LOW: ordinary personal or service communication

Key rules:
1. Judge intent, not tone. Polite messages can still be scams.
2. Messages asking for OTP, PIN, CVV, or password are HIGH.
3. Unsolicited prize, job, loan, or investment offers demanding a fee are HIGH.
4. Shortened links and urgency phrasing raise suspicion but are not proof.
5. Do not penalize messages merely for being in Hindi or a regional language.
6. pattern_hints are advisory. Confirm or reject them from the message text.
7. Set confidence from the evidence in the message alone.

Known scam types:
%s`

	// TextRequestPrompt is the per-request reminder wrapped around the payload.
	TextRequestPrompt = `Classify this message according to your system instructions.

Remember:
- Return LOW with scam_type null for ordinary messages
- Keep the reason to one sentence
- Follow the confidence guidance strictly

MESSAGE DATA:
%s`
)

// textRequest is the payload serialized into the model prompt.
type textRequest struct {
	Message      string   `json:"message"`
	Sender       string   `json:"sender,omitempty"`
	PatternHints []string `json:"pattern_hints,omitempty"`
}

// TextAnalyzer classifies message text with the remote Gemini model. Results
// for identical (message, sender) pairs are served from an in-process cache.
type TextAnalyzer struct {
	model   *genai.GenerativeModel
	minify  *minify.M
	sem     *semaphore.Weighted
	cache   *utils.LRU[string, ModelVerdict]
	timeout time.Duration
	retry   utils.RetryOptions
	logger  *zap.Logger
}

// NewTextAnalyzer creates a TextAnalyzer from the app's Gemini client.
func NewTextAnalyzer(app *setup.App, logger *zap.Logger) *TextAnalyzer {
	buckets := patterns.Buckets()
	taxonomy := make([]string, 0, len(buckets))

	for _, bucket := range buckets {
		taxonomy = append(taxonomy, string(bucket))
	}

	// Create text analysis model
	textModel := app.GenAIClient.GenerativeModel(app.Config.Gemini.Model)
	textModel.SystemInstruction = genai.NewUserContent(
		genai.Text(fmt.Sprintf(TextSystemPrompt, strings.Join(taxonomy, "\n"))),
	)
	textModel.ResponseMIMEType = ApplicationJSON
	textModel.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"risk_level": {
				Type:        genai.TypeString,
				Description: "Risk classification: HIGH, MEDIUM, or LOW",
			},
			"reason": {
				Type:        genai.TypeString,
				Description: "One sentence explanation of the classification",
			},
			"scam_type": {
				Type:        genai.TypeString,
				Nullable:    true,
				Description: "Known scam type, or null when the message is safe",
			},
			"confidence": {
				Type:        genai.TypeNumber,
				Description: "Confidence score between 0.0 and 1.0",
			},
			"original_language": {
				Type:        genai.TypeString,
				Description: "ISO 639-1 code of the message language",
			},
		},
		Required: []string{"risk_level", "reason", "confidence", "original_language"},
	}
	textModel.SetTemperature(0.2)
	textModel.SetTopP(0.1)
	textModel.SetTopK(1)

	// Create minifier for JSON
	m := minify.New()
	m.AddFunc(ApplicationJSON, json.Minify)

	return &TextAnalyzer{
		model:   textModel,
		minify:  m,
		sem:     semaphore.NewWeighted(app.Config.Gemini.MaxConcurrent),
		cache:   utils.NewLRU[string, ModelVerdict](VerdictCacheSize),
		timeout: time.Duration(app.Config.Detection.RemoteTimeoutSeconds) * time.Second,
		retry:   retryOptions(app),
		logger:  logger.Named("ai_text"),
	}
}

// Analyze classifies one message. A transport failure after retries returns
// an error so the caller can fall back to its pattern verdict; an unusable
// response body instead degrades to the safer MEDIUM default.
func (a *TextAnalyzer) Analyze(ctx context.Context, message, sender string, hints []string) (*ModelVerdict, error) {
	key := CacheKey(message, sender)
	if cached, ok := a.cache.Get(key); ok {
		return &cached, nil
	}

	// Acquire semaphore to limit concurrent model calls
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire analysis semaphore: %w", err)
	}
	defer a.sem.Release(1)

	requestJSON, err := sonic.Marshal(textRequest{
		Message:      message,
		Sender:       sender,
		PatternHints: hints,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Minify the JSON to reduce token usage
	minifiedJSON, err := a.minify.Bytes(ApplicationJSON, requestJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to minify JSON: %w", err)
	}

	prompt := fmt.Sprintf(TextRequestPrompt, minifiedJSON)

	verdict, err := utils.WithRetry(ctx, func() (*ModelVerdict, error) {
		reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		response, err := a.model.GenerateContent(reqCtx, genai.Text(prompt))
		if err != nil {
			return nil, fmt.Errorf("AI generation failed: %w", err)
		}

		if len(response.Candidates) == 0 || response.Candidates[0].Content == nil ||
			len(response.Candidates[0].Content.Parts) == 0 {
			return nil, fmt.Errorf("%w: no response from Gemini", ErrModelResponse)
		}

		responseText, ok := response.Candidates[0].Content.Parts[0].(genai.Text)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected response format from AI", ErrModelResponse)
		}

		return DecodeVerdict([]byte(responseText))
	}, a.retry)
	if err != nil {
		// An unusable body means the model answered but off-schema. Degrade to
		// the safer default instead of dropping the stage entirely.
		if errors.Is(err, ErrModelResponse) {
			a.logger.Warn("Model response unusable, degrading to MEDIUM", zap.Error(err))

			return &ModelVerdict{
				Level:      enum.RiskLevelMedium,
				Reason:     "Automated analysis unavailable",
				Confidence: 0.5,
			}, nil
		}

		return nil, err
	}

	a.cache.Set(key, *verdict)

	a.logger.Debug("Text analysis complete",
		zap.String("risk_level", string(verdict.Level)),
		zap.Float64("confidence", verdict.Confidence))

	return verdict, nil
}

// retryOptions builds model retry settings from config, falling back to the
// stock AI retry profile when the section is absent.
func retryOptions(app *setup.App) utils.RetryOptions {
	cfg := app.Config.Retry
	if cfg.MaxRetries == 0 {
		return utils.GetAIRetryOptions()
	}

	return utils.RetryOptions{
		MaxElapsedTime:  120 * time.Second,
		InitialInterval: time.Duration(cfg.Delay) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.MaxDelay) * time.Millisecond,
		MaxRetries:      cfg.MaxRetries,
	}
}
