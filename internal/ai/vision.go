package ai

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/explain"
	"github.com/rakshalabs/raksha/internal/setup"
	"github.com/rakshalabs/raksha/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/semaphore"
)

const (
	// VisionSystemPrompt instructs the model to read a message screenshot and
	// classify it like a text message.
	VisionSystemPrompt = `You are a scam detection analyst reviewing screenshots of SMS and chat messages received by users in India.

The image is a screenshot of a message or conversation. Read all visible text, then classify it.

Output format:
{
  "risk_level": "HIGH, MEDIUM, or LOW",
  "reason": "one sentence explanation a non-technical user understands",
  "scam_type": "a known scam type, or null when the content is safe",
  "confidence": 0.0-1.0,
  "original_language": "ISO 639-1 code of the visible text language"
}

Key rules:
1. Judge the message content, not image quality.
2. Requests for OTP, PIN, CVV, or password are HIGH.
3. Prize, job, loan, or investment offers demanding a fee are HIGH.
4. QR codes asking to "receive" money are HIGH.
5. If no message text is readable, return LOW with low confidence.`

	// VisionRequestPrompt reminds the model of the task for each screenshot.
	VisionRequestPrompt = `Classify the message in this screenshot according to your system instructions.`

	// MaxImageBytes rejects uploads beyond this size before decoding.
	MaxImageBytes = 8 << 20

	// MaxImageDimension bounds the longest side after preprocessing.
	MaxImageDimension = 1024

	// WebPMIMEType routes decoding through the webp decoder.
	WebPMIMEType = "image/webp"
)

// ImageAnalyzer classifies message screenshots, trying each configured vision
// model in priority order until one answers.
type ImageAnalyzer struct {
	genAIClient *genai.Client
	models      []*genai.GenerativeModel
	modelNames  []string
	sem         *semaphore.Weighted
	timeout     time.Duration
	logger      *zap.Logger
}

// defaultVisionModels is the vendor priority list when config omits one.
var defaultVisionModels = []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro"}

// NewImageAnalyzer creates an ImageAnalyzer with one configured model per
// entry in the vision priority list.
func NewImageAnalyzer(app *setup.App, logger *zap.Logger) *ImageAnalyzer {
	modelNames := app.Config.Gemini.VisionModels
	if len(modelNames) == 0 {
		modelNames = defaultVisionModels
	}

	models := make([]*genai.GenerativeModel, 0, len(modelNames))
	for _, name := range modelNames {
		visionModel := app.GenAIClient.GenerativeModel(name)
		visionModel.SystemInstruction = genai.NewUserContent(genai.Text(VisionSystemPrompt))
		visionModel.ResponseMIMEType = ApplicationJSON
		visionModel.SetTemperature(0.2)
		visionModel.SetTopP(0.1)
		visionModel.SetTopK(1)

		models = append(models, visionModel)
	}

	return &ImageAnalyzer{
		genAIClient: app.GenAIClient,
		models:      models,
		modelNames:  modelNames,
		sem:         semaphore.NewWeighted(app.Config.Gemini.MaxConcurrent),
		timeout:     time.Duration(app.Config.Detection.VisionTimeoutSeconds) * time.Second,
		logger:      logger.Named("ai_vision"),
	}
}

// Analyze classifies one screenshot. Vendor exhaustion is not an error: the
// caller receives the UNKNOWN verdict and the user is told to retry later.
func (a *ImageAnalyzer) Analyze(ctx context.Context, data []byte, mimeType, sender string) (*ModelVerdict, error) {
	prepared, err := PrepareImage(data, mimeType)
	if err != nil {
		return nil, err
	}

	prompt := VisionRequestPrompt
	if sender != "" {
		prompt = fmt.Sprintf("%s\nThe message was sent by %q.", VisionRequestPrompt, sender)
	}

	// Acquire semaphore to limit concurrent model calls
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire analysis semaphore: %w", err)
	}
	defer a.sem.Release(1)

	for i, visionModel := range a.models {
		verdict, err := a.analyzeWithModel(ctx, visionModel, prepared, prompt)
		if err != nil {
			a.logger.Warn("Vision model attempt failed",
				zap.String("model", a.modelNames[i]),
				zap.Error(err))

			if ctx.Err() != nil {
				break
			}

			continue
		}

		return verdict, nil
	}

	a.logger.Error("All vision models failed", zap.Strings("models", a.modelNames))

	return &ModelVerdict{
		Level:      enum.RiskLevelUnknown,
		Reason:     "Analysis is temporarily unavailable, try again shortly",
		ScamType:   utils.Ptr(explain.TypeServiceBusy),
		Confidence: 0,
	}, nil
}

// analyzeWithModel runs one upload-and-generate attempt against one model.
// No per-model retry: the next model in the priority list is the retry.
func (a *ImageAnalyzer) analyzeWithModel(
	ctx context.Context, visionModel *genai.GenerativeModel, img []byte, prompt string,
) (*ModelVerdict, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// Upload screenshot to Gemini
	file, err := a.genAIClient.UploadFile(attemptCtx, uuid.New().String(), bytes.NewReader(img), &genai.UploadFileOptions{
		MIMEType: "image/png",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	defer a.genAIClient.DeleteFile(attemptCtx, file.Name) //nolint:errcheck

	resp, err := visionModel.GenerateContent(attemptCtx,
		genai.Text(prompt),
		genai.FileData{URI: file.URI},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no response from Gemini", ErrModelResponse)
	}

	responseText, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected response format from AI", ErrModelResponse)
	}

	return DecodeVerdict([]byte(responseText))
}

// PrepareImage validates and normalizes an uploaded screenshot: size check,
// decode, downscale to the dimension bound, re-encode as PNG. Returning the
// normalized bytes keeps vendor payloads small and strips container quirks.
func PrepareImage(data []byte, mimeType string) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", types.ErrValidation)
	}

	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", types.ErrValidation, MaxImageBytes)
	}

	img, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable image: %w", types.ErrValidation, err)
	}

	img = downscale(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}

// decodeImage picks a decoder from the declared MIME type. The stdlib handles
// png and jpeg; webp goes through the pure-Go decoder.
func decodeImage(data []byte, mimeType string) (image.Image, error) {
	reader := bytes.NewReader(data)

	if mimeType == WebPMIMEType {
		return nativewebp.Decode(reader)
	}

	img, _, err := image.Decode(reader)

	return img, err
}

// downscale resizes so the longest side fits MaxImageDimension, preserving
// aspect ratio. Smaller images pass through untouched.
func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	longest := max(width, height)
	if longest <= MaxImageDimension {
		return img
	}

	scale := float64(MaxImageDimension) / float64(longest)
	dst := image.NewRGBA(image.Rect(0, 0,
		int(float64(width)*scale),
		int(float64(height)*scale),
	))

	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}
