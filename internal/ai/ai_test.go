package ai_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/rakshalabs/raksha/internal/ai"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, v *ai.ModelVerdict)
	}{
		{
			name: "plain json",
			raw:  `{"risk_level":"HIGH","reason":"asks for OTP","scam_type":"otp_theft","confidence":0.94,"original_language":"en"}`,
			check: func(t *testing.T, v *ai.ModelVerdict) {
				t.Helper()
				assert.Equal(t, enum.RiskLevelHigh, v.Level)
				require.NotNil(t, v.ScamType)
				assert.Equal(t, "otp_theft", *v.ScamType)
				assert.InDelta(t, 0.94, v.Confidence, 0.001)
				assert.Equal(t, "en", v.Language)
			},
		},
		{
			name: "fenced json block",
			raw:  "```json\n{\"risk_level\":\"LOW\",\"reason\":\"ordinary delivery update\",\"scam_type\":null,\"confidence\":0.2,\"original_language\":\"hi\"}\n```",
			check: func(t *testing.T, v *ai.ModelVerdict) {
				t.Helper()
				assert.Equal(t, enum.RiskLevelLow, v.Level)
				assert.Nil(t, v.ScamType)
			},
		},
		{
			name: "bare fence",
			raw:  "```\n{\"risk_level\":\"MEDIUM\",\"reason\":\"shortened link\",\"confidence\":0.5,\"original_language\":\"en\"}\n```",
			check: func(t *testing.T, v *ai.ModelVerdict) {
				t.Helper()
				assert.Equal(t, enum.RiskLevelMedium, v.Level)
			},
		},
		{
			name: "unknown level collapses to medium",
			raw:  `{"risk_level":"SEVERE","reason":"odd","confidence":0.5,"original_language":"en"}`,
			check: func(t *testing.T, v *ai.ModelVerdict) {
				t.Helper()
				assert.Equal(t, enum.RiskLevelMedium, v.Level)
			},
		},
		{
			name: "empty scam type becomes nil",
			raw:  `{"risk_level":"LOW","reason":"safe","scam_type":"","confidence":0.1,"original_language":"en"}`,
			check: func(t *testing.T, v *ai.ModelVerdict) {
				t.Helper()
				assert.Nil(t, v.ScamType)
			},
		},
		{
			name:    "confidence out of range",
			raw:     `{"risk_level":"HIGH","reason":"x","confidence":1.4,"original_language":"en"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "the message looks dangerous",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verdict, err := ai.DecodeVerdict([]byte(tt.raw))
			if tt.wantErr {
				require.ErrorIs(t, err, ai.ErrModelResponse)
				return
			}

			require.NoError(t, err)
			tt.check(t, verdict)
		})
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	// Concatenation without the separator would collide these two pairs.
	assert.NotEqual(t, ai.CacheKey("ab", "c"), ai.CacheKey("a", "bc"))
	assert.Equal(t, ai.CacheKey("msg", "sender"), ai.CacheKey("msg", "sender"))
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func TestPrepareImage(t *testing.T) {
	t.Parallel()

	t.Run("small png passes through", func(t *testing.T) {
		t.Parallel()

		out, err := ai.PrepareImage(testPNG(t, 320, 240), "image/png")
		require.NoError(t, err)

		decoded, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 320, decoded.Bounds().Dx())
		assert.Equal(t, 240, decoded.Bounds().Dy())
	})

	t.Run("large image downscaled to bound", func(t *testing.T) {
		t.Parallel()

		out, err := ai.PrepareImage(testPNG(t, 2048, 512), "image/png")
		require.NoError(t, err)

		decoded, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, ai.MaxImageDimension, decoded.Bounds().Dx())
		assert.Equal(t, 256, decoded.Bounds().Dy())
	})

	t.Run("webp decodes", func(t *testing.T) {
		t.Parallel()

		img := image.NewNRGBA(image.Rect(0, 0, 64, 64))

		var buf bytes.Buffer
		require.NoError(t, nativewebp.Encode(&buf, img, nil))

		out, err := ai.PrepareImage(buf.Bytes(), ai.WebPMIMEType)
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})

	t.Run("oversized input rejected", func(t *testing.T) {
		t.Parallel()

		_, err := ai.PrepareImage(make([]byte, ai.MaxImageBytes+1), "image/png")
		require.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		t.Parallel()

		_, err := ai.PrepareImage([]byte("definitely not an image"), "image/png")
		require.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("empty rejected", func(t *testing.T) {
		t.Parallel()

		_, err := ai.PrepareImage(nil, "image/png")
		require.ErrorIs(t, err, types.ErrValidation)
	})
}
