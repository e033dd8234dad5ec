package detection_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLocalModel(t *testing.T, baseURL string) *detection.OllamaModel {
	t.Helper()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	return detection.NewOllamaModel(baseURL, "phi3:mini", time.Second, logger)
}

func TestOllamaModelClassify(t *testing.T) {
	t.Parallel()

	var (
		gotMethod string
		gotPath   string
		gotBody   []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)

		out, _ := sonic.Marshal(map[string]string{
			"response": `{"risk_level":"HIGH","reason":"Asks for a one-time password","scam_type":"otp_theft","confidence":0.93,"original_language":"en"}`,
		})
		_, _ = w.Write(out)
	}))
	t.Cleanup(srv.Close)

	model := newLocalModel(t, srv.URL)

	verdict, err := model.Classify(t.Context(), "share your otp please", "+919812345678")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/generate", gotPath)

	var call struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
		Stream bool   `json:"stream"`
		Format string `json:"format"`
	}
	require.NoError(t, sonic.Unmarshal(gotBody, &call))
	assert.Equal(t, "phi3:mini", call.Model)
	assert.False(t, call.Stream)
	assert.Equal(t, "json", call.Format)
	assert.Contains(t, call.Prompt, "share your otp please")
	assert.Contains(t, call.Prompt, "+919812345678")

	assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
	assert.InDelta(t, 0.93, verdict.Confidence, 0.0001)
	require.NotNil(t, verdict.ScamType)
	assert.Equal(t, "otp_theft", *verdict.ScamType)
}

func TestOllamaModelClassifyFailures(t *testing.T) {
	t.Parallel()

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		_, err := newLocalModel(t, srv.URL).Classify(t.Context(), "hello", "")
		require.Error(t, err)
	})

	t.Run("off schema generation", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			out, _ := sonic.Marshal(map[string]string{"response": "cannot classify this"})
			_, _ = w.Write(out)
		}))
		t.Cleanup(srv.Close)

		_, err := newLocalModel(t, srv.URL).Classify(t.Context(), "hello", "")
		require.Error(t, err)
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		_, err := newLocalModel(t, srv.URL).Classify(t.Context(), "hello", "")
		require.Error(t, err)
	})
}
