package explain_test

import (
	"testing"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/detection/patterns"
	"github.com/rakshalabs/raksha/internal/explain"
	"github.com/rakshalabs/raksha/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplainLowAlwaysSafe(t *testing.T) {
	t.Parallel()

	result := explain.Explain(enum.RiskLevelLow, utils.Ptr("kyc_scam"), "")
	require.NotNil(t, result)
	assert.Equal(t, "This appears safe", result.Headline)
	assert.Equal(t, explain.SeverityLow, result.Severity)
	assert.False(t, result.ShouldWorry)
	assert.Nil(t, result.ScamType)
}

func TestExplainKnownType(t *testing.T) {
	t.Parallel()

	result := explain.Explain(enum.RiskLevelHigh, utils.Ptr("kyc_scam"), "")
	require.NotNil(t, result)
	assert.Equal(t, "Your bank account could be emptied", result.Headline)
	assert.Equal(t, explain.SeverityCritical, result.Severity)
	assert.Len(t, result.Details, 3)
	assert.True(t, result.ShouldWorry)
	require.NotNil(t, result.ScamType)
	assert.Equal(t, "kyc_scam", *result.ScamType)
}

func TestExplainShouldWorry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		level    enum.RiskLevel
		scamType string
		want     bool
	}{
		{name: "high is always worrying", level: enum.RiskLevelHigh, scamType: "delivery_scam", want: true},
		{name: "medium critical severity", level: enum.RiskLevelMedium, scamType: "otp_theft", want: true},
		{name: "medium ordinary severity", level: enum.RiskLevelMedium, scamType: "delivery_scam", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := explain.Explain(tt.level, utils.Ptr(tt.scamType), "")
			assert.Equal(t, tt.want, result.ShouldWorry)
		})
	}
}

func TestExplainUnknownTypeFallsBack(t *testing.T) {
	t.Parallel()

	result := explain.Explain(enum.RiskLevelMedium, utils.Ptr("carrier_pigeon_fraud"), "")
	assert.Equal(t, "This message shows signs of a scam", result.Headline)

	nilType := explain.Explain(enum.RiskLevelMedium, nil, "")
	assert.Equal(t, result.Headline, nilType.Headline)
}

func TestExplainHindiHeadline(t *testing.T) {
	t.Parallel()

	t.Run("translated", func(t *testing.T) {
		t.Parallel()

		result := explain.Explain(enum.RiskLevelHigh, utils.Ptr("otp_theft"), explain.LanguageHindi)
		assert.Equal(t, "सेकंडों में आपका पैसा चोरी हो जाएगा", result.HeadlineHindi)
	})

	t.Run("missing translation keeps english", func(t *testing.T) {
		t.Parallel()

		result := explain.Explain(enum.RiskLevelHigh, utils.Ptr("job_scam"), explain.LanguageHindi)
		assert.Equal(t, result.Headline, result.HeadlineHindi)
	})

	t.Run("english hint adds nothing", func(t *testing.T) {
		t.Parallel()

		result := explain.Explain(enum.RiskLevelHigh, utils.Ptr("otp_theft"), "en")
		assert.Empty(t, result.HeadlineHindi)
	})
}

func TestExplainCoversEveryBucket(t *testing.T) {
	t.Parallel()

	fallback := explain.Explain(enum.RiskLevelHigh, utils.Ptr("no_such_bucket"), "").Headline

	for _, bucket := range patterns.Buckets() {
		scamType := string(bucket)
		result := explain.Explain(enum.RiskLevelHigh, &scamType, "")
		assert.NotEqual(t, fallback, result.Headline, "bucket %s has no consequence entry", bucket)
	}

	for _, special := range []string{
		patterns.SpecialMultipleIndicators,
		patterns.SpecialMarketing,
		patterns.SpecialTransactional,
		explain.TypeServiceBusy,
		explain.TypeBlockedSender,
	} {
		result := explain.Explain(enum.RiskLevelHigh, &special, "")
		assert.NotEqual(t, fallback, result.Headline, "special type %s has no consequence entry", special)
	}
}

func TestQuickTip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "OTP is like your password - never share it", explain.QuickTip(utils.Ptr("otp_theft")))
	assert.Equal(t, "Verify before you trust", explain.QuickTip(utils.Ptr("unknown_type")))
	assert.Equal(t, "Verify before you trust", explain.QuickTip(nil))
}

func TestKnownTypesSorted(t *testing.T) {
	t.Parallel()

	types := explain.KnownTypes()
	require.NotEmpty(t, types)
	assert.IsIncreasing(t, types)
	assert.Contains(t, types, "kyc_scam")
	assert.Contains(t, types, explain.TypeBlockedSender)
}
