package patterns_test

import (
	"testing"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/detection/patterns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateBuckets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		message      string
		wantLevel    enum.RiskLevel
		wantScamType string
	}{
		{
			name:         "kyc scam",
			message:      "Dear customer, complete your KYC immediately or your account will be suspended",
			wantLevel:    enum.RiskLevelHigh,
			wantScamType: "kyc_scam",
		},
		{
			name:         "lottery scam",
			message:      "Congratulations! You have won lottery of 25 lakh. Claim prize now",
			wantLevel:    enum.RiskLevelHigh,
			wantScamType: "lottery_scam",
		},
		{
			name:         "otp theft",
			message:      "This is bank security, please share your OTP to cancel the transaction",
			wantLevel:    enum.RiskLevelHigh,
			wantScamType: "otp_theft",
		},
		{
			name:         "job scam",
			message:      "Part time job opportunity, pay small registration fee to start",
			wantLevel:    enum.RiskLevelHigh,
			wantScamType: "job_scam",
		},
		{
			name:         "loan scam",
			message:      "Your pre-approved loan is waiting, apply today",
			wantLevel:    enum.RiskLevelHigh,
			wantScamType: "loan_scam",
		},
		{
			name:         "investment scam",
			message:      "Join our trading group and double your money in 30 days",
			wantLevel:    enum.RiskLevelHigh,
			wantScamType: "investment_scam",
		},
		{
			name:         "government impersonation",
			message:      "Income tax refund pending, click here to receive it",
			wantLevel:    enum.RiskLevelHigh,
			wantScamType: "government_impersonation",
		},
		{
			name:         "delivery scam",
			message:      "Your parcel held at customs, verification required",
			wantLevel:    enum.RiskLevelHigh,
			wantScamType: "delivery_scam",
		},
		{
			name:         "single medium indicator",
			message:      "Please verify your account details at your convenience",
			wantLevel:    enum.RiskLevelMedium,
			wantScamType: "verification_scam",
		},
		{
			name:         "clean message",
			message:      "Hey, are we still meeting for lunch tomorrow?",
			wantLevel:    enum.RiskLevelLow,
			wantScamType: "",
		},
		{
			name:         "native script falls through",
			message:      "नमस्ते, आप कैसे हैं? कल मिलते हैं।",
			wantLevel:    enum.RiskLevelLow,
			wantScamType: "",
		},
	}

	matcher := patterns.NewMatcher()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := matcher.Evaluate(tt.message, "")
			assert.Equal(t, tt.wantLevel, result.Level)

			if tt.wantScamType == "" {
				assert.Nil(t, result.ScamType)
			} else {
				require.NotNil(t, result.ScamType)
				assert.Equal(t, tt.wantScamType, *result.ScamType)
			}

			assert.Equal(t, patterns.RulesetVersion, result.Ruleset)
		})
	}
}

func TestEvaluateConfidence(t *testing.T) {
	t.Parallel()

	matcher := patterns.NewMatcher()

	t.Run("high confidence scales with hits", func(t *testing.T) {
		t.Parallel()

		// One hit: share your otp
		single := matcher.Evaluate("share your otp", "")
		assert.InDelta(t, 0.88, single.Confidence, 0.001)

		// Two hits in the same bucket: share + give
		double := matcher.Evaluate("share your otp now, give otp fast", "")
		assert.Greater(t, double.Confidence, single.Confidence)
	})

	t.Run("high confidence is capped", func(t *testing.T) {
		t.Parallel()

		result := matcher.Evaluate(
			"KYC update urgent, bank account blocked, ATM card suspended, "+
				"dear customer your account will be blocked, your a/c will be blocked, "+
				"complete your KYC immediately",
			"",
		)
		assert.Equal(t, enum.RiskLevelHigh, result.Level)
		assert.LessOrEqual(t, result.Confidence, 0.99)
	})

	t.Run("medium confidence scales with hits", func(t *testing.T) {
		t.Parallel()

		result := matcher.Evaluate("limited time offer, verify your account", "")
		assert.Equal(t, enum.RiskLevelMedium, result.Level)
		assert.InDelta(t, 0.7, result.Confidence, 0.001)
	})

	t.Run("low verdict carries fixed confidence", func(t *testing.T) {
		t.Parallel()

		result := matcher.Evaluate("see you at the station", "")
		assert.Equal(t, enum.RiskLevelLow, result.Level)
		assert.InDelta(t, 0.7, result.Confidence, 0.001)
	})
}

func TestEvaluateMultipleIndicators(t *testing.T) {
	t.Parallel()

	matcher := patterns.NewMatcher()

	result := matcher.Evaluate("Act now! Limited time offer, verify your account today", "")

	assert.Equal(t, enum.RiskLevelHigh, result.Level)
	require.NotNil(t, result.ScamType)
	assert.Equal(t, patterns.SpecialMultipleIndicators, *result.ScamType)
	assert.InDelta(t, 0.75, result.Confidence, 0.001)
}

func TestRegulatedSenderPolicy(t *testing.T) {
	t.Parallel()

	matcher := patterns.NewMatcher()

	t.Run("promotional suffix downgrades", func(t *testing.T) {
		t.Parallel()

		result := matcher.Evaluate(
			"Dear customer, your pre-approved loan of 500000 is ready. Apply now. -P",
			"AD-HDFCBK",
		)

		assert.Equal(t, enum.RiskLevelLow, result.Level)
		require.NotNil(t, result.ScamType)
		assert.Equal(t, patterns.SpecialMarketing, *result.ScamType)
		assert.InDelta(t, 0.3, result.Confidence, 0.001)
		assert.True(t, result.Downgraded)
	})

	t.Run("transactional suffix downgrades", func(t *testing.T) {
		t.Parallel()

		result := matcher.Evaluate(
			"Your order has shipped. Track at bit.ly/track -T",
			"AX-FLPKRT",
		)

		assert.Equal(t, enum.RiskLevelLow, result.Level)
		require.NotNil(t, result.ScamType)
		assert.Equal(t, patterns.SpecialTransactional, *result.ScamType)
		assert.True(t, result.Downgraded)
	})

	t.Run("service suffix downgrades", func(t *testing.T) {
		t.Parallel()

		result := matcher.Evaluate("Your bill is ready. Pay ₹499 to avoid late fee -S", "VM-AIRTEL")

		assert.Equal(t, enum.RiskLevelLow, result.Level)
		require.NotNil(t, result.ScamType)
		assert.Equal(t, patterns.SpecialTransactional, *result.ScamType)
	})

	t.Run("critical bucket survives downgrade", func(t *testing.T) {
		t.Parallel()

		result := matcher.Evaluate("Complete your KYC immediately to avoid blocking -P", "AD-HDFCBK")

		assert.Equal(t, enum.RiskLevelHigh, result.Level)
		require.NotNil(t, result.ScamType)
		assert.Equal(t, "kyc_scam", *result.ScamType)
		assert.False(t, result.Downgraded)
	})

	t.Run("bare header with suffix downgrades", func(t *testing.T) {
		t.Parallel()

		result := matcher.Evaluate("Flash sale! Last chance to save big -P", "HDFCBK")

		assert.Equal(t, enum.RiskLevelLow, result.Level)
		assert.True(t, result.Downgraded)
	})

	t.Run("unregulated sender keeps verdict", func(t *testing.T) {
		t.Parallel()

		result := matcher.Evaluate("You won lottery of 10 lakh! -P", "+919876543210")

		assert.Equal(t, enum.RiskLevelHigh, result.Level)
		assert.False(t, result.Downgraded)
	})

	t.Run("regulated sender without suffix keeps verdict", func(t *testing.T) {
		t.Parallel()

		result := matcher.Evaluate("You won lottery of 10 lakh!", "AD-HDFCBK")

		assert.Equal(t, enum.RiskLevelHigh, result.Level)
		assert.False(t, result.Downgraded)
	})
}
