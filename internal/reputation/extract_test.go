package reputation_test

import (
	"testing"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/reputation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArtifacts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    []reputation.Artifact
	}{
		{
			name:    "url with scheme",
			message: "Claim your prize at https://kyc-verify.example/claim now",
			want: []reputation.Artifact{
				{Value: "kyc-verify.example/claim", Type: enum.BlacklistTypeURL},
			},
		},
		{
			name:    "bare shortener without scheme",
			message: "click bit.ly/3xYz to unlock",
			want: []reputation.Artifact{
				{Value: "bit.ly/3xyz", Type: enum.BlacklistTypeURL},
			},
		},
		{
			name:    "phone with plus country code",
			message: "call +919876543210 immediately",
			want: []reputation.Artifact{
				{Value: "+919876543210", Type: enum.BlacklistTypePhone},
			},
		},
		{
			name:    "bare ten digit phone gains country code",
			message: "send OTP to 9876543210",
			want: []reputation.Artifact{
				{Value: "+919876543210", Type: enum.BlacklistTypePhone},
			},
		},
		{
			name:    "duplicate values collapse after normalization",
			message: "pay at https://Scam.example/pay or scam.example/pay or 919876543210 / +919876543210",
			want: []reputation.Artifact{
				{Value: "scam.example/pay", Type: enum.BlacklistTypeURL},
				{Value: "+919876543210", Type: enum.BlacklistTypePhone},
			},
		},
		{
			name:    "urls listed before phones",
			message: "9876543210 says visit http://trap.example",
			want: []reputation.Artifact{
				{Value: "trap.example", Type: enum.BlacklistTypeURL},
				{Value: "+919876543210", Type: enum.BlacklistTypePhone},
			},
		},
		{
			name:    "clean message yields nothing",
			message: "Lunch at noon tomorrow?",
			want:    nil,
		},
		{
			name:    "landline style number ignored",
			message: "office line 0112345678",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := reputation.ExtractArtifacts(tt.message)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		value        string
		artifactType enum.BlacklistType
		want         string
	}{
		{"url strips scheme and slash", "HTTPS://Scam.Example/pay/", enum.BlacklistTypeURL, "scam.example/pay"},
		{"url keeps path", "http://bit.ly/abc", enum.BlacklistTypeURL, "bit.ly/abc"},
		{"domain cuts path", "https://scam.example/pay/now", enum.BlacklistTypeDomain, "scam.example"},
		{"phone keeps plus form", "+91 98765 43210", enum.BlacklistTypePhone, "+919876543210"},
		{"phone adds country code", "98765-43210", enum.BlacklistTypePhone, "+919876543210"},
		{"phone recognizes bare 91 prefix", "919876543210", enum.BlacklistTypePhone, "+919876543210"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := reputation.Normalize(tt.value, tt.artifactType)
			require.Equal(t, tt.want, got)

			// Normalizing twice must not change the value again.
			assert.Equal(t, got, reputation.Normalize(got, tt.artifactType))
		})
	}
}

func TestHashValueDiffersByValue(t *testing.T) {
	t.Parallel()

	first := reputation.HashValue("+919876543210")
	second := reputation.HashValue("+919876543211")

	assert.Len(t, first, 32)
	assert.NotEqual(t, first, second)
	assert.Equal(t, first, reputation.HashValue("+919876543210"))
}
