package utils_test

import (
	"testing"
	"time"

	"github.com/rakshalabs/raksha/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestCalculateRewarmInterval(t *testing.T) {
	t.Parallel()

	t.Run("fresh report gets minimum interval", func(t *testing.T) {
		t.Parallel()

		interval := utils.CalculateRewarmInterval(time.Now().Add(-time.Minute))
		assert.Equal(t, utils.MinRewarmInterval, interval)
	})

	t.Run("stale report gets maximum interval", func(t *testing.T) {
		t.Parallel()

		interval := utils.CalculateRewarmInterval(time.Now().Add(-30 * 24 * time.Hour))
		assert.Equal(t, utils.MaxRewarmInterval, interval)
	})

	t.Run("interval scales with age", func(t *testing.T) {
		t.Parallel()

		young := utils.CalculateRewarmInterval(time.Now().Add(-24 * time.Hour))
		older := utils.CalculateRewarmInterval(time.Now().Add(-7 * 24 * time.Hour))

		assert.Greater(t, older, young)
		assert.GreaterOrEqual(t, young, utils.MinRewarmInterval)
		assert.LessOrEqual(t, older, utils.MaxRewarmInterval)
	})
}
