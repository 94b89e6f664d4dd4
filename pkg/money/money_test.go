package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyBasisPoints_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		bp     int64
		want   int64
	}{
		{"exact", 260, 1000, 26},
		{"rounds up from .88", 286, 800, 23},
		{"half goes up", 25, 1000, 3},
		{"below half goes down", 24, 1000, 2},
		{"zero amount", 0, 800, 0},
		{"zero ratio", 1000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyBasisPoints(tt.amount, tt.bp))
		})
	}
}

func TestRatioToBasisPoints_IgnoresFloatNoise(t *testing.T) {
	assert.Equal(t, int64(1000), RatioToBasisPoints(0.1))
	assert.Equal(t, int64(800), RatioToBasisPoints(0.08))
	assert.Equal(t, int64(700), RatioToBasisPoints(0.07))
	assert.Equal(t, int64(1250), PercentToBasisPoints(12.5))
}
