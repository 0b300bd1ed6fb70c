package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestReasonSuggest(t *testing.T) {
	tests := []struct {
		name      string
		reason    Reason
		overrides map[string]float64
		expect    string
	}{
		{"typical percentage", ReasonPromotion, nil, "10"},
		{"override wins", ReasonRushService, map[string]float64{"rush_service": 12.345}, "12.35"},
		{"override above cap ignored", ReasonPromotion, map[string]float64{"promotion": 250}, "10"},
		{"negative override ignored", ReasonDisposal, map[string]float64{"disposal": -5}, "5"},
		{"nan override ignored", ReasonReferral, map[string]float64{"referral": math.NaN()}, "3"},
		{"other has no default", ReasonOther, nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.reason.Suggest(tt.overrides)
			assert.True(t, decimal.RequireFromString(tt.expect).Equal(got), "got %s", got)
		})
	}
}

func TestReasonInfo(t *testing.T) {
	info, ok := ReasonDamagedDevice.Info()
	assert.True(t, ok)
	assert.Equal(t, AdjustmentTypeCompensation, info.Type)
	assert.False(t, Reason("unknown").Valid())
}
