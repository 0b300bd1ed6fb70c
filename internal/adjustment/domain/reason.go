package domain

import "github.com/shopspring/decimal"

// Reason records why an adjustment was granted or charged.
type Reason string

const (
	ReasonPromotion       Reason = "promotion"
	ReasonBulkService     Reason = "bulk_service"
	ReasonStudentDiscount Reason = "student_discount"
	ReasonRushService     Reason = "rush_service"
	ReasonAfterHours      Reason = "after_hours"
	ReasonDisposal        Reason = "disposal"
	ReasonDelayedRepair   Reason = "delayed_repair"
	ReasonRepeatIssue     Reason = "repeat_issue"
	ReasonDamagedDevice   Reason = "damaged_device"
	ReasonLoyaltyReward   Reason = "loyalty_reward"
	ReasonReferral        Reason = "referral"
	ReasonOther           Reason = "other"
)

type ReasonInfo struct {
	Type       AdjustmentType
	Percentage decimal.Decimal
}

var reasons = map[Reason]ReasonInfo{
	ReasonPromotion:       {AdjustmentTypeDiscount, decimal.NewFromInt(10)},
	ReasonBulkService:     {AdjustmentTypeDiscount, decimal.NewFromInt(8)},
	ReasonStudentDiscount: {AdjustmentTypeDiscount, decimal.NewFromInt(5)},
	ReasonRushService:     {AdjustmentTypeFee, decimal.NewFromInt(15)},
	ReasonAfterHours:      {AdjustmentTypeFee, decimal.NewFromInt(20)},
	ReasonDisposal:        {AdjustmentTypeFee, decimal.NewFromInt(5)},
	ReasonDelayedRepair:   {AdjustmentTypeCompensation, decimal.NewFromInt(10)},
	ReasonRepeatIssue:     {AdjustmentTypeCompensation, decimal.NewFromInt(15)},
	ReasonDamagedDevice:   {AdjustmentTypeCompensation, decimal.NewFromInt(25)},
	ReasonLoyaltyReward:   {AdjustmentTypeBonus, decimal.NewFromInt(5)},
	ReasonReferral:        {AdjustmentTypeBonus, decimal.NewFromInt(3)},
	ReasonOther:           {AdjustmentTypeDiscount, decimal.Zero},
}

func (r Reason) Valid() bool {
	_, ok := reasons[r]
	return ok
}

// Info returns the default type and typical percentage for a reason.
func (r Reason) Info() (ReasonInfo, bool) {
	info, ok := reasons[r]
	return info, ok
}

// Suggest returns the reason's typical percentage, preferring an operator
// override keyed by reason code. Overrides outside 0..100 are ignored.
func (r Reason) Suggest(overrides map[string]float64) decimal.Decimal {
	if v, ok := overrides[string(r)]; ok && v >= 0 && v <= 100 {
		return decimal.NewFromFloat(v).Round(2)
	}
	return reasons[r].Percentage
}
