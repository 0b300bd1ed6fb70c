package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name       string              `json:"name" validate:"required"`
	Cost       decimal.Decimal     `json:"cost" validate:"gte=0"`
	Percentage decimal.NullDecimal `json:"percentage" validate:"omitempty,gte=0,lte=100"`
}

func TestStruct(t *testing.T) {
	ok := sample{Name: "screen", Cost: decimal.NewFromInt(10)}
	assert.NoError(t, Struct(ok))

	withPct := ok
	withPct.Percentage = decimal.NewNullDecimal(decimal.NewFromInt(8))
	assert.NoError(t, Struct(withPct))

	bad := sample{Cost: decimal.NewFromInt(-1), Percentage: decimal.NewNullDecimal(decimal.NewFromInt(120))}
	err := Struct(bad)
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "required", verr.Fields["name"])
	assert.Equal(t, "gte", verr.Fields["cost"])
	assert.Equal(t, "lte", verr.Fields["percentage"])
	assert.Contains(t, err.Error(), "cost:gte")
}
