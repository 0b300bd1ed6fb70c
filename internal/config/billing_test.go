package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBillingConfigHolderDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewBillingConfigHolder(zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "Repair Desk", cfg.ShopName)
	assert.Equal(t, 14, cfg.InvoiceDueDays)
	assert.Empty(t, cfg.ReasonPercentages)
}

func TestBillingConfigHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte(`billing:
  shopName: Corner Fix
  invoiceDueDays: 30
  reasonPercentages:
    rush_service: 12.5
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billing.yml"), body, 0o600))
	t.Chdir(dir)

	holder, err := NewBillingConfigHolder(zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "Corner Fix", cfg.ShopName)
	assert.Equal(t, 30, cfg.InvoiceDueDays)
	assert.InDelta(t, 12.5, cfg.ReasonPercentages["rush_service"], 0.0001)
}

func TestBillingConfigHolderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte(`billing:
  reasonPercentages:
    promotion: 250
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billing.yml"), body, 0o600))
	t.Chdir(dir)

	_, err := NewBillingConfigHolder(zap.NewNop())
	assert.Error(t, err)
}

func TestValidateBillingConfig(t *testing.T) {
	cfg := DefaultBillingConfig()
	assert.NoError(t, validateBillingConfig(cfg))

	cfg.ReasonPercentages = map[string]float64{"loyalty": 120}
	assert.Error(t, validateBillingConfig(cfg))

	cfg.ReasonPercentages = map[string]float64{"promotion": math.NaN()}
	assert.Error(t, validateBillingConfig(cfg))
}

func TestNilBillingConfigHolder(t *testing.T) {
	var holder *BillingConfigHolder
	assert.Equal(t, DefaultBillingConfig().InvoiceDueDays, holder.Get().InvoiceDueDays)
}
