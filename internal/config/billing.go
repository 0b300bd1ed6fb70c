package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BillingConfig holds invoicing terms that operators tune without a redeploy.
type BillingConfig struct {
	// ShopName heads customer-facing documents.
	ShopName string `mapstructure:"shopName"`
	// InvoiceDueDays offsets the due date of a newly created invoice.
	InvoiceDueDays int `mapstructure:"invoiceDueDays"`
	// ReasonPercentages overrides the typical percentage of an adjustment
	// reason, keyed by reason code.
	ReasonPercentages map[string]float64 `mapstructure:"reasonPercentages"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		ShopName:          "Repair Desk",
		InvoiceDueDays:    14,
		ReasonPercentages: map[string]float64{},
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

// NewStaticBillingConfigHolder returns a holder that never reloads.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewBillingConfigHolder(log *zap.Logger) (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/repairdesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("REPAIRDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.shopName", defaults.ShopName)
	v.SetDefault("billing.invoiceDueDays", defaults.InvoiceDueDays)
	v.SetDefault("billing.reasonPercentages", defaults.ReasonPercentages)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticBillingConfigHolder(cfg)
	log = log.Named("billing.config")

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	if h == nil {
		return DefaultBillingConfig()
	}
	cfg, ok := h.current.Load().(BillingConfig)
	if !ok {
		return DefaultBillingConfig()
	}
	return cfg
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.InvoiceDueDays < 0 {
		return errors.New("billing.invoiceDueDays cannot be negative")
	}
	for reason, pct := range cfg.ReasonPercentages {
		if math.IsNaN(pct) || pct < 0 || pct > 100 {
			return fmt.Errorf("billing.reasonPercentages.%s must be between 0 and 100", reason)
		}
	}
	return nil
}
