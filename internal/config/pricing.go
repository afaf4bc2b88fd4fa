package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingConfig carries file-level credit price overrides. Rows here take
// precedence over the compiled-in catalog defaults but not over admin rows
// persisted in cost_rates.
type PricingConfig struct {
	CreditCosts []CreditCostOverride `mapstructure:"creditCosts"`
}

// CreditCostOverride overrides the credit price for one action/variant pair.
type CreditCostOverride struct {
	ActionType string `mapstructure:"actionType"`
	Variant    string `mapstructure:"variant"`
	Credits    int64  `mapstructure:"credits"`
}

// PricingConfigHolder exposes the current pricing config and hot-reloads it
// when the backing file changes.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/credits/config")
	v.AddConfigPath("/etc/credits")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CREDITS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded %d overrides", len(updated.CreditCosts))
	})

	return holder, nil
}

// Current returns the active pricing config.
func (h *PricingConfigHolder) Current() PricingConfig {
	if h == nil {
		return PricingConfig{}
	}
	cfg, _ := h.current.Load().(PricingConfig)
	return cfg
}

func validatePricingConfig(cfg PricingConfig) error {
	for _, override := range cfg.CreditCosts {
		if strings.TrimSpace(override.ActionType) == "" {
			return errors.New("pricing override action type is required")
		}
		if override.Credits <= 0 {
			return errors.New("pricing override credits must be positive")
		}
	}
	return nil
}
