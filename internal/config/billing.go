package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingPolicy holds the commercial policy applied to every settlement:
// the creditor identity printed on mandates and receipts, the settlement
// currency, and the VAT rate used for the financial-record breakdown.
type BillingPolicy struct {
	Currency           string  `mapstructure:"currency"`
	TaxRateBps         int     `mapstructure:"taxRateBps"`
	CreditorName       string  `mapstructure:"creditorName"`
	CreditorID         string  `mapstructure:"creditorId"`
	CheckoutRatePerSec float64 `mapstructure:"checkoutRatePerSec"`
	CheckoutBurst      int     `mapstructure:"checkoutBurst"`
	WebhookRatePerSec  float64 `mapstructure:"webhookRatePerSec"`
	WebhookBurst       int     `mapstructure:"webhookBurst"`
}

func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{
		Currency:           "EUR",
		TaxRateBps:         2100, // Spanish IVA
		CreditorName:       "ConstructIA S.L.",
		CreditorID:         "ES98ZZZ47690558N",
		CheckoutRatePerSec: 2,
		CheckoutBurst:      10,
		WebhookRatePerSec:  20,
		WebhookBurst:       50,
	}
}

type BillingPolicyHolder struct {
	current atomic.Value // holds BillingPolicy
}

// NewBillingPolicyHolder reads billing.yml and keeps the policy hot-reloadable
// so tax or creditor changes do not require a restart.
func NewBillingPolicyHolder() (*BillingPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/constructia")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CONSTRUCTIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingPolicy()
	v.SetDefault("billing.currency", defaults.Currency)
	v.SetDefault("billing.taxRateBps", defaults.TaxRateBps)
	v.SetDefault("billing.creditorName", defaults.CreditorName)
	v.SetDefault("billing.creditorId", defaults.CreditorID)
	v.SetDefault("billing.checkoutRatePerSec", defaults.CheckoutRatePerSec)
	v.SetDefault("billing.checkoutBurst", defaults.CheckoutBurst)
	v.SetDefault("billing.webhookRatePerSec", defaults.WebhookRatePerSec)
	v.SetDefault("billing.webhookBurst", defaults.WebhookBurst)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var policy BillingPolicy
	if err := v.UnmarshalKey("billing", &policy); err != nil {
		return nil, err
	}
	if err := validateBillingPolicy(policy); err != nil {
		return nil, err
	}

	holder := &BillingPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingPolicy
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-policy] reload failed: %v", err)
			return
		}
		if err := validateBillingPolicy(updated); err != nil {
			log.Printf("[billing-policy] invalid policy ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBillingPolicyHolder wraps a fixed policy, for tests.
func NewStaticBillingPolicyHolder(policy BillingPolicy) *BillingPolicyHolder {
	holder := &BillingPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func (h *BillingPolicyHolder) Get() BillingPolicy {
	return h.current.Load().(BillingPolicy)
}

func validateBillingPolicy(policy BillingPolicy) error {
	if strings.TrimSpace(policy.Currency) == "" {
		return errors.New("billing.currency cannot be empty")
	}
	if policy.TaxRateBps < 0 || policy.TaxRateBps > 10_000 {
		return errors.New("billing.taxRateBps must be between 0 and 10000")
	}
	if strings.TrimSpace(policy.CreditorName) == "" {
		return errors.New("billing.creditorName cannot be empty")
	}
	if strings.TrimSpace(policy.CreditorID) == "" {
		return errors.New("billing.creditorId cannot be empty")
	}
	return nil
}
