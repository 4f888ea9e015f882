package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Policy holds the economic and governance parameters of the contract.
// Amounts are expressed in gwei.
type Policy struct {
	FundingUnit           int64 `mapstructure:"funding_unit"`
	MinimumDeposit        int64 `mapstructure:"minimum_deposit"`
	RegistrationThreshold int   `mapstructure:"registration_threshold"`
	CreditNumerator       int64 `mapstructure:"credit_numerator"`
	CreditDenominator     int64 `mapstructure:"credit_denominator"`
}

// DefaultPolicy returns the 10 ether funding unit, 4-airline threshold and 1.5x payout.
func DefaultPolicy() Policy {
	return Policy{
		FundingUnit:           10_000_000_000,
		MinimumDeposit:        10_000_000_000,
		RegistrationThreshold: 4,
		CreditNumerator:       3,
		CreditDenominator:     2,
	}
}

// PolicyHolder serves the current policy and swaps it when policy.yml changes.
type PolicyHolder struct {
	current atomic.Value // holds Policy
}

// NewStaticPolicyHolder returns a holder that never reloads.
func NewStaticPolicyHolder(p Policy) *PolicyHolder {
	holder := &PolicyHolder{}
	holder.current.Store(p)
	return holder
}

func NewPolicyHolder(log *zap.Logger) (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("policy")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/flightsurety")
	v.AddConfigPath(".")

	// FLIGHTSURETY_POLICY_<KEY> overrides policy.<key>.
	v.SetEnvPrefix("FLIGHTSURETY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := DefaultPolicy()
	for key, value := range map[string]any{
		"policy.funding_unit":           defaults.FundingUnit,
		"policy.minimum_deposit":        defaults.MinimumDeposit,
		"policy.registration_threshold": defaults.RegistrationThreshold,
		"policy.credit_numerator":       defaults.CreditNumerator,
		"policy.credit_denominator":     defaults.CreditDenominator,
	} {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	p, err := decodePolicy(v)
	if err != nil {
		return nil, err
	}
	if err := ValidatePolicy(p); err != nil {
		return nil, err
	}

	holder := NewStaticPolicyHolder(p)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodePolicy(v)
		if err != nil {
			log.Warn("policy reload failed", zap.Error(err))
			return
		}
		if err := ValidatePolicy(updated); err != nil {
			log.Warn("invalid policy ignored", zap.Error(err), zap.String("file", e.Name))
			return
		}
		holder.current.Store(updated)
		log.Info("policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// decodePolicy goes through Unmarshal rather than UnmarshalKey so bound
// environment variables apply to the nested keys.
func decodePolicy(v *viper.Viper) (Policy, error) {
	var wrapper struct {
		Policy Policy `mapstructure:"policy"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return Policy{}, err
	}
	return wrapper.Policy, nil
}

func (h *PolicyHolder) Get() Policy {
	return h.current.Load().(Policy)
}

func ValidatePolicy(p Policy) error {
	if p.FundingUnit <= 0 {
		return errors.New("policy.funding_unit must be positive")
	}
	if p.MinimumDeposit <= 0 {
		return errors.New("policy.minimum_deposit must be positive")
	}
	if p.RegistrationThreshold < 1 {
		return errors.New("policy.registration_threshold must be at least 1")
	}
	if p.CreditNumerator <= 0 || p.CreditDenominator <= 0 {
		return errors.New("policy credit multiplier must be positive")
	}
	return nil
}
