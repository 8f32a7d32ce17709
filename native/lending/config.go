package lending

import (
	"strings"

	"dsclend/crypto"
)

// Config captures the runtime configuration for the lending module.
type Config struct {
	DebtAsset            string `toml:"DebtAsset"`
	LiquidationThreshold uint64 `toml:"LiquidationThreshold"`
	MinHealthFactor      uint64 `toml:"MinHealthFactor"`
	LiquidationBonus     uint64 `toml:"LiquidationBonus"`
	FeePercent           uint64 `toml:"FeePercent"`
}

// EnsureDefaults fills unset fields with conservative protocol defaults.
func (c *Config) EnsureDefaults() {
	if strings.TrimSpace(c.DebtAsset) == "" {
		c.DebtAsset = "dsc"
	}
	if c.LiquidationThreshold == 0 {
		c.LiquidationThreshold = 50
	}
	if c.MinHealthFactor == 0 {
		c.MinHealthFactor = 1
	}
}

// RiskConfig materialises the immutable risk parameters handed to the engine
// at initialisation.
func (c Config) RiskConfig(authority crypto.Address) (RiskConfig, error) {
	cfg := RiskConfig{
		Authority:            authority,
		DebtAsset:            strings.TrimSpace(c.DebtAsset),
		LiquidationThreshold: c.LiquidationThreshold,
		MinHealthFactor:      c.MinHealthFactor,
		LiquidationBonus:     c.LiquidationBonus,
		FeePercent:           c.FeePercent,
	}
	if err := validateRiskConfig(cfg); err != nil {
		return RiskConfig{}, err
	}
	return cfg, nil
}
