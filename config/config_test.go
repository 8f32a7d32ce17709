package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesAssetsAndLending(t *testing.T) {
	path := writeConfig(t, `
ListenAddress = ":9090"
DataDir = "/tmp/dsclend"

[[Assets]]
Symbol = "atom"
Vault = "dscvault1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq6tmcp5"
Price = 10000

[Lending]
DebtAsset = "dsc"
LiquidationThreshold = 50
MinHealthFactor = 5
LiquidationBonus = 10
FeePercent = 10000000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddress != ":9090" {
		t.Fatalf("unexpected listen address: %s", cfg.ListenAddress)
	}
	if len(cfg.Assets) != 1 || cfg.Assets[0].Symbol != "atom" || cfg.Assets[0].Price != 10_000 {
		t.Fatalf("unexpected assets: %+v", cfg.Assets)
	}
	if cfg.Lending.MinHealthFactor != 5 || cfg.Lending.FeePercent != 10_000_000 {
		t.Fatalf("unexpected lending config: %+v", cfg.Lending)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddress != ":8080" {
		t.Fatalf("unexpected listen address: %s", cfg.ListenAddress)
	}
	if cfg.Lending.DebtAsset != "dsc" {
		t.Fatalf("unexpected debt asset: %s", cfg.Lending.DebtAsset)
	}
	if cfg.Lending.LiquidationThreshold != 50 {
		t.Fatalf("unexpected threshold: %d", cfg.Lending.LiquidationThreshold)
	}
	if cfg.Lending.MinHealthFactor != 1 {
		t.Fatalf("unexpected minimum health factor: %d", cfg.Lending.MinHealthFactor)
	}
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddress != ":8080" {
		t.Fatalf("unexpected listen address: %s", cfg.ListenAddress)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config written: %v", err)
	}
}

func TestLoadRejectsDuplicateAssets(t *testing.T) {
	path := writeConfig(t, `
[[Assets]]
Symbol = "atom"
Price = 10000

[[Assets]]
Symbol = "atom"
Price = 20000
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected duplicate asset error")
	}
}

func TestLoadRejectsZeroPrice(t *testing.T) {
	path := writeConfig(t, `
[[Assets]]
Symbol = "atom"
Price = 0
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected zero price error")
	}
}
