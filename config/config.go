package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"dsclend/native/lending"
)

// GenesisAsset describes one collateral asset registered at startup.
type GenesisAsset struct {
	Symbol string `toml:"Symbol"`
	Vault  string `toml:"Vault"`
	Price  uint64 `toml:"Price"`
}

type Config struct {
	ListenAddress string         `toml:"ListenAddress"`
	DataDir       string         `toml:"DataDir"`
	Environment   string         `toml:"Environment"`
	Assets        []GenesisAsset `toml:"Assets"`
	Lending       lending.Config `toml:"Lending"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8080"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./dsclend-data"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "local"
	}
	if c.Assets == nil {
		c.Assets = []GenesisAsset{}
	}
	c.Lending.EnsureDefaults()
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Assets))
	for _, asset := range c.Assets {
		symbol := strings.TrimSpace(asset.Symbol)
		if symbol == "" {
			return fmt.Errorf("config: asset with empty symbol")
		}
		if _, dup := seen[symbol]; dup {
			return fmt.Errorf("config: duplicate asset %q", symbol)
		}
		seen[symbol] = struct{}{}
		if asset.Price == 0 {
			return fmt.Errorf("config: asset %q has zero price", symbol)
		}
	}
	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress: ":8080",
		DataDir:       "./dsclend-data",
		Environment:   "local",
		Assets:        []GenesisAsset{},
	}
	cfg.Lending.EnsureDefaults()

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
