package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Defaults applied when a field is missing from the config file.
const (
	DefaultListenAddress       = "127.0.0.1:8545"
	DefaultDataDir             = "./byob-data"
	DefaultNetworkName         = "byob-local"
	DefaultAuctionDurationSecs = 3 * 24 * 60 * 60
)

type Config struct {
	ListenAddress       string `toml:"ListenAddress"`
	DataDir             string `toml:"DataDir"`
	NetworkName         string `toml:"NetworkName"`
	AdminAddress        string `toml:"AdminAddress"`
	InitialSupply       string `toml:"InitialSupply"`
	AuctionDurationSecs int64  `toml:"AuctionDurationSecs"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = DefaultDataDir
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = DefaultNetworkName
	}
	if cfg.AuctionDurationSecs <= 0 {
		cfg.AuctionDurationSecs = DefaultAuctionDurationSecs
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values for internal consistency.
func (c *Config) Validate() error {
	if c.AdminAddress != "" {
		if _, err := ParseAddress(c.AdminAddress); err != nil {
			return fmt.Errorf("AdminAddress: %w", err)
		}
	}
	if c.InitialSupply != "" {
		if _, err := ParseSupply(c.InitialSupply); err != nil {
			return fmt.Errorf("InitialSupply: %w", err)
		}
	}
	return nil
}

// Admin returns the configured administrator address, or false when unset.
func (c *Config) Admin() ([20]byte, bool, error) {
	if strings.TrimSpace(c.AdminAddress) == "" {
		return [20]byte{}, false, nil
	}
	addr, err := ParseAddress(c.AdminAddress)
	if err != nil {
		return [20]byte{}, false, err
	}
	return addr, true, nil
}

// Supply returns the configured initial token supply, zero when unset.
func (c *Config) Supply() (*big.Int, error) {
	if strings.TrimSpace(c.InitialSupply) == "" {
		return big.NewInt(0), nil
	}
	return ParseSupply(c.InitialSupply)
}

// ParseAddress decodes a 20-byte hex address with optional 0x prefix.
func ParseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if len(trimmed) != 40 {
		return addr, fmt.Errorf("address must be 20 bytes (got %d hex chars)", len(trimmed))
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("decode address: %w", err)
	}
	copy(addr[:], decoded)
	return addr, nil
}

// ParseSupply decodes a non-negative base-10 token amount.
func ParseSupply(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 amount: %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be non-negative")
	}
	return amount, nil
}
