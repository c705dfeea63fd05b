// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Server holds the HTTP facade listener and its shared-secret API key.
type Server struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

// Mongo points at the document store holding user and wallet records.
type Mongo struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// Dex defines network endpoints and defaults for on-chain execution.
type Dex struct {
	RpcURL      string `yaml:"rpc_url"`
	Commitment  string `yaml:"commitment"`   // processed|confirmed|finalized
	JupiterBase string `yaml:"jupiter_base"` // https://quote-api.jup.ag
}

// Vault holds the hex-encoded 32-byte key protecting wallet secrets at rest.
type Vault struct {
	EncryptionKey string `yaml:"encryption_key"`
}

// Risk encodes guard-rails for how much size the executor may take on.
type Risk struct {
	MaxTradeAmount float64 `yaml:"max_trade_amount"` // native units; 0 disables the cap
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App    App    `yaml:"app"`
	Server Server `yaml:"server"`
	Mongo  Mongo  `yaml:"mongo"`
	Dex    Dex    `yaml:"dex"`
	Vault  Vault  `yaml:"vault"`
	Risk   Risk   `yaml:"risk"`
}

// Load reads a YAML file from disk, hydrates a Config struct, and applies
// environment overrides for secrets and endpoints.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyEnv()
	return &config, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Server.APIKey = getEnv("API_KEY", c.Server.APIKey)
	c.Mongo.URI = getEnv("MONGODB_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGODB_DATABASE", c.Mongo.Database)
	c.Dex.RpcURL = getEnv("SOLANA_RPC_URL", c.Dex.RpcURL)
	c.Dex.Commitment = getEnv("SOLANA_COMMITMENT", c.Dex.Commitment)
	c.Dex.JupiterBase = getEnv("JUPITER_BASE_URL", c.Dex.JupiterBase)
	c.Vault.EncryptionKey = getEnv("ENCRYPTION_KEY", c.Vault.EncryptionKey)
}

// Validate rejects configurations the process must not start with.
func (c *Config) Validate() error {
	if c.Server.APIKey == "" {
		return fmt.Errorf("server api key is required")
	}
	key, err := hex.DecodeString(c.Vault.EncryptionKey)
	if err != nil {
		return fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if c.Dex.RpcURL == "" {
		return fmt.Errorf("solana rpc url is required")
	}
	return nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
