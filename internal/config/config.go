// Package config loads ethconnect settings from flags, environment and the
// YAML config file through viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/yolodolo42/ethconnect/internal/chain"
)

const (
	EnvPrefix = "ETHCONNECT"

	ProviderNode     = "node"
	ProviderKeystore = "keystore"

	DefaultChain          = "ethereum"
	DefaultPollInterval   = 4 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultLogLevel       = "info"
)

// Config is the resolved runtime configuration
type Config struct {
	Chain          string        `mapstructure:"chain" validate:"required"`
	RPCURL         string        `mapstructure:"rpc_url" validate:"omitempty,url"`
	Provider       string        `mapstructure:"provider" validate:"oneof=node keystore"`
	Account        string        `mapstructure:"account" validate:"omitempty,eth_addr"`
	DataDir        string        `mapstructure:"data_dir" validate:"required"`
	PollInterval   time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	LogLevel       string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFile        string        `mapstructure:"log_file"`

	// ChainConfig is the known chain named by Chain
	ChainConfig *chain.ChainConfig `mapstructure:"-"`
}

// DefaultDataDir returns $HOME/.ethconnect
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ethconnect"
	}
	return filepath.Join(home, ".ethconnect")
}

// SetDefaults registers defaults and environment binding on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("chain", DefaultChain)
	v.SetDefault("provider", ProviderKeystore)
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// AutomaticEnv only sees keys viper already knows about
	for _, key := range []string{"rpc_url", "account", "log_file"} {
		_ = v.BindEnv(key)
	}
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	cc, err := chain.LookupChain(chain.DefaultChains(), cfg.Chain)
	if err != nil {
		return nil, err
	}
	cfg.ChainConfig = cc

	if cfg.RPCURL == "" && len(cc.RPCURLs) > 0 {
		cfg.RPCURL = cc.RPCURLs[0]
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "ethconnect.log")
	}

	return &cfg, nil
}
