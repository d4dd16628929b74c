package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/ethconnect/internal/config"
	"github.com/yolodolo42/ethconnect/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "ethconnect",
		Short: "Minimal Ethereum wallet connector",
		Long: `ethconnect connects to an Ethereum wallet, shows the connected account,
its native balance and the active network, and looks up the balance of
any address.

Without a subcommand it opens the interactive wallet manager.`,
		SilenceUsage:       true,
		PersistentPreRunE:  loadConfig,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return logger.Sync() },
		RunE:               runManager,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ethconnect/config.yaml)")
	flags.String("chain", config.DefaultChain, "Chain to connect to")
	flags.String("rpc-url", "", "Upstream JSON-RPC endpoint (default is the chain's first public RPC)")
	flags.String("provider", config.ProviderKeystore, "Wallet provider: keystore or node")
	flags.String("account", "", "Keystore account to expose on connect")
	flags.String("data-dir", "", "Directory holding the keystore and log file (default is $HOME/.ethconnect)")
	flags.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")

	bindFlags()
}

// bindFlags maps persistent flags onto config keys
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	for key, flag := range map[string]string{
		"chain":     "chain",
		"rpc_url":   "rpc-url",
		"provider":  "provider",
		"account":   "account",
		"data_dir":  "data-dir",
		"log_level": "log-level",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".ethconnect")
		if err := os.MkdirAll(configDir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config directory: %v\n", err)
		}

		viper.AddConfigPath(configDir)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Silently ignore missing config file - it's optional
	_ = viper.ReadInConfig()
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithLevel(loaded.LogLevel), logger.WithFile(loaded.LogFile)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg = loaded
	logger.L().Debugw("configuration loaded",
		"chain", cfg.Chain,
		"provider", cfg.Provider,
		"rpc_url", cfg.RPCURL,
		"data_dir", cfg.DataDir,
	)
	return nil
}
