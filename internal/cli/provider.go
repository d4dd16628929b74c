package cli

import (
	"context"
	"fmt"

	"github.com/yolodolo42/ethconnect/internal/config"
	"github.com/yolodolo42/ethconnect/internal/logger"
	"github.com/yolodolo42/ethconnect/internal/provider"
	"github.com/yolodolo42/ethconnect/internal/session"
	"github.com/yolodolo42/ethconnect/internal/ui"
	"github.com/yolodolo42/ethconnect/internal/wallet"
)

// walletEnv is the injected provider a command runs against
type walletEnv struct {
	injected provider.Injected
	node     *provider.Node
	keystore *provider.Keystore
}

// openWallet builds the configured provider. A provider that cannot be set up
// leaves injected nil so sessions report that no wallet is available.
func openWallet(ctx context.Context, cfg *config.Config) *walletEnv {
	log := logger.Named("provider")
	env := &walletEnv{}

	nodeOpts := []provider.NodeOption{provider.WithPollInterval(cfg.PollInterval)}
	if cfg.Provider != config.ProviderNode {
		// the keystore owns the account list
		nodeOpts = append(nodeOpts, provider.WithoutAccountPolling())
	}

	node, err := provider.DialNode(ctx, cfg.RPCURL, nodeOpts...)
	if err != nil {
		log.Warnw("failed to dial upstream node", "rpc_url", cfg.RPCURL, "error", err)
		return env
	}
	node.Start(context.Background())
	env.node = node

	if cfg.Provider == config.ProviderNode {
		env.injected = node
		return env
	}

	km, err := wallet.NewKeystoreManager(cfg.DataDir)
	if err != nil {
		log.Warnw("failed to open keystore", "data_dir", cfg.DataDir, "error", err)
		return env
	}

	ks := provider.NewKeystore(km.KeyStore(), node)
	env.keystore = ks
	env.injected = ks

	if cfg.Account != "" {
		if err := selectAccount(km, ks, cfg.Account); err != nil {
			log.Warnw("configured account unavailable", "account", cfg.Account, "error", err)
		}
	}

	log.Debugw("keystore provider ready", "accounts", len(ks.Accounts()))
	return env
}

func selectAccount(km *wallet.KeystoreManager, ks *provider.Keystore, address string) error {
	account, err := km.FindAccount(address)
	if err != nil {
		return err
	}
	return ks.Select(account.Address)
}

// switcher returns the account switcher for the wallet manager, if any
func (e *walletEnv) switcher() ui.AccountSwitcher {
	if e.keystore == nil {
		return nil
	}
	return e.keystore
}

// newSession creates a session over the environment's provider
func (e *walletEnv) newSession(opts ...session.Option) *session.Session {
	opts = append([]session.Option{session.WithLogger(logger.Named("session"))}, opts...)
	return session.New(e.injected, opts...)
}

func (e *walletEnv) Close() {
	if e.keystore != nil {
		e.keystore.Close()
	}
	if e.node != nil {
		e.node.Close()
	}
}

func describeProvider(cfg *config.Config) string {
	return fmt.Sprintf("%s via %s", cfg.Provider, cfg.RPCURL)
}
