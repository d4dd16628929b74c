package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/ethconnect/internal/logger"
	"github.com/yolodolo42/ethconnect/internal/session"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to the wallet and show the account",
	Long: `Connect to the configured wallet provider and print the connected
account, its balance and the active network.

With --watch the connection stays open: the balance is refreshed every poll
interval and account or network changes reported by the wallet are printed
as they happen.`,
	RunE: runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().Bool("watch", false, "Keep the session open and print changes")
}

func runConnect(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	out := cmd.OutOrStdout()

	ctx := contextOrBackground(cmd.Context())
	env := openWallet(ctx, cfg)
	defer env.Close()

	if !watch {
		s := env.newSession()
		defer s.Close()

		if err := connectOnce(ctx, s); err != nil {
			return err
		}
		fmt.Fprintf(out, "Provider: %s\n", describeProvider(cfg))
		printSnapshot(out, s.Snapshot())
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchSession(ctx, out, env, cfg.PollInterval)
}

func connectOnce(ctx context.Context, s *session.Session) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	if err := s.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect wallet: %w", err)
	}
	return nil
}

// watchSession keeps a session open until ctx ends. A chain change throws the
// session away and starts a new one.
func watchSession(ctx context.Context, out io.Writer, env *walletEnv, interval time.Duration) error {
	log := logger.Named("watch")

	for {
		reload := make(chan struct{}, 1)
		changes := make(chan session.Snapshot, 16)

		s := env.newSession(
			session.WithReloader(session.ReloadFunc(func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})),
			session.WithObserver(func(snap session.Snapshot) {
				select {
				case changes <- snap:
				default:
				}
			}),
		)
		s.Subscribe()

		if err := connectOnce(ctx, s); err != nil {
			s.Close()
			return err
		}
		printSnapshot(out, s.Snapshot())

		reloaded, err := watchUntil(ctx, out, s, changes, reload, interval)
		s.Close()
		if err != nil || !reloaded {
			return err
		}

		log.Infow("network changed, restarting session")
		fmt.Fprintln(out, "Network changed, reconnecting...")
	}
}

func watchUntil(ctx context.Context, out io.Writer, s *session.Session, changes <-chan session.Snapshot, reload <-chan struct{}, interval time.Duration) (bool, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := s.Snapshot()
	for {
		select {
		case <-ctx.Done():
			return false, nil

		case <-reload:
			return true, nil

		case <-ticker.C:
			rctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			err := s.RefreshBalance(rctx)
			cancel()
			if err != nil && !errors.Is(err, session.ErrStale) && ctx.Err() == nil {
				fmt.Fprintf(out, "⚠ %v\n", err)
			}

		case <-changes:
			snap := s.Snapshot()
			if snap.Loading || snap == last {
				continue
			}
			if !snap.Connected && last.Connected {
				fmt.Fprintln(out, "Wallet disconnected.")
				return false, nil
			}
			if snap.Connected {
				printSnapshot(out, snap)
			}
			last = snap
		}
	}
}

func printSnapshot(out io.Writer, snap session.Snapshot) {
	fmt.Fprintf(out, "Account:  %s\n", snap.Address)
	fmt.Fprintf(out, "Balance:  %s %s\n", snap.Balance, snap.Currency)
	fmt.Fprintf(out, "Network:  %s (chain %d)\n", snap.Network, snap.ChainID)
}
