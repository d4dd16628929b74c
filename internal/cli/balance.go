package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/ethconnect/internal/session"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Look up the native balance of any address",
	Long: `Connect to the configured wallet and look up the native balance of an
address through the wallet's provider. Mixed-case addresses must carry a
valid EIP-55 checksum.`,
	Args: cobra.ExactArgs(1),
	RunE: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	address := args[0]
	out := cmd.OutOrStdout()

	ctx := contextOrBackground(cmd.Context())
	env := openWallet(ctx, cfg)
	defer env.Close()

	s := env.newSession()
	defer s.Close()

	if !s.IsValidAddress(address) {
		return fmt.Errorf("%w: %s", session.ErrInvalidAddress, address)
	}

	if err := connectOnce(ctx, s); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	balance, err := s.FetchBalance(ctx, address)
	if err != nil {
		if errors.Is(err, session.ErrProviderUnavailable) {
			return fmt.Errorf("no wallet connected to look up balances: %w", err)
		}
		return err
	}

	snap := s.Snapshot()
	fmt.Fprintf(out, "%s  %s %s\n", address, balance, snap.Currency)
	return nil
}
