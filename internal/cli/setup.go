package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/ethconnect/internal/setup"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run the setup wizard",
	Long: `Run the interactive setup wizard to create or import a keystore account.

The wallet manager starts this wizard on its own when the keystore provider
is selected and the keystore is empty. Use --force to add another account to
a keystore that already has one.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().Bool("force", false, "Run the wizard even if the keystore has accounts")
}

func runSetup(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	status, err := setup.Detect(cfg.DataDir, cfg.Account)
	if err != nil {
		return fmt.Errorf("failed to read keystore: %w", err)
	}
	if force, _ := cmd.Flags().GetBool("force"); status.HasWallet() && !force {
		fmt.Fprintf(out, "Keystore already has %d account(s), default %s.\n", len(status.Accounts), status.Default)
		fmt.Fprintln(out, "Run 'ethconnect setup --force' to add another.")
		return nil
	}

	if !setup.IsInteractive() {
		return errors.New("setup requires an interactive terminal: use 'ethconnect wallet create' or 'ethconnect wallet import'")
	}

	result, err := setup.RunWizard(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	if result != nil && result.WalletCreated {
		fmt.Fprintf(out, "\nAccount %s is ready. Run 'ethconnect' to connect.\n", result.WalletAddress)
	}
	return nil
}
