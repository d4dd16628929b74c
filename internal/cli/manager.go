package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/ethconnect/internal/session"
	"github.com/yolodolo42/ethconnect/internal/setup"
	"github.com/yolodolo42/ethconnect/internal/ui"
	"golang.org/x/term"
)

// isInteractive checks if both ends of the terminal are attached
func isInteractive() bool {
	return setup.IsInteractive() && term.IsTerminal(int(os.Stdout.Fd()))
}

func runManager(cmd *cobra.Command, args []string) error {
	if !isInteractive() {
		return fmt.Errorf("the wallet manager needs an interactive terminal: use 'ethconnect connect' instead")
	}

	if setup.NeedsSetup(cfg) {
		result, err := setup.RunWizard(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("setup failed: %w", err)
		}
		if result == nil || result.Cancelled {
			return nil
		}
	}

	env := openWallet(contextOrBackground(cmd.Context()), cfg)
	defer env.Close()

	events := ui.NewEvents()
	defer events.Close()

	s := env.newSession(
		session.WithObserver(events.Observe),
		session.WithReloader(events),
	)
	s.Subscribe()
	defer s.Close()

	opts := []ui.ManagerOption{
		ui.WithTimeout(cfg.RequestTimeout),
		ui.WithTitle(fmt.Sprintf("ethconnect - %s", cfg.ChainConfig.Name)),
	}
	if sw := env.switcher(); sw != nil {
		opts = append(opts, ui.WithAccountSwitcher(sw))
	}

	p := tea.NewProgram(
		ui.NewWalletManager(s, events, opts...),
		tea.WithAltScreen(),
		tea.WithContext(contextOrBackground(cmd.Context())),
	)

	_, err := p.Run()
	return err
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
