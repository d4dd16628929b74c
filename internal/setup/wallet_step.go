package setup

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/yolodolo42/ethconnect/internal/wallet"
)

// saveWallet stores the account for the chosen source, encrypted with the
// entered password
func (m WizardModel) saveWallet() tea.Cmd {
	source, secret, password := m.source, m.secret.Value(), m.password.Value()
	dataDir, opts := m.dataDir, m.keystoreOpts

	return func() tea.Msg {
		km, err := wallet.NewKeystoreManager(dataDir, opts...)
		if err != nil {
			return walletSavedMsg{err: err}
		}

		var account accounts.Account
		switch source {
		case sourceNew:
			account, err = km.CreateAccount(password)
		case sourceKey:
			account, err = km.ImportKey(secret, password)
		case sourceMnemonic:
			account, err = km.ImportMnemonic(secret, password, 0)
		default:
			err = fmt.Errorf("nothing to save for %q", source)
		}
		if err != nil {
			return walletSavedMsg{err: err}
		}
		return walletSavedMsg{address: account.Address.Hex()}
	}
}
