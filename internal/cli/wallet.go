package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/ethconnect/internal/chain"
	"github.com/yolodolo42/ethconnect/internal/wallet"
	"golang.org/x/term"
)

const minPasswordLen = 8

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage keystore accounts",
	Long: `Create, import, and list the accounts the keystore provider exposes
to the wallet session.`,
}

var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new keystore account",
	RunE:  runWalletCreate,
}

var walletImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an account from a private key or recovery phrase",
	Long: `Import an account from a hex private key, or with --mnemonic from a BIP39
recovery phrase. Mnemonic accounts are derived at m/44'/60'/0'/0/<index>.`,
	RunE: runWalletImport,
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List keystore accounts",
	RunE:  runWalletList,
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletCreateCmd, walletImportCmd, walletListCmd)

	walletImportCmd.Flags().String("key", "", "Private key to import (hex, with or without 0x prefix)")
	walletImportCmd.Flags().Bool("mnemonic", false, "Import from a BIP39 recovery phrase")
	walletImportCmd.Flags().Uint32("index", 0, "Account index to derive from the recovery phrase")
	walletImportCmd.MarkFlagsMutuallyExclusive("key", "mnemonic")
}

// readSecret prompts on w and reads a line from the terminal without echo
func readSecret(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

// readNewPassword asks for a keystore password twice
func readNewPassword(w io.Writer) (string, error) {
	password, err := readSecret(w, "Keystore password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	confirm, err := readSecret(w, "Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func printAccount(w io.Writer, verb string, account accounts.Account) {
	fmt.Fprintf(w, "\nAccount %s\n", verb)
	fmt.Fprintf(w, "Address:  %s\n", account.Address.Hex())
	fmt.Fprintf(w, "Keystore: %s\n", account.URL.Path)
}

func runWalletCreate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	km, err := wallet.NewKeystoreManager(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize keystore: %w", err)
	}

	password, err := readNewPassword(out)
	if err != nil {
		return err
	}

	account, err := km.CreateAccount(password)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	printAccount(out, "created", account)
	fmt.Fprintln(out, "\nBack up the keystore file and remember the password.")
	return nil
}

func runWalletImport(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	key, _ := cmd.Flags().GetString("key")
	fromMnemonic, _ := cmd.Flags().GetBool("mnemonic")
	index, _ := cmd.Flags().GetUint32("index")

	var (
		secret string
		err    error
	)
	switch {
	case fromMnemonic:
		secret, err = readSecret(out, "Recovery phrase: ")
		if err == nil {
			err = wallet.ValidateMnemonic(secret)
		}
	case key != "":
		secret, err = key, wallet.ValidateKey(key)
	default:
		secret, err = readSecret(out, "Private key (hex): ")
		if err == nil {
			secret = strings.TrimSpace(secret)
			err = wallet.ValidateKey(secret)
		}
	}
	if err != nil {
		return err
	}

	km, err := wallet.NewKeystoreManager(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize keystore: %w", err)
	}

	password, err := readNewPassword(out)
	if err != nil {
		return err
	}

	var account accounts.Account
	if fromMnemonic {
		account, err = km.ImportMnemonic(secret, password, index)
	} else {
		account, err = km.ImportKey(secret, password)
	}
	if err != nil {
		return fmt.Errorf("failed to import account: %w", err)
	}

	printAccount(out, "imported", account)
	if fromMnemonic {
		fmt.Fprintf(out, "Path:     %s\n", wallet.DerivationPath(index))
	}
	return nil
}

func runWalletList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	km, err := wallet.NewKeystoreManager(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize keystore: %w", err)
	}

	list := km.ListAccounts()
	if len(list) == 0 {
		fmt.Fprintln(out, "No wallets found.")
		fmt.Fprintln(out, "Use 'ethconnect wallet create' or 'ethconnect wallet import' to add one.")
		return nil
	}

	fmt.Fprintf(out, "Found %d wallet(s):\n\n", len(list))
	for i, acc := range list {
		marker := ""
		if cfg.Account != "" && chain.SameAddress(cfg.Account, acc.Address.Hex()) {
			marker = " (default)"
		}
		fmt.Fprintf(out, "%d. %s%s\n", i+1, acc.Address.Hex(), marker)
	}
	return nil
}
