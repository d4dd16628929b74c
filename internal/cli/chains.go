package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/ethconnect/internal/chain"
	"gopkg.in/yaml.v3"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List known chains",
	RunE:  runChains,
}

func init() {
	rootCmd.AddCommand(chainsCmd)
	chainsCmd.Flags().Bool("yaml", false, "Print the chain table as YAML")
}

func runChains(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	chains := chain.DefaultChains()

	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(chains); err != nil {
			return fmt.Errorf("failed to encode chains: %w", err)
		}
		return enc.Close()
	}

	for _, name := range chain.ChainNames(chains) {
		c := chains[name]

		indicator := "○"
		if name == cfg.Chain {
			indicator = "●"
		}
		kind := ""
		if c.IsTestnet {
			kind = " (testnet)"
		}

		fmt.Fprintf(out, "%s %-14s %-8d %-6s %s%s\n", indicator, name, c.ChainIDInt, c.NativeCurrency, c.Name, kind)
	}
	return nil
}
