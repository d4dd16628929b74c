package chain

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/agnivade/levenshtein"
)

// ChainConfig describes a known EVM network. ChainIDInt mirrors ChainID for
// YAML output; newChain keeps the two in sync.
type ChainConfig struct {
	Name           string   `yaml:"name"`
	ChainID        *big.Int `yaml:"-"`
	ChainIDInt     int64    `yaml:"chain_id"`
	RPCURLs        []string `yaml:"rpc_urls"`
	ExplorerURL    string   `yaml:"explorer_url,omitempty"`
	NativeCurrency string   `yaml:"native_currency"`
	IsTestnet      bool     `yaml:"is_testnet"`
}

func newChain(name string, id int64, currency, explorer string, testnet bool, rpcURLs ...string) *ChainConfig {
	return &ChainConfig{
		Name:           name,
		ChainID:        big.NewInt(id),
		ChainIDInt:     id,
		RPCURLs:        rpcURLs,
		ExplorerURL:    explorer,
		NativeCurrency: currency,
		IsTestnet:      testnet,
	}
}

// DefaultChains returns the chains ethconnect knows by name. The first RPC URL
// of a chain is used as the upstream node when none is configured.
func DefaultChains() map[string]*ChainConfig {
	const mainnet, testnet = false, true
	return map[string]*ChainConfig{
		"ethereum": newChain("Ethereum Mainnet", 1, "ETH", "https://etherscan.io", mainnet,
			"https://eth.llamarpc.com", "https://rpc.ankr.com/eth"),
		"base": newChain("Base", 8453, "ETH", "https://basescan.org", mainnet,
			"https://mainnet.base.org", "https://base.llamarpc.com"),
		"arbitrum": newChain("Arbitrum One", 42161, "ETH", "https://arbiscan.io", mainnet,
			"https://arb1.arbitrum.io/rpc", "https://arbitrum.llamarpc.com"),
		"optimism": newChain("Optimism", 10, "ETH", "https://optimistic.etherscan.io", mainnet,
			"https://mainnet.optimism.io", "https://optimism.llamarpc.com"),
		"polygon": newChain("Polygon", 137, "MATIC", "https://polygonscan.com", mainnet,
			"https://polygon-rpc.com", "https://polygon.llamarpc.com"),
		"sepolia": newChain("Sepolia Testnet", 11155111, "ETH", "https://sepolia.etherscan.io", testnet,
			"https://rpc.sepolia.org", "https://sepolia.drpc.org"),
		"holesky": newChain("Holesky Testnet", 17000, "ETH", "https://holesky.etherscan.io", testnet,
			"https://ethereum-holesky-rpc.publicnode.com"),
		"base-sepolia": newChain("Base Sepolia Testnet", 84532, "ETH", "https://sepolia.basescan.org", testnet,
			"https://sepolia.base.org"),
		"local": newChain("Local Devnet", 31337, "ETH", "", testnet,
			"http://127.0.0.1:8545"),
	}
}

// LookupChain returns the configuration registered under name
func LookupChain(chains map[string]*ChainConfig, name string) (*ChainConfig, error) {
	config, ok := chains[name]
	if !ok {
		if suggestion := suggestChain(chains, name); suggestion != "" {
			return nil, fmt.Errorf("unknown chain: %s (did you mean %q?)", name, suggestion)
		}
		return nil, fmt.Errorf("unknown chain: %s", name)
	}
	return config, nil
}

// suggestChain returns the closest registered name within an edit distance of
// a third of the input, or "" when nothing is close
func suggestChain(chains map[string]*ChainConfig, name string) string {
	maxDist := len(name)/3 + 1
	best, bestDist := "", maxDist+1
	for _, candidate := range ChainNames(chains) {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

// LookupChainID finds the chain with the given id
func LookupChainID(chains map[string]*ChainConfig, chainID *big.Int) (string, *ChainConfig, bool) {
	if chainID == nil {
		return "", nil, false
	}
	for name, config := range chains {
		if config.ChainID.Cmp(chainID) == 0 {
			return name, config, true
		}
	}
	return "", nil, false
}

// ChainNames returns the registered chain names in sorted order
func ChainNames(chains map[string]*ChainConfig) []string {
	names := make([]string, 0, len(chains))
	for name := range chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
