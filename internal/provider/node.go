package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

const DefaultPollInterval = 4 * time.Second

// Node is an injected provider backed by a JSON-RPC node. A node has no push
// notification for account or chain changes, so Start polls eth_accounts and
// eth_chainId and emits an event whenever either differs from the last poll.
type Node struct {
	Emitter

	client       *rpc.Client
	interval     time.Duration
	skipAccounts bool

	mu           sync.Mutex
	accounts     []string
	chainID      string
	accountsSeen bool
	chainSeen    bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NodeOption configures a Node
type NodeOption func(*Node)

// WithPollInterval sets how often Start checks for account and chain changes
func WithPollInterval(d time.Duration) NodeOption {
	return func(n *Node) {
		if d > 0 {
			n.interval = d
		}
	}
}

// WithoutAccountPolling limits polling to eth_chainId, for a node that only
// serves reads behind a signing provider
func WithoutAccountPolling() NodeOption {
	return func(n *Node) {
		n.skipAccounts = true
	}
}

// DialNode connects to a node over http(s), ws(s) or ipc
func DialNode(ctx context.Context, rawURL string, opts ...NodeOption) (*Node, error) {
	client, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rawURL, err)
	}
	return NewNode(client, opts...), nil
}

// NewNode wraps an existing rpc client
func NewNode(client *rpc.Client, opts ...NodeOption) *Node {
	n := &Node{
		client:   client,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Request forwards the call to the node. Nodes do not implement the wallet
// permission method eth_requestAccounts, so it is answered with eth_accounts.
func (n *Node) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if method == "eth_requestAccounts" {
		method = "eth_accounts"
	}

	var result json.RawMessage
	if err := n.client.CallContext(ctx, &result, method, params...); err != nil {
		return nil, err
	}
	return result, nil
}

// Start begins polling for account and chain changes until ctx is done or
// Close is called. Calling Start twice is a no-op.
func (n *Node) Start(ctx context.Context) {
	n.mu.Lock()
	if n.cancel != nil {
		n.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.done = make(chan struct{})
	n.mu.Unlock()

	go n.pollLoop(ctx)
}

func (n *Node) pollLoop(ctx context.Context) {
	defer close(n.done)

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	n.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.Poll(ctx)
		}
	}
}

// Poll performs a single change check. Accounts and chain id are tracked
// separately: the first successful read of each only records its baseline,
// and a failed read leaves that baseline untouched until the next tick.
func (n *Node) Poll(ctx context.Context) {
	var chainID string
	if err := n.client.CallContext(ctx, &chainID, "eth_chainId"); err == nil {
		n.mu.Lock()
		changed := n.chainSeen && n.chainID != chainID
		n.chainID, n.chainSeen = chainID, true
		n.mu.Unlock()

		if changed {
			n.Emit(EventChainChanged, chainID)
		}
	}

	if n.skipAccounts {
		return
	}

	var accounts []string
	if err := n.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return
	}

	n.mu.Lock()
	changed := n.accountsSeen && !sameAccounts(n.accounts, accounts)
	n.accounts, n.accountsSeen = accounts, true
	n.mu.Unlock()

	if changed {
		payload := make([]string, len(accounts))
		copy(payload, accounts)
		n.Emit(EventAccountsChanged, payload)
	}
}

// Close stops polling and closes the rpc client
func (n *Node) Close() {
	n.mu.Lock()
	cancel, done := n.cancel, n.done
	n.cancel = nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	n.client.Close()
}

func sameAccounts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
