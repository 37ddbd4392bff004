// Package status reports configuration, third-party connectivity and service
// health for the status page.
package status

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joelkehle/mark3/internal/assistant"
	"github.com/joelkehle/mark3/internal/config"
)

const (
	StateSuccess = "success"
	StateError   = "error"
)

const checkTimeout = 10 * time.Second

type Item struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Report struct {
	Environment []Item `json:"environment"`
	Connections []Item `json:"connections"`
	Services    []Item `json:"services"`
}

// Healthy reports whether no item is in the error state.
func (r Report) Healthy() bool {
	for _, group := range [][]Item{r.Environment, r.Connections, r.Services} {
		for _, it := range group {
			if it.Status == StateError {
				return false
			}
		}
	}
	return true
}

// PinningAuth verifies IPFS pinning credentials.
type PinningAuth interface {
	Configured() bool
	TestAuthentication(ctx context.Context) error
}

// BlockReader is the part of an Ethereum JSON-RPC client the RPC check uses.
type BlockReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

type Dialer func(ctx context.Context, rawURL string) (BlockReader, error)

func DialEthereum(ctx context.Context, rawURL string) (BlockReader, error) {
	c, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type Checker struct {
	cfg     config.Config
	llm     assistant.Pinger
	pinning PinningAuth
	dial    Dialer
	timeout time.Duration
	logger  *zap.Logger
}

// NewChecker wires the probes. llm and pinning may be nil when the feature
// is not built.
func NewChecker(cfg config.Config, llm assistant.Pinger, pinning PinningAuth, dial Dialer, logger *zap.Logger) *Checker {
	if dial == nil {
		dial = DialEthereum
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{cfg: cfg, llm: llm, pinning: pinning, dial: dial, timeout: checkTimeout, logger: logger}
}

// Check builds a full report. Connection probes run concurrently, each
// bounded by its own timeout.
func (c *Checker) Check(ctx context.Context) Report {
	return Report{
		Environment: c.environment(),
		Connections: c.connections(ctx),
		Services:    c.services(),
	}
}

func (c *Checker) environment() []Item {
	llmName := providerLabel(c.cfg.LLM.Provider) + " API Key"
	items := []Item{keyItem(llmName, c.cfg.LLM.APIKey, envKeyFor(c.cfg.LLM.Provider))}

	switch {
	case c.cfg.Pinata.JWT != "":
		items = append(items, Item{Name: "Pinata credentials", Status: StateSuccess, Message: "Configured", Details: "JWT: " + mask(c.cfg.Pinata.JWT)})
	case c.cfg.PinataConfigured():
		items = append(items, Item{Name: "Pinata credentials", Status: StateSuccess, Message: "Configured", Details: "API key: " + mask(c.cfg.Pinata.APIKey)})
	default:
		items = append(items, Item{Name: "Pinata credentials", Status: StateError, Message: "Not configured", Details: "Add PINATA_JWT to your .env file"})
	}

	items = append(items, keyItem("Alchemy API Key", c.cfg.Alchemy.APIKey, "ALCHEMY_API_KEY"))

	env := c.cfg.Log.Environment
	if env == "" {
		env = "development"
	}
	mode := "Development mode"
	if c.cfg.IsProduction() {
		mode = "Production mode"
	}
	items = append(items, Item{Name: "Environment", Status: StateSuccess, Message: "Set to: " + env, Details: mode})

	network := c.cfg.Network()
	kind := "Mainnet"
	if network.Name == config.NetworkAeneid {
		kind = "Testnet"
	}
	items = append(items, Item{Name: "Story Protocol Network", Status: StateSuccess, Message: "Set to: " + network.Name, Details: kind})

	if strings.TrimSpace(c.cfg.Story.RPCURL) != "" {
		items = append(items, Item{Name: "RPC Provider URL", Status: StateSuccess, Message: "Configured", Details: "Custom URL configured"})
	} else {
		items = append(items, Item{Name: "RPC Provider URL", Status: StateSuccess, Message: "Using default URL", Details: "Chosen from the configured network"})
	}
	return items
}

func (c *Checker) connections(ctx context.Context) []Item {
	items := make([]Item, 3)
	var g errgroup.Group
	g.Go(func() error {
		items[0] = c.checkLLM(ctx)
		return nil
	})
	g.Go(func() error {
		items[1] = c.checkPinning(ctx)
		return nil
	})
	g.Go(func() error {
		items[2] = c.checkRPC(ctx)
		return nil
	})
	_ = g.Wait()
	return items
}

func (c *Checker) checkLLM(ctx context.Context) Item {
	name := providerLabel(c.cfg.LLM.Provider) + " connection"
	if c.llm == nil || strings.TrimSpace(c.cfg.LLM.APIKey) == "" {
		return Item{Name: name, Status: StateError, Message: "Cannot verify", Details: envKeyFor(c.cfg.LLM.Provider) + " is not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.llm.Ping(ctx); err != nil {
		c.logger.Warn("status: llm ping failed", zap.Error(err))
		return Item{Name: name, Status: StateError, Message: "Connection error", Details: err.Error()}
	}
	return Item{Name: name, Status: StateSuccess, Message: "Connected", Details: "The API responds correctly"}
}

func (c *Checker) checkPinning(ctx context.Context) Item {
	const name = "Pinata connection"
	if c.pinning == nil || !c.pinning.Configured() {
		return Item{Name: name, Status: StateError, Message: "Cannot verify", Details: "PINATA_JWT is not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.pinning.TestAuthentication(ctx); err != nil {
		c.logger.Warn("status: pinata auth failed", zap.Error(err))
		return Item{Name: name, Status: StateError, Message: "Authentication error", Details: err.Error()}
	}
	return Item{Name: name, Status: StateSuccess, Message: "Connected", Details: "The API responds correctly"}
}

func (c *Checker) checkRPC(ctx context.Context) Item {
	const name = "Story Protocol RPC connection"
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := c.dial(ctx, c.cfg.RPCURL())
	if err != nil {
		details := c.scrubRPC(err)
		c.logger.Warn("status: rpc dial failed", zap.String("rpc", c.rpcLabel()), zap.String("error", details))
		return Item{Name: name, Status: StateError, Message: "Connection error", Details: details}
	}
	defer client.Close()

	block, err := client.BlockNumber(ctx)
	if err != nil {
		details := c.scrubRPC(err)
		c.logger.Warn("status: rpc block number failed", zap.String("rpc", c.rpcLabel()), zap.String("error", details))
		return Item{Name: name, Status: StateError, Message: "Invalid response", Details: details}
	}
	return Item{Name: name, Status: StateSuccess, Message: "Connected", Details: fmt.Sprintf("Current block: %d", block)}
}

func (c *Checker) services() []Item {
	network := c.cfg.Network()
	items := []Item{
		{Name: "Mark3 server", Status: StateSuccess, Message: "Running", Details: "The server is answering requests"},
		{Name: "Story Protocol configuration", Status: StateSuccess, Message: "Network: " + network.Name, Details: "RPC: " + c.rpcLabel()},
	}
	if strings.TrimSpace(c.cfg.LLM.APIKey) == "" {
		items = append(items, Item{Name: "Assistant", Status: StateError, Message: "Not available", Details: "No " + providerLabel(c.cfg.LLM.Provider) + " API key"})
	} else {
		items = append(items, Item{Name: "Assistant", Status: StateSuccess, Message: "Available", Details: providerLabel(c.cfg.LLM.Provider) + " " + c.cfg.LLMModel()})
	}
	if strings.TrimSpace(c.cfg.Alchemy.APIKey) == "" {
		items = append(items, Item{Name: "NFT indexing", Status: StateError, Message: "Not available", Details: "No Alchemy API key"})
	} else {
		items = append(items, Item{Name: "NFT indexing", Status: StateSuccess, Message: "Available", Details: "Contract " + c.cfg.Alchemy.ContractAddress})
	}
	return items
}

// rpcLabel names the RPC endpoint without revealing a custom URL, which
// often embeds a provider key.
func (c *Checker) rpcLabel() string {
	if strings.TrimSpace(c.cfg.Story.RPCURL) != "" {
		return "custom URL"
	}
	return c.cfg.RPCURL()
}

// scrubRPC renders err with any custom RPC URL replaced by its label.
func (c *Checker) scrubRPC(err error) string {
	msg := err.Error()
	if custom := strings.TrimSpace(c.cfg.Story.RPCURL); custom != "" {
		msg = strings.ReplaceAll(msg, custom, c.rpcLabel())
		if u, perr := url.Parse(custom); perr == nil {
			msg = strings.ReplaceAll(msg, u.String(), c.rpcLabel())
			if u.Host != "" {
				msg = strings.ReplaceAll(msg, u.Host, "rpc-host")
			}
		}
	}
	return msg
}

func keyItem(name, key, envVar string) Item {
	if strings.TrimSpace(key) == "" {
		return Item{Name: name, Status: StateError, Message: "Not configured", Details: "Add " + envVar + " to your .env file"}
	}
	return Item{Name: name, Status: StateSuccess, Message: "Configured", Details: "Key: " + mask(key)}
}

// mask keeps the first 8 characters of a secret.
func mask(secret string) string {
	if len(secret) <= 8 {
		return secret[:len(secret)/2] + "..."
	}
	return secret[:8] + "..."
}

func providerLabel(provider string) string {
	if provider == config.ProviderGemini {
		return "Gemini"
	}
	return "Anthropic"
}

func envKeyFor(provider string) string {
	if provider == config.ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "ANTHROPIC_API_KEY"
}
