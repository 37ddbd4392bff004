// Command mark3ctl exercises Mark3 components from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joelkehle/mark3/internal/config"
)

type rootOptions struct {
	configPath string
	timeout    time.Duration
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "mark3ctl",
		Short: "Inspect and exercise the Mark3 trademark assistant",
		Long: `mark3ctl runs Mark3 components outside the HTTP server.

Available subcommands:
  classify - Detect registration and NFT listing intent in a message
  nfts     - List the trademark NFTs a wallet owns
  status   - Report configuration and upstream connectivity
  render   - Render a saved chat transcript to HTML or PDF`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (or set MARK3_CONFIG)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "Operation timeout")

	root.AddCommand(
		newClassifyCmd(),
		newNFTsCmd(opts),
		newStatusCmd(opts),
		newRenderCmd(opts),
	)
	return root
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.configPath != "" {
		if err := os.Setenv("MARK3_CONFIG", o.configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
