package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joelkehle/mark3/internal/nft"
)

func newNFTsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "nfts <address>",
		Short: "List the trademark NFTs a wallet owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			client := nft.NewAlchemyClient(nft.AlchemyConfig{
				APIKey:          cfg.Alchemy.APIKey,
				BaseURL:         cfg.Alchemy.BaseURL,
				ContractAddress: cfg.Alchemy.ContractAddress,
				PageSize:        cfg.Alchemy.PageSize,
			})

			ctx, cancel := opts.context(cmd)
			defer cancel()
			nfts, err := client.OwnedBy(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, nft.Records(nfts))
			}
			_, err = fmt.Fprintln(out, nft.FormatList(nfts))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON instead of markdown")
	return cmd
}
