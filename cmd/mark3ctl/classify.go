package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joelkehle/mark3/internal/intent"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <message>",
		Short: "Detect registration and NFT listing intent in a message",
		Example: `  mark3ctl classify "I want to register my brand"
  mark3ctl classify show nfts of 0x1234567890abcdef1234567890abcdef12345678`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), intent.Classify(strings.Join(args, " ")))
		},
	}
}
