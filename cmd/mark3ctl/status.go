package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joelkehle/mark3/internal/app"
	"github.com/joelkehle/mark3/internal/status"
)

var errUnhealthy = errors.New("one or more checks failed")

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report configuration and upstream connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			components, err := app.Build(ctx, cfg, nil)
			if err != nil {
				return err
			}
			report := components.Status.Check(ctx)

			out := cmd.OutOrStdout()
			if asJSON {
				err = printJSON(out, report)
			} else {
				err = writeReport(out, report)
			}
			if err != nil {
				return err
			}
			if !report.Healthy() {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func writeReport(w io.Writer, r status.Report) error {
	sections := []struct {
		title string
		items []status.Item
	}{
		{"Environment", r.Environment},
		{"Connections", r.Connections},
		{"Services", r.Services},
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "%s\n", s.title); err != nil {
			return err
		}
		for _, it := range s.items {
			mark := "ok "
			if it.Status != status.StateSuccess {
				mark = "ERR"
			}
			line := fmt.Sprintf("  [%s] %s: %s", mark, it.Name, it.Message)
			if it.Details != "" {
				line += " (" + it.Details + ")"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
