package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joelkehle/mark3/internal/apperr"
	"github.com/joelkehle/mark3/internal/render"
)

type renderOptions struct {
	format string
	output string
	webDir string
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	ro := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render <transcript.json>",
		Short: "Render a saved chat transcript to HTML or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			var t render.Transcript
			if err := json.Unmarshal(in, &t); err != nil {
				return fmt.Errorf("decode transcript JSON: %w", err)
			}

			doc, err := render.TranscriptHTML(t, render.LoadStyle(ro.webDir))
			if err != nil {
				return fmt.Errorf("render html: %w", err)
			}

			var out []byte
			switch strings.ToLower(ro.format) {
			case "html":
				out = []byte(doc)
			case "pdf":
				if ro.output == "" {
					return apperr.Validation("--output is required for pdf")
				}
				pdf := render.NewChromiumPDFRenderer()
				ctx, cancel := opts.context(cmd)
				defer cancel()
				if out, err = pdf.Render(ctx, doc); err != nil {
					return fmt.Errorf("render pdf: %w", err)
				}
			default:
				return apperr.Validation(fmt.Sprintf("unsupported format %q: use html or pdf", ro.format))
			}
			return writeOutput(cmd.OutOrStdout(), ro.output, out)
		},
	}
	cmd.Flags().StringVarP(&ro.format, "format", "f", "html", "Output format: html or pdf")
	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "Path to write the document (defaults to stdout for html)")
	cmd.Flags().StringVar(&ro.webDir, "web-dir", "web", "Directory holding the transcript stylesheet")
	return cmd
}

func writeOutput(stdout io.Writer, path string, b []byte) error {
	if path == "" {
		_, err := stdout.Write(b)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}
