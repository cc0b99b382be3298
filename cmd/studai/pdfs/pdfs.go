// Package pdfscmder provides the pdfs command for listing uploaded documents.
package pdfscmder

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studai/pkg/cliui"
	"github.com/papercomputeco/studai/pkg/client"
	"github.com/papercomputeco/studai/pkg/config"
)

type pdfsCommander struct {
	apiTarget string
	quiet     bool
	out       io.Writer
}

const pdfsLongDesc string = `List the PDFs uploaded to a running studai server.

Use --quiet to print one filename per line.

Examples:
  studai pdfs
  studai pdfs --quiet`

const pdfsShortDesc string = "List uploaded PDFs"

func NewPDFsCmd() *cobra.Command {
	cmder := &pdfsCommander{}

	cmd := &cobra.Command{
		Use:   "pdfs",
		Short: pdfsShortDesc,
		Long:  pdfsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed(config.FlagAPITarget) {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Print only filenames, one per line")

	return cmd
}

func (c *pdfsCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cl, err := client.New(c.apiTarget)
	if err != nil {
		return err
	}

	names, err := cl.ListPDFs(ctx)
	if err != nil {
		return err
	}

	if c.quiet {
		for _, name := range names {
			fmt.Fprintln(c.out, name)
		}
		return nil
	}

	if len(names) == 0 {
		fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("No PDFs uploaded yet."))
		return nil
	}

	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.KeyStyle.Render(fmt.Sprintf("%d PDFs", len(names))))
	for _, name := range names {
		fmt.Fprintf(c.out, "  %s %s\n", cliui.StepStyle.Render("•"), cliui.ValueStyle.Render(name))
	}
	fmt.Fprintln(c.out)
	return nil
}
