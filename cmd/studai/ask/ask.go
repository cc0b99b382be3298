// Package askcmder provides the ask command for querying uploaded PDFs.
package askcmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studai/pkg/cliui"
	"github.com/papercomputeco/studai/pkg/client"
	"github.com/papercomputeco/studai/pkg/config"
	"github.com/papercomputeco/studai/pkg/rag"
)

type askCommander struct {
	prompt      string
	mode        string
	pdfPath     string
	raw         bool
	showSources bool

	apiTarget string
	out       io.Writer
}

const askLongDesc string = `Ask a question about the uploaded PDFs.

The answer is rendered as markdown in the terminal. Pass --pdf to download the
answer as a PDF document instead.

In agentic mode the model writes its own search query before answering.
Leaving --mode empty uses the server default.

Examples:
  studai ask "What is the boiling point of water?"
  studai ask "Summarize chapter 2" --mode agentic --sources
  studai ask "Explain entropy" --pdf entropy.pdf`

const askShortDesc string = "Ask a question about uploaded PDFs"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := rag.ParseMode(cmder.mode); err != nil {
				return err
			}

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
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.prompt = strings.Join(args, " ")
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().StringVarP(&cmder.mode, "mode", "m", "", "Answer mode (plain, agentic)")
	cmd.Flags().StringVar(&cmder.pdfPath, "pdf", "", "Write the answer as a PDF to this path")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the answer without markdown rendering")
	cmd.Flags().BoolVar(&cmder.showSources, "sources", false, "List the retrieved pages under the answer")

	return cmd
}

func (c *askCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cl, err := client.New(c.apiTarget)
	if err != nil {
		return err
	}

	if c.pdfPath != "" {
		return c.runPDF(ctx, cl)
	}

	res, err := cl.Ask(ctx, c.prompt, c.mode)
	if err != nil {
		return err
	}

	answer := res.Answer
	if !c.raw {
		if rendered, err := cliui.RenderMarkdown(answer); err == nil {
			answer = rendered
		}
	}
	fmt.Fprintln(c.out, strings.TrimRight(answer, "\n"))

	if res.SearchQuery != "" {
		fmt.Fprintf(c.out, "\n  %s %s\n", cliui.KeyStyle.Render("Searched for:"), cliui.DimStyle.Render(res.SearchQuery))
	}
	if res.Context == nil {
		fmt.Fprintf(c.out, "\n  %s\n", cliui.DimStyle.Render("Answered without searching the uploaded PDFs."))
	}
	if c.showSources {
		c.printSources(res.Grouped)
	}

	return nil
}

func (c *askCommander) runPDF(ctx context.Context, cl *client.Client) error {
	var pdf *client.PDF
	err := cliui.Step(c.out, "Rendering answer", func() error {
		var err error
		pdf, err = cl.AskPDF(ctx, c.prompt, c.mode)
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.pdfPath, pdf.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", c.pdfPath, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "    %s %s\n", cliui.KeyStyle.Render("Saved"), cliui.ValueStyle.Render(c.pdfPath))
	return nil
}

// printSources lists files in name order. The JSON object does not carry the
// server's retrieval order.
func (c *askCommander) printSources(grouped map[string]map[string]string) {
	if len(grouped) == 0 {
		return
	}

	files := make([]string, 0, len(grouped))
	for f := range grouped {
		files = append(files, f)
	}
	sort.Strings(files)

	fmt.Fprintf(c.out, "\n  %s\n", cliui.KeyStyle.Render("Sources"))
	for _, f := range files {
		pages := make([]int, 0, len(grouped[f]))
		for p := range grouped[f] {
			n, err := strconv.Atoi(p)
			if err != nil {
				continue
			}
			pages = append(pages, n)
		}
		sort.Ints(pages)

		labels := make([]string, len(pages))
		for i, p := range pages {
			labels[i] = strconv.Itoa(p)
		}
		fmt.Fprintf(c.out, "  %s %s %s\n",
			cliui.StepStyle.Render("•"),
			cliui.ValueStyle.Render(f),
			cliui.DimStyle.Render("pages "+strings.Join(labels, ", ")),
		)
	}
}

