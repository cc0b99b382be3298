// Package uploadcmder provides the upload command for ingesting PDFs into a
// running studai server.
package uploadcmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studai/pkg/cliui"
	"github.com/papercomputeco/studai/pkg/client"
	"github.com/papercomputeco/studai/pkg/config"
)

type uploadCommander struct {
	files     []string
	apiTarget string
	out       io.Writer
}

const uploadLongDesc string = `Upload one or more PDFs to a running studai server.

Each page is extracted, embedded and stored in the vector store so it can be
retrieved when asking questions.

Examples:
  studai upload notes.pdf
  studai upload lectures/*.pdf --api-target http://localhost:9000`

const uploadShortDesc string = "Upload PDFs for question answering"

func NewUploadCmd() *cobra.Command {
	cmder := &uploadCommander{}

	cmd := &cobra.Command{
		Use:   "upload <file.pdf>...",
		Short: uploadShortDesc,
		Long:  uploadLongDesc,
		Args:  cobra.MinimumNArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.files = args
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func (c *uploadCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cl, err := client.New(c.apiTarget)
	if err != nil {
		return err
	}

	var failed int
	for _, path := range c.files {
		var res *client.UploadResult
		err := cliui.Step(c.out, "Uploading "+filepath.Base(path), func() error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer f.Close()

			res, err = cl.Upload(ctx, path, f)
			return err
		})
		if err != nil {
			failed++
			fmt.Fprintf(c.out, "    %s\n", cliui.DimStyle.Render(err.Error()))
			continue
		}

		fmt.Fprintf(c.out, "    %s %s\n",
			cliui.KeyStyle.Render(res.Filename),
			cliui.DimStyle.Render(fmt.Sprintf("%d pages indexed", res.ChunksAdded)),
		)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(c.files))
	}
	return nil
}
