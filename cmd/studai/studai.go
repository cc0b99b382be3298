// Package studaicmder
package studaicmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/studai/cmd/studai/ask"
	configcmder "github.com/papercomputeco/studai/cmd/studai/config"
	initcmder "github.com/papercomputeco/studai/cmd/studai/init"
	pdfscmder "github.com/papercomputeco/studai/cmd/studai/pdfs"
	servecmder "github.com/papercomputeco/studai/cmd/studai/serve"
	uploadcmder "github.com/papercomputeco/studai/cmd/studai/upload"
	versioncmder "github.com/papercomputeco/studai/cmd/version"
)

const studaiLongDesc string = `StudAI answers questions about your PDFs.

Run the server, then talk to it:
  studai serve              Run the API server
  studai upload notes.pdf   Index a PDF page by page
  studai ask "question"     Ask about the uploaded PDFs
  studai pdfs               List uploaded PDFs`

const studaiShortDesc string = "StudAI - Ask your PDFs"

func NewStudaiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "studai",
		Short:        studaiShortDesc,
		Long:         studaiLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .studai/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(uploadcmder.NewUploadCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(pdfscmder.NewPDFsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
