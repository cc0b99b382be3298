// Package configcmder provides the config command for managing persistent
// studai configuration stored in the .studai/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent studai configuration.

Configuration is stored as config.toml in the .studai/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values, and STUDAI_ environment variables sit in between.

Keys use dotted notation matching the TOML section structure:
  api.listen, api.body_limit_mb, api.mcp, client.api_target,
  storage.uploads_dir, storage.output_dir,
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  chat.provider, chat.target, chat.model,
  ask.mode, ask.tool_policy, ask.render_pdf,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  studai config set <key> <value>    Set a configuration value
  studai config get <key>            Get a configuration value
  studai config list                 List all configuration values

Examples:
  studai config set ask.mode agentic
  studai config set embedding.model nomic-embed-text
  studai config get vector_store.provider
  studai config list`

const configShortDesc string = "Manage persistent studai configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
