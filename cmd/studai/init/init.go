// Package initcmder provides the init command for initializing a local .studai
// directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studai/pkg/config"
	"github.com/papercomputeco/studai/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .studai/ directory in the current working directory.

Creates a local .studai/ directory that takes precedence over the default
~/.studai/ directory for configuration.

Pass --preset to also write a config.toml tuned for a provider. Existing
config files are left alone unless --force is given.

Examples:
  studai init
  studai init --preset ollama`

const initShortDesc string = "Initialize a local .studai/ directory"

type initCommander struct {
	preset string
	force  bool
	out    io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Write a config preset (%s)", strings.Join(config.ValidPresetNames(), ", ")))
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Overwrite an existing config.toml when writing a preset")

	return cmd
}

func (c *initCommander) run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dotdir.DirName)

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		fmt.Fprintf(c.out, "Already initialized: %s\n", dir)
	default:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .studai directory: %w", err)
		}
		fmt.Fprintf(c.out, "Initialized .studai directory: %s\n", dir)
	}

	if c.preset == "" {
		return nil
	}

	return c.writePreset(dir)
}

func (c *initCommander) writePreset(dir string) error {
	cfg, err := config.PresetConfig(c.preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	path := cfger.GetTarget()
	if _, err := os.Stat(path); err == nil && !c.force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Wrote %s preset: %s\n", c.preset, path)
	return nil
}
