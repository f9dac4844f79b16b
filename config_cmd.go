package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `tts:
  # speech engine: espeak or mock
  engine: "espeak"
  # voice name or language, empty for the engine default
  voice: ""
  # speech rate (0.1-3.0)
  rate: 1.0
  # speech pitch (0-2)
  pitch: 1.0
  # speech volume (0-1)
  volume: 1.0
  # pause between cancelling and submitting speech
  submit_delay: "100ms"

  espeak:
    binary: "espeak-ng"
    # how often to look for newly installed voices, 0 to disable
    voice_scan: "30s"
    # process starts per second
    spawn_rate: 4
    spawn_burst: 2
    # give up on synthesis after
    synthesis_limit: "30s"

  mock:
    start_delay: "50ms"
    words_per_minute: 150

  # synthesized audio cache
  cache:
    enabled: true
    # empty for the user cache directory
    dir: ""
    memory_mb: 32
    disk_mb: 256
    max_age: "168h"
    cleanup_every: "1h"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the speak config file",
	Long:    paragraph(fmt.Sprintf("\n%s the speak config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("speak config\nspeak config --config path/to/config.yml\nspeak config show"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Speak", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  paragraph(fmt.Sprintf("\n%s the configuration after defaults, the config file, environment and flags are merged.", keyword("Print"))),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintln(cmd.OutOrStdout(), faint("# "+used))
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(viper.AllSettings()); err != nil {
			return fmt.Errorf("unable to encode configuration: %w", err)
		}
		return enc.Close()
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}
		if err := os.WriteFile(configFile, []byte(defaultConfig), 0o600); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
