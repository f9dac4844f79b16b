// Package main provides the entry point for the speak CLI application.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/tts"
	"github.com/dgnsrekt/speak/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	logFile    string
	debug      bool
	markdown   bool
	watch      bool
	theme      string

	closeLog = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "speak [FILE|DIR]",
		Short: "Speak text from your terminal",
		Long: paragraph(
			fmt.Sprintf("\nType text, %s, and tune voice, rate, pitch and volume as you go.", keyword("hear it spoken")),
		),
		Example:          paragraph("speak\nspeak notes.md --markdown --watch\nspeak ./docs\necho 'Hello world' | speak"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	closer, err := setupLog(logFile, viper.GetBool("debug"))
	if err != nil {
		return err
	}
	closeLog = closer

	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", configFile)
	}

	if _, err := tts.LoadConfigFromViper(); err != nil {
		return err
	}
	if watch && !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("--watch requires the interactive interface")
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(cmd *cobra.Command, args []string) error {
	// Piped input is spoken without the interface.
	if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("unable to read from stdin: %w", err)
		}
		s, err := speakableText(b, markdown)
		if err != nil {
			return err
		}
		return say(cmd.Context(), s, "", cmd.OutOrStdout())
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		if len(args) == 0 {
			return errors.New("nothing to speak: pass a file or pipe text on stdin")
		}
		path, err := documentPath(args[0])
		if err != nil {
			return err
		}
		s, err := readSpeakable(path, markdown)
		if err != nil {
			return err
		}
		return say(cmd.Context(), s, "", cmd.OutOrStdout())
	}

	var path string
	if len(args) == 1 {
		p, err := documentPath(args[0])
		if err != nil {
			return err
		}
		path = p
	}
	return runTUI(path)
}

func runTUI(path string) error {
	// Read environment for UI settings
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	speechCfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err
	}

	cfg.Engine = speechCfg.Engine
	cfg.Path = path
	cfg.Watch = watch && path != ""
	cfg.Markdown = markdown || (path != "" && isMarkdownFile(path))
	if theme != "" {
		cfg.Theme = theme
	}

	sess, err := openSession(speechCfg)
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck

	if _, err := ui.NewProgram(cfg, sess.ctrl).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

var markdownExtensions = []string{".md", ".mdown", ".mkdn", ".mkd", ".markdown"}

func isMarkdownFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range markdownExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func main() {
	err := rootCmd.Execute()
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	pf.BoolVar(&debug, "debug", false, "log debug messages")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file (default in the user cache directory)")
	pf.String("engine", tts.EngineEspeak, "speech engine (espeak/mock)")
	pf.String("voice", "", "voice name or language")
	pf.Float64("rate", 1, "speech rate (0.1-3.0)")
	pf.Float64("pitch", 1, "speech pitch (0-2)")
	pf.Float64("volume", 1, "speech volume (0-1)")

	rootCmd.Flags().BoolVarP(&markdown, "markdown", "m", false, "treat input as markdown and speak only its text")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload FILE when it changes")
	rootCmd.Flags().StringVar(&theme, "theme", "", "interface theme (auto/light/dark)")

	// Config bindings
	_ = viper.BindPFlag("tts.engine", pf.Lookup("engine"))
	_ = viper.BindPFlag("tts.voice", pf.Lookup("voice"))
	_ = viper.BindPFlag("tts.rate", pf.Lookup("rate"))
	_ = viper.BindPFlag("tts.pitch", pf.Lookup("pitch"))
	_ = viper.BindPFlag("tts.volume", pf.Lookup("volume"))
	_ = viper.BindPFlag("debug", pf.Lookup("debug"))

	tts.SetDefaults()

	rootCmd.AddCommand(sayCmd, voicesCmd, cacheCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "speak")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "speak")}, dirs...)
	}

	if c := os.Getenv("SPEAK_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("speak")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("speak")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "speak.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
