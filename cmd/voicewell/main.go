// Command voicewell runs voice navigation from a terminal.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voicewell/internal/config"
	"voicewell/internal/logging"
)

// cli carries flag values and state shared by subcommands.
type cli struct {
	configPath string
	envFile    string
	logLevel   string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "voicewell",
		Short: "Voice navigation for the VoiceWell health dashboard",
		Long: `voicewell classifies spoken commands and drives dashboard navigation.

The desktop app uses the webview's speech recognizer. This command runs the
same session logic in a terminal, either from typed input or from the
microphone through Deepgram streaming transcription.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file (default: ~/.config/voicewell/config.yaml)")
	root.PersistentFlags().StringVar(&c.envFile, "env", "", "Load environment variables from this file (default: ./.env if present)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Show interim transcripts and announcements")

	root.AddCommand(
		newClassifyCmd(c),
		newSimulateCmd(c),
		newListenCmd(c),
	)
	return root
}

func (c *cli) init() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := cfg.Log.Level
	if strings.TrimSpace(c.logLevel) != "" {
		level = c.logLevel
	}
	logger, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return err
	}
	c.logger = logger
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
