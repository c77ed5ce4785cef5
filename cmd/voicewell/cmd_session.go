package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voicewell/internal/bootstrap"
	"voicewell/internal/config"
	"voicewell/internal/console"
	"voicewell/internal/providers/typed"
)

func newSimulateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Drive a voice session from typed input",
		Long: `Starts a listening session and treats each line of standard input as a
final recognition result. Lines starting with "~" are interim results,
"!end" ends the recognition pass and "!error <code>" fails it.

Example:
  printf 'show my vitals\nstop\n' | voicewell simulate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			cfg.Engine.Kind = config.EngineTyped
			if cfg.Synthesis.Engine == config.SynthWebview {
				cfg.Synthesis.Engine = config.SynthNone
			}
			engine := typed.NewEngine(cmd.InOrStdin(), c.logger.Named("typed"))
			return c.runSession(cmd, cfg, engine, engine.Run)
		},
	}
}

func newListenCmd(c *cli) *cobra.Command {
	var voice bool
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Listen on the microphone through Deepgram",
		Long: `Captures the microphone with ffmpeg and streams it to Deepgram for live
transcription. Requires DEEPGRAM_API_KEY. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			cfg.Engine.Kind = config.EngineDeepgram
			switch {
			case voice:
				cfg.Synthesis.Engine = config.SynthEspeak
			case cfg.Synthesis.Engine == config.SynthWebview:
				cfg.Synthesis.Engine = config.SynthNone
			}
			return c.runSession(cmd, cfg, nil, func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&voice, "speak", false, "Speak confirmations with espeak")
	return cmd
}

// runSession opens one voice session and keeps it open until drive returns
// or the process is interrupted.
func (c *cli) runSession(cmd *cobra.Command, cfg config.Config, engine *typed.Engine, drive func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := console.NewPrinter(cmd.OutOrStdout(), c.verbose)
	ui := bootstrap.UI{
		Events:    printer,
		Navigator: printer,
		Popups:    printer,
		Announcer: printer,
		Echo:      printer,
	}
	if engine != nil {
		ui.Engine = engine
	}
	services, err := bootstrap.Build(cfg, ui, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			c.logger.Warn("cleanup failed", zap.Error(err))
		}
	}()
	if err := services.Start(ctx); err != nil {
		c.logger.Warn("health data watch unavailable", zap.Error(err))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	controller := services.Controller
	go func() {
		_ = controller.Run(runCtx)
	}()

	state, err := controller.Start(runCtx)
	if err != nil {
		return err
	}
	if state.ErrorCode != "" {
		cancel()
		<-controller.Done()
		return errors.New(state.Error)
	}

	driveErr := drive(runCtx)
	// Drain queued engine events before tearing down.
	if _, err := controller.Stop(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Debug("final stop failed", zap.Error(err))
	}
	cancel()
	<-controller.Done()
	return driveErr
}
