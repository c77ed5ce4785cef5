package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"voicewell/internal/audio"
	"voicewell/internal/config"
	"voicewell/internal/console"
	"voicewell/internal/dispatch"
	"voicewell/internal/healthdata"
	"voicewell/internal/intent"
	"voicewell/internal/normalize"
	"voicewell/internal/ports"
	"voicewell/internal/providers/deepgram"
	"voicewell/internal/providers/espeak"
	"voicewell/internal/recognizer"
	"voicewell/internal/usecase"
)

// UI holds the front-end adapters supplied by the host process.
type UI struct {
	Events    ports.EventSink
	Navigator ports.PanelNavigator
	Popups    ports.PopupChannel
	Announcer ports.Announcer

	// Engine serves the webview and typed engine kinds.
	Engine ports.SpeechEngine
	// Voice serves the webview synthesis backend.
	Voice ports.Synthesizer
	// Echo, when set, receives every spoken phrase as well.
	Echo ports.Synthesizer
}

// Services is the assembled runtime graph.
type Services struct {
	Config     config.Config
	Controller *usecase.Controller
	Facade     *dispatch.Facade
	Store      *healthdata.FileStore
	Engine     ports.SpeechEngine
	Synth      ports.Synthesizer

	logger  *zap.Logger
	closers []func() error
}

// Build wires all backend dependencies for the current runtime.
func Build(cfg config.Config, ui UI, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ui.Events == nil {
		return nil, errors.New("an event sink is required")
	}

	normalizer, err := normalize.Load(cfg.Normalize.Path, cfg.Normalize.Rules, cfg.Normalize.MaxPasses)
	if err != nil {
		return nil, err
	}

	store, err := healthdata.NewFileStore(cfg.HealthData.Path, logger.Named("healthdata"))
	if err != nil {
		return nil, err
	}

	services := &Services{Config: cfg, Store: store, logger: logger}
	services.closers = append(services.closers, store.Close)

	engine, err := buildEngine(cfg, ui, logger)
	if err != nil {
		return nil, err
	}
	services.Engine = engine
	if closer, ok := engine.(interface{ Close() error }); ok {
		services.closers = append(services.closers, closer.Close)
	}

	services.Synth = services.buildSynth(cfg, ui)

	speech := SpeechOptions(cfg.Synthesis)
	services.Facade = dispatch.NewFacade(dispatch.Deps{
		Navigator: ui.Navigator,
		Popups:    ui.Popups,
		Announcer: ui.Announcer,
		Synth:     services.Synth,
		Store:     store,
		Speech:    speech,
		Logger:    logger.Named("dispatch"),
	})

	services.Controller = usecase.NewController(usecase.Deps{
		Engine:     engine,
		Classifier: intent.NewClassifier(),
		Normalizer: normalizer,
		Dispatcher: services.Facade,
		Synth:      services.Synth,
		Events:     ui.Events,
		Logger:     logger.Named("session"),
	}, usecase.Config{
		RestartDelay:     cfg.Session.RestartDelay,
		RetryDelay:       cfg.Session.RetryDelay,
		WelcomeDelay:     cfg.Session.WelcomeDelay,
		WelcomeMessage:   cfg.Session.WelcomeMessage,
		StopAfterCommand: cfg.Session.StopAfterCommand,
		Speech:           speech,
	})

	logger.Debug("services built",
		zap.String("engine", cfg.Engine.Kind),
		zap.String("synthesis", cfg.Synthesis.Engine),
		zap.Int("normalize_rules", normalizer.Len()),
		zap.String("healthdata", store.Path()),
	)
	return services, nil
}

// SpeechOptions converts synthesis settings into per-utterance options.
func SpeechOptions(cfg config.SynthesisConfig) ports.SpeechOptions {
	return ports.SpeechOptions{
		Rate:   cfg.Rate,
		Pitch:  cfg.Pitch,
		Volume: cfg.Volume,
		Voice:  cfg.Voice,
	}
}

func buildEngine(cfg config.Config, ui UI, logger *zap.Logger) (ports.SpeechEngine, error) {
	if cfg.Engine.Kind != config.EngineDeepgram {
		if ui.Engine == nil {
			return nil, fmt.Errorf("engine %q needs a host-provided adapter", cfg.Engine.Kind)
		}
		return ui.Engine, nil
	}

	capture := audio.NewFFmpegCapture(audio.Options{
		Command: cfg.Audio.RecorderCommand,
		Logger:  logger.Named("audio"),
	})
	provider := deepgram.NewProvider(deepgram.Config{
		APIKey:      cfg.Deepgram.APIKey,
		APIBaseURL:  cfg.Deepgram.APIBaseURL,
		Model:       cfg.Deepgram.Model,
		Language:    cfg.Deepgram.Language,
		SmartFormat: cfg.Deepgram.SmartFormat,
		SOCKSProxy:  cfg.Deepgram.SOCKSProxy,
	})
	return recognizer.NewEngine(capture, provider, recognizer.Config{
		Audio: ports.AudioConfig{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
		Streaming: ports.StreamingConfig{
			SampleRate:     cfg.Audio.SampleRate,
			Channels:       cfg.Audio.Channels,
			Encoding:       "linear16",
			InterimResults: true,
			EndpointingMS:  cfg.Deepgram.EndpointingMS,
		},
		ChunkSize:    cfg.Audio.ChunkSize,
		DrainTimeout: cfg.Audio.DrainTimeout,
	}, logger.Named("recognizer")), nil
}

func (s *Services) buildSynth(cfg config.Config, ui UI) ports.Synthesizer {
	var voices console.Tee
	switch cfg.Synthesis.Engine {
	case config.SynthEspeak:
		synth := espeak.New(cfg.Synthesis.Command, s.logger.Named("espeak"))
		if !synth.Available() {
			s.logger.Warn("speech synthesizer not found on PATH", zap.String("command", cfg.Synthesis.Command))
		}
		voices = append(voices, synth)
		s.closers = append(s.closers, synth.Close)
	case config.SynthWebview:
		if ui.Voice != nil {
			voices = append(voices, ui.Voice)
		}
	}
	if ui.Echo != nil {
		voices = append(voices, ui.Echo)
	}

	switch len(voices) {
	case 0:
		return nil
	case 1:
		return voices[0]
	default:
		return voices
	}
}

// Start runs background services that outlive a single call, currently the
// health data file watch.
func (s *Services) Start(ctx context.Context) error {
	if !s.Config.HealthData.Watch {
		return nil
	}
	return s.Store.Watch(ctx)
}

// Close releases processes and watchers in reverse order of creation.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
