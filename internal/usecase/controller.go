package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicewell/internal/domain"
	"voicewell/internal/ports"
)

var (
	// ErrControllerStopped is returned by calls made after Run has exited.
	ErrControllerStopped = errors.New("voice controller is not running")
	ErrAlreadyRunning    = errors.New("voice controller is already running")
)

const inboxSize = 64

// Classifier maps a transcript onto an intent.
type Classifier interface {
	Classify(text string) domain.Intent
}

// Config controls session timing and policy.
type Config struct {
	RestartDelay     time.Duration
	RetryDelay       time.Duration
	WelcomeDelay     time.Duration
	WelcomeMessage   string
	StopAfterCommand bool
	Speech           ports.SpeechOptions
}

// Deps are the collaborators of a Controller. Normalizer, Synth, Scheduler
// and Logger are optional.
type Deps struct {
	Engine     ports.SpeechEngine
	Classifier Classifier
	Normalizer ports.Normalizer
	Dispatcher ports.Dispatcher
	Synth      ports.Synthesizer
	Events     ports.EventSink
	Scheduler  ports.Scheduler
	Logger     *zap.Logger
	Now        func() time.Time
	NewID      func() string
}

// Controller owns the voice session. All state lives on the goroutine
// running Run; public calls and engine events are queued to it and applied
// one at a time.
type Controller struct {
	engine     ports.SpeechEngine
	classifier Classifier
	normalizer ports.Normalizer
	dispatcher ports.Dispatcher
	synth      ports.Synthesizer
	events     ports.EventSink
	scheduler  ports.Scheduler
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
	cfg        Config

	inbox   chan envelope
	done    chan struct{}
	running atomic.Bool

	// Owned by the Run goroutine.
	state     domain.SessionState
	published *domain.SessionState
	session   sessionFlags
}

// sessionFlags is the internal half of the session record. It is never
// published.
type sessionFlags struct {
	keepAlive     bool
	welcomeGiven  bool
	engineActive  bool
	stopRequested bool

	restartGen   uint64
	restartTimer ports.Timer
	welcomeGen   uint64
	welcomeTimer ports.Timer
}

func NewController(deps Deps, cfg Config) *Controller {
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = 500 * time.Millisecond
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1500 * time.Millisecond
	}
	if cfg.WelcomeDelay <= 0 {
		cfg.WelcomeDelay = 500 * time.Millisecond
	}
	if deps.Scheduler == nil {
		deps.Scheduler = RealScheduler{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Normalizer == nil {
		deps.Normalizer = passThrough{}
	}

	return &Controller{
		engine:     deps.Engine,
		classifier: deps.Classifier,
		normalizer: deps.Normalizer,
		dispatcher: deps.Dispatcher,
		synth:      deps.Synth,
		events:     deps.Events,
		scheduler:  deps.Scheduler,
		logger:     deps.Logger,
		now:        deps.Now,
		newID:      deps.NewID,
		cfg:        cfg,
		inbox:      make(chan envelope, inboxSize),
		done:       make(chan struct{}),
		state:      domain.SessionState{Phase: domain.PhaseIdle},
	}
}

// Run processes session input until ctx is cancelled. It installs itself as
// the engine's event sink and reports an unsupported engine once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)
	defer c.cancelTimers()

	c.engine.SetSink(c.deliver)
	c.state.Supported = c.engine.Supported()
	if !c.state.Supported {
		c.recordError(domain.ErrorCodeUnsupported, "Speech recognition not supported on this device")
	}
	c.publish()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case env := <-c.inbox:
			c.apply(ctx, env)
		}
	}
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Start opens a listening session.
func (c *Controller) Start(ctx context.Context) (domain.SessionState, error) {
	return c.call(ctx, envelope{kind: envStart})
}

// Stop closes the session. The returned state already shows the session
// as not listening, even if the engine is still winding down.
func (c *Controller) Stop(ctx context.Context) (domain.SessionState, error) {
	return c.call(ctx, envelope{kind: envStop})
}

// Toggle stops an open session or starts a closed one.
func (c *Controller) Toggle(ctx context.Context) (domain.SessionState, error) {
	return c.call(ctx, envelope{kind: envToggle})
}

// State returns a consistent snapshot of the session.
func (c *Controller) State(ctx context.Context) (domain.SessionState, error) {
	return c.call(ctx, envelope{kind: envState})
}

func (c *Controller) call(ctx context.Context, env envelope) (domain.SessionState, error) {
	env.reply = make(chan domain.SessionState, 1)
	select {
	case c.inbox <- env:
	case <-c.done:
		return domain.SessionState{}, ErrControllerStopped
	case <-ctx.Done():
		return domain.SessionState{}, ctx.Err()
	}

	select {
	case state := <-env.reply:
		return state, nil
	case <-c.done:
		return domain.SessionState{}, ErrControllerStopped
	case <-ctx.Done():
		return domain.SessionState{}, ctx.Err()
	}
}

// deliver is the engine sink. Engines may call it from any goroutine,
// including from inside Start or Stop.
func (c *Controller) deliver(event domain.EngineEvent) {
	c.enqueue(envelope{kind: envEngine, event: event})
}

func (c *Controller) enqueue(env envelope) {
	select {
	case c.inbox <- env:
	case <-c.done:
	}
}

func (c *Controller) apply(ctx context.Context, env envelope) {
	switch env.kind {
	case envStart:
		c.start()
	case envStop:
		c.stop()
	case envToggle:
		if c.session.keepAlive || c.state.Listening {
			c.stop()
		} else {
			c.start()
		}
	case envState:
	case envEngine:
		c.handleEngineEvent(ctx, env.event)
	case envRestartDue:
		c.restartDue(env.gen, env.retry)
	case envWelcomeDue:
		c.welcomeDue(env.gen)
	}

	if env.reply != nil {
		env.reply <- c.snapshot()
	}
}

func (c *Controller) start() {
	if !c.state.Supported {
		c.recordError(domain.ErrorCodeUnsupported, "Speech recognition not supported on this device")
		c.publish()
		return
	}

	opening := !c.session.keepAlive
	c.session.keepAlive = true
	c.clearError()
	if opening {
		c.state.SessionID = c.newID()
	}

	switch {
	case !c.session.engineActive:
		if err := c.startEngine(); err != nil {
			c.session.keepAlive = false
			c.recordError(domain.ErrorCodeStartFailure, fmt.Sprintf("Failed to start voice recognition: %v", err))
			c.publish()
			return
		}
	case c.session.stopRequested:
		// The previous pass is still ending; its end event restarts.
		c.state.Phase = domain.PhaseRestarting
	}
	if c.state.Phase == domain.PhaseErrored {
		c.state.Phase = domain.PhaseIdle
	}

	if !c.session.welcomeGiven {
		c.scheduleWelcome()
	}
	c.logger.Debug("voice session start requested", zap.String("session_id", c.state.SessionID))
	c.publish()
}

func (c *Controller) stop() {
	c.session.keepAlive = false
	c.session.welcomeGiven = false
	c.cancelWelcome()
	c.cancelRestart()

	c.state.Listening = false
	c.state.CurrentTranscript = ""
	c.state.Phase = domain.PhaseIdle
	c.publish()

	if !c.session.engineActive || c.session.stopRequested {
		return
	}
	c.session.stopRequested = true
	if err := c.engine.Stop(); err != nil {
		c.state.Error = fmt.Sprintf("Failed to stop voice recognition: %v", err)
		c.state.ErrorCode = domain.ErrorCodeStopFailure
		c.publish()
		c.reportError(domain.ErrorCodeStopFailure, c.state.Error)
	}
}

func (c *Controller) handleEngineEvent(ctx context.Context, event domain.EngineEvent) {
	switch event.Kind {
	case domain.EngineEventStarted:
		c.onStarted()
	case domain.EngineEventInterim:
		c.onInterim(event.Text)
	case domain.EngineEventFinal:
		c.onFinal(ctx, event.Text, event.Confidence)
	case domain.EngineEventEnd:
		c.onEnd()
	case domain.EngineEventError:
		c.onError(event.Code)
	default:
		c.logger.Warn("unknown engine event", zap.String("kind", string(event.Kind)))
	}
}

func (c *Controller) onStarted() {
	c.session.engineActive = true
	if !c.session.keepAlive {
		// Stopped before the engine acknowledged.
		if !c.session.stopRequested {
			c.session.stopRequested = true
			if err := c.engine.Stop(); err != nil {
				c.logger.Warn("engine stop after late start failed", zap.Error(err))
			}
		}
		return
	}

	c.state.Listening = true
	c.state.Phase = domain.PhaseListening
	c.clearError()
	c.publish()
}

func (c *Controller) onInterim(text string) {
	if !c.state.Listening {
		return
	}
	text = strings.TrimSpace(text)
	if text == c.state.CurrentTranscript {
		return
	}
	c.state.CurrentTranscript = text
	c.publish()
	if text != "" && c.events != nil {
		c.events.PartialTranscript(text)
	}
}

func (c *Controller) onFinal(ctx context.Context, text string, confidence float64) {
	text = strings.TrimSpace(text)
	if !c.session.keepAlive || text == "" {
		return
	}

	normalized, err := c.normalizer.Apply(text)
	if err != nil {
		c.logger.Warn("transcript normalization failed", zap.Error(err))
		normalized = text
	}
	intent := c.classifier.Classify(normalized)

	cmd := domain.Command{
		ID:         c.newID(),
		Text:       text,
		Transcript: text,
		Confidence: clampConfidence(confidence),
		Timestamp:  c.now(),
		Intent:     intent,
		Recognized: intent.Recognized(),
	}
	if intent == domain.IntentUnrecognized {
		cmd.Text = `Unrecognized: "` + text + `"`
	}

	c.state.LastCommand = &cmd
	c.state.CurrentTranscript = ""
	c.logger.Debug("final transcript classified",
		zap.String("text", text),
		zap.String("normalized", normalized),
		zap.String("intent", string(intent)),
	)

	if intent == domain.IntentStop {
		c.stop()
		c.commandHandled(cmd)
		return
	}

	c.publish()
	c.commandHandled(cmd)

	outcome := c.dispatcher.Dispatch(ctx, cmd)
	if outcome.Action == domain.ActionStop || (cmd.Recognized && c.cfg.StopAfterCommand) {
		c.stop()
	}
}

func (c *Controller) onEnd() {
	c.session.engineActive = false
	c.session.stopRequested = false
	c.state.Listening = false
	c.state.CurrentTranscript = ""

	if c.session.keepAlive && c.state.Error == "" {
		c.state.Phase = domain.PhaseRestarting
		c.publish()
		c.scheduleRestart(c.cfg.RestartDelay, false)
		return
	}

	if c.state.Phase != domain.PhaseErrored {
		c.state.Phase = domain.PhaseIdle
	}
	c.publish()
}

func (c *Controller) onError(code string) {
	c.cancelRestart()
	c.state.Listening = false
	c.state.CurrentTranscript = ""
	c.recordError(domain.ErrorCodeRuntime, "Speech recognition error: "+code)
	c.publish()
}

func (c *Controller) startEngine() error {
	c.cancelRestart()
	if err := c.engine.Start(); err != nil {
		return err
	}
	c.session.engineActive = true
	c.session.stopRequested = false
	return nil
}

func (c *Controller) scheduleRestart(delay time.Duration, retry bool) {
	c.cancelRestart()
	gen := c.session.restartGen
	c.session.restartTimer = c.scheduler.AfterFunc(delay, func() {
		c.enqueue(envelope{kind: envRestartDue, gen: gen, retry: retry})
	})
}

func (c *Controller) cancelRestart() {
	c.session.restartGen++
	if c.session.restartTimer != nil {
		c.session.restartTimer.Stop()
		c.session.restartTimer = nil
	}
}

func (c *Controller) restartDue(gen uint64, retry bool) {
	if gen != c.session.restartGen {
		return
	}
	c.session.restartTimer = nil
	if !c.session.keepAlive || c.state.Error != "" || c.session.engineActive {
		return
	}

	err := c.startEngine()
	if err == nil {
		c.logger.Debug("voice session restarted", zap.Bool("retry", retry))
		return
	}
	if !retry {
		c.logger.Warn("engine restart failed, retrying", zap.Error(err), zap.Duration("delay", c.cfg.RetryDelay))
		c.scheduleRestart(c.cfg.RetryDelay, true)
		return
	}

	c.session.keepAlive = false
	c.recordError(domain.ErrorCodeRestartFailure, fmt.Sprintf("Failed to restart voice recognition: %v", err))
	c.state.Phase = domain.PhaseIdle
	c.publish()
}

func (c *Controller) scheduleWelcome() {
	c.cancelWelcome()
	gen := c.session.welcomeGen
	c.session.welcomeTimer = c.scheduler.AfterFunc(c.cfg.WelcomeDelay, func() {
		c.enqueue(envelope{kind: envWelcomeDue, gen: gen})
	})
}

func (c *Controller) welcomeDue(gen uint64) {
	if gen != c.session.welcomeGen {
		return
	}
	c.session.welcomeTimer = nil
	if !c.state.Listening || c.session.welcomeGiven {
		return
	}
	c.session.welcomeGiven = true
	if c.synth != nil && c.cfg.WelcomeMessage != "" {
		c.synth.Speak(c.cfg.WelcomeMessage, c.cfg.Speech)
	}
}

func (c *Controller) shutdown() {
	c.session.keepAlive = false
	if c.session.engineActive && !c.session.stopRequested {
		c.session.stopRequested = true
		if err := c.engine.Stop(); err != nil {
			c.logger.Warn("engine stop on shutdown failed", zap.Error(err))
		}
	}
}

func (c *Controller) cancelWelcome() {
	c.session.welcomeGen++
	if c.session.welcomeTimer != nil {
		c.session.welcomeTimer.Stop()
		c.session.welcomeTimer = nil
	}
}

func (c *Controller) cancelTimers() {
	c.cancelRestart()
	c.cancelWelcome()
}

func (c *Controller) recordError(code domain.ErrorCode, message string) {
	c.state.Listening = false
	c.state.CurrentTranscript = ""
	c.state.Error = message
	c.state.ErrorCode = code
	c.state.Phase = domain.PhaseErrored
	c.reportError(code, message)
}

func (c *Controller) clearError() {
	c.state.Error = ""
	c.state.ErrorCode = ""
}

func (c *Controller) reportError(code domain.ErrorCode, message string) {
	c.logger.Warn("voice session error", zap.String("code", string(code)), zap.String("error", message))
	if c.events != nil {
		c.events.SessionError(code, message)
	}
}

func (c *Controller) commandHandled(cmd domain.Command) {
	if c.events != nil {
		c.events.CommandHandled(cmd)
	}
}

// publish emits the state if it differs from the last one emitted.
func (c *Controller) publish() {
	if c.published != nil && c.published.Equal(c.state) {
		return
	}
	snap := c.snapshot()
	c.published = &snap
	if c.events != nil {
		c.events.SessionStateChanged(snap)
	}
}

func (c *Controller) snapshot() domain.SessionState {
	snap := c.state
	if snap.LastCommand != nil {
		cmd := *snap.LastCommand
		snap.LastCommand = &cmd
	}
	return snap
}

func clampConfidence(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

type passThrough struct{}

func (passThrough) Apply(text string) (string, error) { return text, nil }
