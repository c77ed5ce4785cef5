package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voicewell/internal/domain"
	"voicewell/internal/intent"
	"voicewell/internal/ports"
)

// journal records cross-collaborator call order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeEngine struct {
	log *journal

	mu        sync.Mutex
	supported bool
	startErrs []error
	stopErr   error
	starts    int
	stops     int
	sink      func(domain.EngineEvent)
}

func (e *fakeEngine) Supported() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.supported
}

func (e *fakeEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.starts++
	e.log.add("engine.start")
	if len(e.startErrs) > 0 {
		err := e.startErrs[0]
		e.startErrs = e.startErrs[1:]
		return err
	}
	return nil
}

func (e *fakeEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	e.log.add("engine.stop")
	return e.stopErr
}

func (e *fakeEngine) SetSink(sink func(domain.EngineEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

func (e *fakeEngine) emit(event domain.EngineEvent) {
	e.mu.Lock()
	sink := e.sink
	e.mu.Unlock()
	sink(event)
}

func (e *fakeEngine) counts() (starts, stops int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts, e.stops
}

type fakeEventSink struct {
	log *journal

	mu       sync.Mutex
	states   []domain.SessionState
	partials []string
	commands []domain.Command
	errors   []domain.ErrorCode
}

func (s *fakeEventSink) SessionStateChanged(state domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
	s.log.add("state:%s:listening=%t", state.Phase, state.Listening)
}

func (s *fakeEventSink) PartialTranscript(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partials = append(s.partials, text)
}

func (s *fakeEventSink) CommandHandled(cmd domain.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
}

func (s *fakeEventSink) SessionError(code domain.ErrorCode, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, code)
}

func (s *fakeEventSink) allStates() []domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SessionState(nil), s.states...)
}

func (s *fakeEventSink) errorCodes() []domain.ErrorCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ErrorCode(nil), s.errors...)
}

type fakeDispatcher struct {
	log *journal

	mu       sync.Mutex
	commands []domain.Command
	outcome  func(domain.Command) domain.DispatchOutcome
}

func (d *fakeDispatcher) Dispatch(_ context.Context, cmd domain.Command) domain.DispatchOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = append(d.commands, cmd)
	d.log.add("dispatch:%s", cmd.Intent)
	if d.outcome != nil {
		return d.outcome(cmd)
	}
	if cmd.Recognized {
		return domain.DispatchOutcome{Action: domain.ActionFocusPanel}
	}
	return domain.DispatchOutcome{Action: domain.ActionUnrecognized}
}

func (d *fakeDispatcher) dispatched() []domain.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Command(nil), d.commands...)
}

type fakeSynth struct {
	log *journal

	mu     sync.Mutex
	spoken []string
}

func (s *fakeSynth) Speak(text string, _ ports.SpeechOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	s.log.add("speak:%s", text)
}

func (s *fakeSynth) Cancel() {}

func (s *fakeSynth) said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

type fakeNormalizer map[string]string

func (n fakeNormalizer) Apply(text string) (string, error) {
	if out, ok := n[text]; ok {
		return out, nil
	}
	return text, nil
}

// manualScheduler holds callbacks until the test fires them.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	owner   *manualScheduler
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &manualTimer{owner: s, delay: d, fn: f}
	s.pending = append(s.pending, timer)
	return timer
}

// active lists the delays of timers that are neither stopped nor fired.
func (s *manualScheduler) active() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Duration
	for _, timer := range s.pending {
		if !timer.stopped && !timer.fired {
			out = append(out, timer.delay)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// fire runs every live timer with the given delay. With force it also runs
// stopped timers, simulating a callback that raced its cancellation.
func (s *manualScheduler) fire(delay time.Duration, force bool) int {
	s.mu.Lock()
	var due []*manualTimer
	for _, timer := range s.pending {
		if timer.delay != delay || timer.fired {
			continue
		}
		if timer.stopped && !force {
			continue
		}
		timer.fired = true
		due = append(due, timer)
	}
	s.mu.Unlock()

	for _, timer := range due {
		timer.fn()
	}
	return len(due)
}

const (
	restartDelay = 500 * time.Millisecond
	retryDelay   = 1500 * time.Millisecond
	welcomeDelay = 400 * time.Millisecond
	welcomeText  = "Hello, welcome to voice navigation"
)

type harness struct {
	t          *testing.T
	ctx        context.Context
	controller *Controller
	engine     *fakeEngine
	events     *fakeEventSink
	dispatcher *fakeDispatcher
	synth      *fakeSynth
	sched      *manualScheduler
	log        *journal
}

type harnessOption func(*Deps, *Config)

func withStopAfterCommand() harnessOption {
	return func(_ *Deps, cfg *Config) { cfg.StopAfterCommand = true }
}

func withNormalizer(n ports.Normalizer) harnessOption {
	return func(deps *Deps, _ *Config) { deps.Normalizer = n }
}

func newHarness(t *testing.T, supported bool, opts ...harnessOption) *harness {
	t.Helper()

	log := &journal{}
	h := &harness{
		t:          t,
		engine:     &fakeEngine{log: log, supported: supported},
		events:     &fakeEventSink{log: log},
		dispatcher: &fakeDispatcher{log: log},
		synth:      &fakeSynth{log: log},
		sched:      &manualScheduler{},
		log:        log,
	}

	ids := 0
	deps := Deps{
		Engine:     h.engine,
		Classifier: intent.NewClassifier(),
		Dispatcher: h.dispatcher,
		Synth:      h.synth,
		Events:     h.events,
		Scheduler:  h.sched,
		Now:        func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	}
	cfg := Config{
		RestartDelay:   restartDelay,
		RetryDelay:     retryDelay,
		WelcomeDelay:   welcomeDelay,
		WelcomeMessage: welcomeText,
	}
	for _, opt := range opts {
		opt(&deps, &cfg)
	}

	h.controller = NewController(deps, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	h.ctx = ctx
	errCh := make(chan error, 1)
	go func() { errCh <- h.controller.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errCh)
	})

	h.sync()
	return h
}

// sync round-trips through the loop so every queued input has been applied.
func (h *harness) sync() domain.SessionState {
	h.t.Helper()
	state, err := h.controller.State(h.ctx)
	require.NoError(h.t, err)
	return state
}

func (h *harness) emit(event domain.EngineEvent) domain.SessionState {
	h.t.Helper()
	h.engine.emit(event)
	return h.sync()
}

func (h *harness) fire(delay time.Duration) domain.SessionState {
	h.t.Helper()
	h.sched.fire(delay, false)
	return h.sync()
}

func (h *harness) start() domain.SessionState {
	h.t.Helper()
	state, err := h.controller.Start(h.ctx)
	require.NoError(h.t, err)
	return state
}

func (h *harness) stop() domain.SessionState {
	h.t.Helper()
	state, err := h.controller.Stop(h.ctx)
	require.NoError(h.t, err)
	return state
}

// listening starts a session and acknowledges it from the engine.
func (h *harness) listening() domain.SessionState {
	h.t.Helper()
	h.start()
	return h.emit(domain.EngineEvent{Kind: domain.EngineEventStarted})
}

func final(text string) domain.EngineEvent {
	return domain.EngineEvent{Kind: domain.EngineEventFinal, Text: text, Confidence: 0.92}
}
