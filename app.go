package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"voicewell/internal/bootstrap"
	"voicewell/internal/config"
	"voicewell/internal/domain"
	"voicewell/internal/logging"
	"voicewell/internal/providers/webspeech"
)

const (
	eventSession   = "voicewell:session"
	eventPartial   = "voicewell:partial"
	eventCommand   = "voicewell:command"
	eventError     = "voicewell:error"
	eventFocus     = "voicewell:focus"
	eventPopup     = "voicewell:popup"
	eventPopupHide = "voicewell:popup-hide"
	eventAnnounce  = "voicewell:announce"
)

var errNotReady = errors.New("voice navigation is not ready")

// App is the Wails application root.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	emit   webspeech.Emitter
	load   func() (config.Config, error)
	logger *zap.Logger

	services *bootstrap.Services
	bridge   *webspeech.Bridge
	cfg      config.Config
	bootErr  error

	runOnce sync.Once
	running chan struct{}

	popupMu    sync.Mutex
	popupTimer *time.Timer
	popupGen   uint64
}

func NewApp() *App {
	return &App{
		load:    func() (config.Config, error) { return config.Load("") },
		logger:  zap.NewNop(),
		running: make(chan struct{}),
	}
}

func (a *App) startup(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)
	if a.emit == nil {
		a.emit = func(name string, payload any) { runtime.EventsEmit(ctx, name, payload) }
	}

	cfg, err := a.load()
	if err != nil {
		a.fail(err)
		return
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		a.fail(err)
		return
	}
	a.logger = logger

	a.bridge = webspeech.NewBridge(a.emit, logger.Named("webspeech"))
	services, err := bootstrap.Build(cfg, bootstrap.UI{
		Events:    a,
		Navigator: a,
		Popups:    a,
		Announcer: a,
		Engine:    a.bridge,
		Voice:     webspeech.NewVoice(a.emit),
	}, logger)
	if err != nil {
		a.fail(err)
		return
	}
	a.services = services

	if err := services.Start(a.ctx); err != nil {
		logger.Warn("health data watch unavailable", zap.Error(err))
	}
	// The webview engine waits for the frontend capability probe.
	if cfg.Engine.Kind != config.EngineWebview {
		a.runController()
	}
}

func (a *App) shutdown(_ context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	a.hidePopupTimer()
	if a.services == nil {
		return
	}
	select {
	case <-a.running:
		<-a.services.Controller.Done()
	default:
	}
	if err := a.services.Close(); err != nil {
		a.logger.Warn("shutdown cleanup failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *App) fail(err error) {
	a.bootErr = err
	a.SessionError(domain.ErrorCodeStartFailure, err.Error())
}

func (a *App) runController() {
	a.runOnce.Do(func() {
		controller := a.services.Controller
		go func() {
			if err := controller.Run(a.ctx); err != nil {
				a.logger.Error("voice controller exited", zap.Error(err))
			}
		}()
		close(a.running)
	})
}

// EngineReady is called by the frontend after probing for Web Speech
// support. Voice commands are accepted from then on.
func (a *App) EngineReady(supported bool) {
	if a.bridge == nil || a.services == nil {
		return
	}
	a.bridge.SetSupported(supported)
	a.runController()
}

// StartListening opens a voice session.
func (a *App) StartListening() (domain.SessionState, error) {
	if err := a.requireReady(); err != nil {
		return domain.SessionState{}, err
	}
	return a.services.Controller.Start(a.ctx)
}

// StopListening closes the voice session.
func (a *App) StopListening() (domain.SessionState, error) {
	if err := a.requireReady(); err != nil {
		return domain.SessionState{}, err
	}
	return a.services.Controller.Stop(a.ctx)
}

// ToggleListening backs the microphone button.
func (a *App) ToggleListening() (domain.SessionState, error) {
	if err := a.requireReady(); err != nil {
		return domain.SessionState{}, err
	}
	return a.services.Controller.Toggle(a.ctx)
}

// GetState returns the current session snapshot.
func (a *App) GetState() domain.SessionState {
	if a.bootErr != nil {
		return domain.SessionState{
			Phase:     domain.PhaseErrored,
			Error:     a.bootErr.Error(),
			ErrorCode: domain.ErrorCodeStartFailure,
		}
	}
	if err := a.requireReady(); err != nil {
		return domain.SessionState{Phase: domain.PhaseIdle}
	}
	state, err := a.services.Controller.State(a.ctx)
	if err != nil {
		return domain.SessionState{Phase: domain.PhaseIdle}
	}
	return state
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	info := map[string]string{
		"engine":     a.cfg.Engine.Kind,
		"synthesis":  a.cfg.Synthesis.Engine,
		"healthData": a.cfg.HealthData.Path,
		"rulesFile":  a.cfg.Normalize.Path,
	}
	if a.cfg.HealthData.Path == "" {
		info["healthData"] = "sample data"
	}
	if a.cfg.Engine.Kind == config.EngineDeepgram {
		info["model"] = a.cfg.Deepgram.Model
		info["language"] = a.cfg.Deepgram.Language
		info["audioInput"] = a.cfg.Audio.InputDevice
	}
	return info
}

// OnRecognitionStart relays SpeechRecognition.onstart.
func (a *App) OnRecognitionStart() {
	a.deliver(domain.EngineEvent{Kind: domain.EngineEventStarted})
}

// OnResult relays one SpeechRecognition result.
func (a *App) OnResult(text string, confidence float64, final bool) {
	kind := domain.EngineEventInterim
	if final {
		kind = domain.EngineEventFinal
	}
	a.deliver(domain.EngineEvent{Kind: kind, Text: text, Confidence: confidence})
}

// OnEnd relays SpeechRecognition.onend.
func (a *App) OnEnd() {
	a.deliver(domain.EngineEvent{Kind: domain.EngineEventEnd})
}

// OnError relays SpeechRecognition.onerror with its error code.
func (a *App) OnError(code string) {
	a.deliver(domain.EngineEvent{Kind: domain.EngineEventError, Code: code})
}

// DismissPopup closes the data popup early.
func (a *App) DismissPopup() {
	a.Hide()
}

func (a *App) deliver(event domain.EngineEvent) {
	if a.bridge == nil {
		return
	}
	a.bridge.Deliver(event)
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services == nil || a.running == nil {
		return errNotReady
	}
	select {
	case <-a.running:
		return nil
	default:
		return errNotReady
	}
}

// SessionStateChanged emits session snapshots to the frontend.
func (a *App) SessionStateChanged(state domain.SessionState) {
	a.send(eventSession, state)
}

// PartialTranscript emits live interim text.
func (a *App) PartialTranscript(text string) {
	a.send(eventPartial, map[string]string{"text": text})
}

// CommandHandled emits each classified command.
func (a *App) CommandHandled(cmd domain.Command) {
	a.send(eventCommand, cmd)
}

// SessionError emits session failures to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	a.send(eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

// FocusPanel asks the dashboard to scroll to and highlight a panel.
func (a *App) FocusPanel(panel domain.Panel) {
	a.send(eventFocus, map[string]string{"panel": string(panel)})
}

// ShowPanelPopup shows a data popup and hides it again after the
// configured timeout. A newer popup replaces the pending one.
func (a *App) ShowPanelPopup(popup domain.Popup) {
	a.popupMu.Lock()
	if a.popupTimer != nil {
		a.popupTimer.Stop()
	}
	a.popupGen++
	gen := a.popupGen
	if timeout := a.cfg.Session.PopupTimeout; timeout > 0 {
		a.popupTimer = time.AfterFunc(timeout, func() { a.expirePopup(gen) })
	}
	a.popupMu.Unlock()

	a.send(eventPopup, popup)
}

// Hide closes the current popup.
func (a *App) Hide() {
	a.hidePopupTimer()
	a.send(eventPopupHide, nil)
}

// Announce posts text to the dashboard's live region.
func (a *App) Announce(text string, priority domain.Priority) {
	a.send(eventAnnounce, map[string]string{"text": text, "priority": string(priority)})
}

func (a *App) expirePopup(gen uint64) {
	a.popupMu.Lock()
	current := gen == a.popupGen
	if current {
		a.popupTimer = nil
	}
	a.popupMu.Unlock()
	if current {
		a.send(eventPopupHide, nil)
	}
}

func (a *App) hidePopupTimer() {
	a.popupMu.Lock()
	defer a.popupMu.Unlock()
	if a.popupTimer != nil {
		a.popupTimer.Stop()
		a.popupTimer = nil
	}
	a.popupGen++
}

func (a *App) send(name string, payload any) {
	if a.emit == nil {
		return
	}
	a.emit(name, payload)
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeUnsupported:
		return "Voice navigation unavailable"
	case domain.ErrorCodeStartFailure:
		return "Could not start listening"
	case domain.ErrorCodeRuntime:
		return "Speech recognition error"
	case domain.ErrorCodeRestartFailure:
		return "Listening stopped unexpectedly"
	case domain.ErrorCodeStopFailure:
		return "Could not stop listening"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
