// Package webspeech drives the browser speech APIs inside the desktop
// webview. Commands go out as frontend events; recognizer callbacks come
// back through bound methods.
package webspeech

import (
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"voicewell/internal/domain"
	"voicewell/internal/ports"
)

const (
	EventRecognition = "voicewell:recognition"
	EventSpeech      = "voicewell:speech"
)

var ErrUnsupported = errors.New("web speech recognition is not available in this webview")

// Emitter publishes a named event to the frontend.
type Emitter func(name string, payload any)

// Bridge is a ports.SpeechEngine backed by webkitSpeechRecognition.
type Bridge struct {
	emit   Emitter
	logger *zap.Logger

	mu        sync.Mutex
	supported bool
	sink      func(domain.EngineEvent)
}

func NewBridge(emit Emitter, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{emit: emit, logger: logger}
}

// SetSupported records the webview's capability probe.
func (b *Bridge) SetSupported(supported bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.supported = supported
}

func (b *Bridge) Supported() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.supported
}

func (b *Bridge) SetSink(sink func(domain.EngineEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = sink
}

func (b *Bridge) Start() error {
	if !b.Supported() {
		return ErrUnsupported
	}
	b.emit(EventRecognition, map[string]string{"action": "start"})
	return nil
}

func (b *Bridge) Stop() error {
	b.emit(EventRecognition, map[string]string{"action": "stop"})
	return nil
}

// Deliver forwards a recognizer callback. Unknown kinds are dropped.
func (b *Bridge) Deliver(event domain.EngineEvent) {
	switch event.Kind {
	case domain.EngineEventStarted, domain.EngineEventInterim, domain.EngineEventFinal,
		domain.EngineEventEnd, domain.EngineEventError:
	default:
		b.logger.Warn("dropping unknown recognizer event", zap.String("kind", string(event.Kind)))
		return
	}
	if event.Kind == domain.EngineEventError && strings.TrimSpace(event.Code) == "" {
		event.Code = "unknown"
	}

	b.mu.Lock()
	sink := b.sink
	b.mu.Unlock()
	if sink != nil {
		sink(event)
	}
}

// Voice is a ports.Synthesizer backed by window.speechSynthesis.
type Voice struct {
	emit Emitter
}

func NewVoice(emit Emitter) *Voice {
	return &Voice{emit: emit}
}

func (v *Voice) Speak(text string, opts ports.SpeechOptions) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	v.emit(EventSpeech, map[string]any{
		"action": "speak",
		"text":   text,
		"rate":   opts.Rate,
		"pitch":  opts.Pitch,
		"volume": opts.Volume,
		"voice":  opts.Voice,
	})
}

func (v *Voice) Cancel() {
	v.emit(EventSpeech, map[string]any{"action": "cancel"})
}
