package ports

import (
	"context"
	"io"
	"time"

	"voicewell/internal/domain"
	"voicewell/internal/healthdata"
)

// SpeechEngine is a platform speech recognizer. After a successful Start the
// engine must eventually deliver an EngineEventEnd to its sink.
type SpeechEngine interface {
	Supported() bool
	Start() error
	Stop() error
	SetSink(sink func(domain.EngineEvent))
}

// SpeechOptions tune synthesized speech.
type SpeechOptions struct {
	Rate   float64
	Pitch  float64
	Volume float64
	Voice  string
}

// Synthesizer speaks text aloud.
type Synthesizer interface {
	Speak(text string, opts SpeechOptions)
	Cancel()
}

// HealthStore provides the current health snapshot.
type HealthStore interface {
	CurrentSnapshot(ctx context.Context) (*healthdata.Snapshot, error)
}

// PopupChannel displays transient data popups.
type PopupChannel interface {
	ShowPanelPopup(popup domain.Popup)
	Hide()
}

// Announcer posts screen-reader announcements.
type Announcer interface {
	Announce(text string, priority domain.Priority)
}

// PanelNavigator scrolls to and highlights a dashboard panel.
type PanelNavigator interface {
	FocusPanel(panel domain.Panel)
}

// EventSink emits session state and events to the UI.
type EventSink interface {
	SessionStateChanged(state domain.SessionState)
	PartialTranscript(text string)
	CommandHandled(cmd domain.Command)
	SessionError(code domain.ErrorCode, detail string)
}

// Dispatcher turns a classified command into exactly one UI action.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) domain.DispatchOutcome
}

// Normalizer rewrites a final transcript before classification.
type Normalizer interface {
	Apply(text string) (string, error)
}

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// StreamingConfig describes provider-agnostic streaming settings.
type StreamingConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
	EndpointingMS  int
}

// StreamingSession is an active provider websocket session.
type StreamingSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Wait() error
	Close() error
}

// TranscriptionProvider starts streaming transcription sessions.
type TranscriptionProvider interface {
	StartStreaming(ctx context.Context, cfg StreamingConfig) (StreamingSession, error)
}
