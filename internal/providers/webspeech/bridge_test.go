package webspeech

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicewell/internal/domain"
	"voicewell/internal/ports"
)

type emitted struct {
	name    string
	payload any
}

type frontend struct {
	mu     sync.Mutex
	events []emitted
}

func (f *frontend) emit(name string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{name: name, payload: payload})
}

func TestBridgeStartRequiresSupport(t *testing.T) {
	t.Parallel()

	ui := &frontend{}
	bridge := NewBridge(ui.emit, nil)

	require.ErrorIs(t, bridge.Start(), ErrUnsupported)
	assert.Empty(t, ui.events)

	bridge.SetSupported(true)
	require.NoError(t, bridge.Start())
	require.NoError(t, bridge.Stop())
	assert.Equal(t, []emitted{
		{EventRecognition, map[string]string{"action": "start"}},
		{EventRecognition, map[string]string{"action": "stop"}},
	}, ui.events)
}

func TestBridgeDeliverForwardsKnownEvents(t *testing.T) {
	t.Parallel()

	bridge := NewBridge((&frontend{}).emit, nil)
	var got []domain.EngineEvent
	bridge.SetSink(func(event domain.EngineEvent) { got = append(got, event) })

	bridge.Deliver(domain.EngineEvent{Kind: domain.EngineEventStarted})
	bridge.Deliver(domain.EngineEvent{Kind: "bogus"})
	bridge.Deliver(domain.EngineEvent{Kind: domain.EngineEventError})
	bridge.Deliver(domain.EngineEvent{Kind: domain.EngineEventFinal, Text: "my goals", Confidence: 0.8})

	assert.Equal(t, []domain.EngineEvent{
		{Kind: domain.EngineEventStarted},
		{Kind: domain.EngineEventError, Code: "unknown"},
		{Kind: domain.EngineEventFinal, Text: "my goals", Confidence: 0.8},
	}, got)
}

func TestVoiceSpeakAndCancel(t *testing.T) {
	t.Parallel()

	ui := &frontend{}
	voice := NewVoice(ui.emit)

	voice.Speak("  ", ports.SpeechOptions{})
	voice.Speak("Showing your health goals", ports.SpeechOptions{Rate: 0.9, Pitch: 1, Volume: 0.8, Voice: "Samantha"})
	voice.Cancel()

	require.Len(t, ui.events, 2)
	assert.Equal(t, map[string]any{
		"action": "speak",
		"text":   "Showing your health goals",
		"rate":   0.9,
		"pitch":  1.0,
		"volume": 0.8,
		"voice":  "Samantha",
	}, ui.events[0].payload)
	assert.Equal(t, map[string]any{"action": "cancel"}, ui.events[1].payload)
}
