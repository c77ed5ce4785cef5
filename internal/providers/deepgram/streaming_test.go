package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicewell/internal/domain"
	"voicewell/internal/ports"
)

func TestNewProviderDefaults(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{})
	assert.Equal(t, "https://api.deepgram.com/v1", p.cfg.APIBaseURL)
	assert.Equal(t, "nova-2", p.cfg.Model)
}

func TestProviderStartStreamingRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewProvider(Config{APIKey: " "}).StartStreaming(context.Background(), ports.StreamingConfig{})
	require.ErrorContains(t, err, "DEEPGRAM_API_KEY")
}

func TestBuildListenURLDefaults(t *testing.T) {
	t.Parallel()

	got, err := buildListenURL(Config{APIBaseURL: "https://api.deepgram.com/v1", Model: "nova-2"}, ports.StreamingConfig{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "wss://api.deepgram.com/v1/listen?"), got)
	for _, want := range []string{"encoding=linear16", "sample_rate=16000", "channels=1", "model=nova-2"} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "endpointing")
	assert.NotContains(t, got, "language")
}

func TestBuildListenURLOptions(t *testing.T) {
	t.Parallel()

	got, err := buildListenURL(
		Config{APIBaseURL: "http://localhost:8080/v1/", Model: "m", Language: "en-US", SmartFormat: true},
		ports.StreamingConfig{Encoding: "linear16", SampleRate: 8000, Channels: 2, InterimResults: true, EndpointingMS: 300},
	)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "ws://localhost:8080/v1/listen?"), got)
	for _, want := range []string{"language=en-US", "smart_format=true", "interim_results=true", "endpointing=300", "sample_rate=8000", "channels=2"} {
		assert.Contains(t, got, want)
	}
}

func TestBuildListenURLInvalidBase(t *testing.T) {
	t.Parallel()

	_, err := buildListenURL(Config{APIBaseURL: ":// bad"}, ports.StreamingConfig{})
	require.Error(t, err)
}

func TestToTranscriptEvent(t *testing.T) {
	t.Parallel()

	var channel deepgramResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"is_final": true,
		"channel": {"alternatives": [{"transcript": " show my claims ", "confidence": 0.93}]}
	}`), &channel))
	event, ok := toTranscriptEvent(channel)
	require.True(t, ok)
	assert.Equal(t, domain.TranscriptEvent{Kind: domain.TranscriptKindFinal, Text: "show my claims", Confidence: 0.93}, event)

	var results deepgramResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"results": {"channels": [{"alternatives": [{"transcript": "vitals", "confidence": 0.5}]}]}
	}`), &results))
	event, ok = toTranscriptEvent(results)
	require.True(t, ok)
	assert.Equal(t, domain.TranscriptKindPartial, event.Kind)
	assert.Equal(t, "vitals", event.Text)

	event, ok = toTranscriptEvent(deepgramResponse{SpeechFinal: true})
	require.True(t, ok)
	assert.Equal(t, domain.TranscriptEvent{Kind: domain.TranscriptKindFinal, IsSpeechFinal: true}, event)

	_, ok = toTranscriptEvent(deepgramResponse{})
	assert.False(t, ok)
}

func TestNewDialer(t *testing.T) {
	t.Parallel()

	direct, err := newDialer("")
	require.NoError(t, err)
	assert.NotNil(t, direct.Proxy)
	assert.Nil(t, direct.NetDialContext)

	socks, err := newDialer("127.0.0.1:1080")
	require.NoError(t, err)
	assert.Nil(t, socks.Proxy)
	assert.True(t, socks.NetDialContext != nil || socks.NetDial != nil)
}

func TestStreamingSessionSendAudioClosed(t *testing.T) {
	t.Parallel()

	s := &streamingSession{sendClosed: true}
	require.Error(t, s.SendAudio([]byte("x")))
	require.NoError(t, s.SendAudio(nil))
}

func TestStreamingSessionCloseSendIsIdempotent(t *testing.T) {
	t.Parallel()

	s := &streamingSession{audio: make(chan []byte, 1)}
	require.NoError(t, s.CloseSend())
	require.NoError(t, s.CloseSend())
}

func TestStreamingSessionSetErr(t *testing.T) {
	t.Parallel()

	s := &streamingSession{}
	s.setErr(&websocket.CloseError{Code: websocket.CloseNormalClosure, Text: "closed"})
	s.setErr(fmt.Errorf("read provider event: %w", &websocket.CloseError{Code: websocket.CloseGoingAway}))
	s.setErr(fmt.Errorf("close stream: %w", websocket.ErrCloseSent))
	require.NoError(t, s.waitErr())

	s.setErr(fmt.Errorf("read provider event: %w", &websocket.CloseError{Code: websocket.CloseAbnormalClosure}))
	require.ErrorContains(t, s.waitErr(), "1006")

	s = &streamingSession{}

	s.setErr(errors.New("first"))
	s.setErr(errors.New("second"))
	require.EqualError(t, s.waitErr(), "first")
}

// fakeDeepgram answers every audio frame with a result frame and closes
// after CloseStream.
func fakeDeepgram(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		next := 0
		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.TextMessage && strings.Contains(string(payload), "CloseStream") {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if next < len(frames) {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(frames[next]))
				next++
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestStreamingRoundTrip(t *testing.T) {
	t.Parallel()

	server := fakeDeepgram(t, []string{
		`{"is_final":false,"channel":{"alternatives":[{"transcript":"show my","confidence":0.4}]}}`,
		`{"is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"show my goals","confidence":0.95}]}}`,
	})
	provider := NewProvider(Config{APIKey: "secret", APIBaseURL: server.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session, err := provider.StartStreaming(ctx, ports.StreamingConfig{InterimResults: true})
	require.NoError(t, err)

	var got []domain.TranscriptEvent
	require.NoError(t, session.SendAudio([]byte{1, 2}))
	got = append(got, <-session.Events())
	require.NoError(t, session.SendAudio([]byte{3, 4}))
	got = append(got, <-session.Events())
	require.NoError(t, session.CloseSend())

	for event := range session.Events() {
		got = append(got, event)
	}
	require.NoError(t, session.Wait())

	assert.Equal(t, []domain.TranscriptEvent{
		{Kind: domain.TranscriptKindPartial, Text: "show my", Confidence: 0.4},
		{Kind: domain.TranscriptKindFinal, Text: "show my goals", Confidence: 0.95, IsSpeechFinal: true},
	}, got)
}

func TestStreamingRejectedHandshake(t *testing.T) {
	t.Parallel()

	server := fakeDeepgram(t, nil)
	provider := NewProvider(Config{APIKey: "wrong", APIBaseURL: server.URL})

	_, err := provider.StartStreaming(context.Background(), ports.StreamingConfig{})
	require.ErrorContains(t, err, "connect to Deepgram websocket")
}

func TestStreamingProviderErrorFrame(t *testing.T) {
	t.Parallel()

	server := fakeDeepgram(t, []string{`{"type":"Error","message":"quota exceeded"}`})
	provider := NewProvider(Config{APIKey: "secret", APIBaseURL: server.URL})

	session, err := provider.StartStreaming(context.Background(), ports.StreamingConfig{})
	require.NoError(t, err)
	require.NoError(t, session.SendAudio([]byte{1}))

	for range session.Events() {
	}
	require.EqualError(t, session.Wait(), "quota exceeded")
	require.EqualError(t, session.Close(), "quota exceeded")
}

func TestStreamingProviderNormalCloseIsNotAnError(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"open claims","confidence":0.8}]}}`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	session, err := NewProvider(Config{APIKey: "secret", APIBaseURL: server.URL}).
		StartStreaming(context.Background(), ports.StreamingConfig{})
	require.NoError(t, err)
	require.NoError(t, session.SendAudio([]byte{1}))

	var got []domain.TranscriptEvent
	for event := range session.Events() {
		got = append(got, event)
	}
	require.NoError(t, session.Wait())
	require.NoError(t, session.Close())
	assert.Equal(t, []domain.TranscriptEvent{
		{Kind: domain.TranscriptKindFinal, Text: "open claims", Confidence: 0.8, IsSpeechFinal: true},
	}, got)
}
