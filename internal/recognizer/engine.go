// Package recognizer turns a microphone capture and a streaming
// transcription provider into a speech engine.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"voicewell/internal/domain"
	"voicewell/internal/ports"
)

var (
	ErrEngineRunning     = errors.New("recognition pass already active")
	ErrEngineUnsupported = errors.New("no audio capture or transcription provider configured")
)

// Config tunes a streaming engine.
type Config struct {
	Audio        ports.AudioConfig
	Streaming    ports.StreamingConfig
	ChunkSize    int
	DrainTimeout time.Duration
}

// Engine runs one recognition pass at a time. Each pass owns a capture
// session and a provider stream, and ends with exactly one end event.
type Engine struct {
	capture  ports.AudioCapture
	provider ports.TranscriptionProvider
	cfg      Config
	logger   *zap.Logger

	mu     sync.Mutex
	sink   func(domain.EngineEvent)
	active *pass
	wg     sync.WaitGroup
}

type pass struct {
	cancel   context.CancelFunc
	audio    ports.AudioSession
	stream   ports.StreamingSession
	stopping atomic.Bool
	draining atomic.Bool
}

func NewEngine(capture ports.AudioCapture, provider ports.TranscriptionProvider, cfg Config, logger *zap.Logger) *Engine {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 4096
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{capture: capture, provider: provider, cfg: cfg, logger: logger}
}

func (e *Engine) Supported() bool {
	return e.capture != nil && e.provider != nil
}

func (e *Engine) SetSink(sink func(domain.EngineEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

// Start opens the microphone and the provider stream. The started event is
// delivered asynchronously.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.Supported() {
		return ErrEngineUnsupported
	}
	if e.active != nil {
		return ErrEngineRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	audio, err := e.capture.Start(ctx, e.cfg.Audio)
	if err != nil {
		cancel()
		return fmt.Errorf("start audio capture: %w", err)
	}
	stream, err := e.provider.StartStreaming(ctx, e.cfg.Streaming)
	if err != nil {
		_ = audio.Stop()
		_ = audio.Close()
		cancel()
		return fmt.Errorf("start transcription stream: %w", err)
	}

	p := &pass{cancel: cancel, audio: audio, stream: stream}
	e.active = p
	e.wg.Add(1)
	go e.run(p)
	return nil
}

// Stop ends the current pass. Buffered audio is still transcribed and a
// trailing command may be delivered before the end event.
func (e *Engine) Stop() error {
	e.mu.Lock()
	p := e.active
	e.mu.Unlock()

	if p == nil || !p.stopping.CompareAndSwap(false, true) {
		return nil
	}
	return p.audio.Stop()
}

// Close stops any active pass and waits for it to finish.
func (e *Engine) Close() error {
	err := e.Stop()
	e.wg.Wait()
	return err
}

func (e *Engine) run(p *pass) {
	defer e.wg.Done()
	defer p.cancel()

	e.emit(domain.EngineEvent{Kind: domain.EngineEventStarted})

	pumpDone := make(chan error, 1)
	go func() {
		err := pumpAudioChunks(p.audio, p.stream, e.cfg.ChunkSize)
		if p.draining.Load() {
			err = nil
		}
		_ = p.stream.CloseSend()
		pumpDone <- err
	}()

	utt := newUtterance()
	for event := range p.stream.Events() {
		if out, ok := utt.Add(event); ok {
			e.emit(out)
		}
	}

	// The provider may end first; release the microphone so the pump exits.
	p.draining.Store(true)
	_ = p.audio.Stop()
	pumpErr := <-pumpDone
	streamErr := waitForStream(p.stream, e.cfg.DrainTimeout)
	_ = p.audio.Close()

	if out, ok := utt.Flush(); ok {
		e.emit(out)
	}

	if !p.stopping.Load() {
		var pe *pumpError
		switch {
		case errors.As(pumpErr, &pe):
			e.logger.Warn("audio pump failed", zap.Error(pumpErr))
			e.emit(domain.EngineEvent{Kind: domain.EngineEventError, Code: pe.code})
		case streamErr != nil:
			e.logger.Warn("transcription stream failed", zap.Error(streamErr))
			e.emit(domain.EngineEvent{Kind: domain.EngineEventError, Code: CodeNetwork})
		}
	}

	e.mu.Lock()
	if e.active == p {
		e.active = nil
	}
	e.mu.Unlock()

	e.emit(domain.EngineEvent{Kind: domain.EngineEventEnd})
}

func (e *Engine) emit(event domain.EngineEvent) {
	e.mu.Lock()
	sink := e.sink
	e.mu.Unlock()
	if sink != nil {
		sink(event)
	}
}
