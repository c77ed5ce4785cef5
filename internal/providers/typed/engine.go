// Package typed is a keyboard-driven speech engine for terminals and tests.
//
// Each input line is one recognizer result while a pass is active:
//
//	show my vitals    final result
//	~show my          interim result
//	!end              the pass ends
//	!error network    the pass fails with the given code, then ends
package typed

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"voicewell/internal/domain"
)

var ErrEngineRunning = errors.New("typed recognition pass already active")

type Engine struct {
	in     io.Reader
	logger *zap.Logger

	mu     sync.Mutex
	sink   func(domain.EngineEvent)
	active bool
	queue  []domain.EngineEvent
	wake   chan struct{}
}

func NewEngine(in io.Reader, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{in: in, logger: logger, wake: make(chan struct{}, 1)}
}

func (e *Engine) Supported() bool { return e.in != nil }

func (e *Engine) SetSink(sink func(domain.EngineEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

func (e *Engine) Start() error {
	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return ErrEngineRunning
	}
	e.active = true
	e.mu.Unlock()

	e.post(domain.EngineEvent{Kind: domain.EngineEventStarted})
	return nil
}

func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return nil
	}
	e.active = false
	e.mu.Unlock()

	e.post(domain.EngineEvent{Kind: domain.EngineEventEnd})
	return nil
}

// Active reports whether a pass is running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Run reads input and delivers events until ctx is cancelled or input ends.
// Delivery happens here, never inside Start or Stop.
func (e *Engine) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(e.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.wake:
			e.flush()
		case line := <-lines:
			e.handleLine(line)
			e.flush()
		case err := <-readErr:
			if e.Active() {
				_ = e.Stop()
			}
			e.flush()
			return err
		}
	}
}

func (e *Engine) handleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	e.mu.Lock()
	active := e.active
	e.mu.Unlock()
	if !active {
		e.logger.Debug("input ignored while not listening", zap.String("line", line))
		return
	}

	switch {
	case line == "!end":
		_ = e.Stop()
	case strings.HasPrefix(line, "!error"):
		code := strings.TrimSpace(strings.TrimPrefix(line, "!error"))
		if code == "" {
			code = "aborted"
		}
		e.post(domain.EngineEvent{Kind: domain.EngineEventError, Code: code})
		_ = e.Stop()
	case strings.HasPrefix(line, "~"):
		e.post(domain.EngineEvent{Kind: domain.EngineEventInterim, Text: strings.TrimPrefix(line, "~")})
	default:
		e.post(domain.EngineEvent{Kind: domain.EngineEventFinal, Text: line, Confidence: 1})
	}
}

func (e *Engine) post(event domain.EngineEvent) {
	e.mu.Lock()
	e.queue = append(e.queue, event)
	e.mu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) flush() {
	e.mu.Lock()
	pending := e.queue
	e.queue = nil
	sink := e.sink
	e.mu.Unlock()

	if sink == nil {
		return
	}
	for _, event := range pending {
		sink(event)
	}
}
