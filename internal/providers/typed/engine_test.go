package typed

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"voicewell/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	events []domain.EngineEvent
}

func (r *recorder) add(event domain.EngineEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) all() []domain.EngineEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.EngineEvent(nil), r.events...)
}

func TestEngineTranslatesInputLines(t *testing.T) {
	t.Parallel()

	input := strings.NewReader("ignored before start\n")
	engine := NewEngine(input, nil)
	rec := &recorder{}
	engine.SetSink(rec.add)

	// lines read before Start are dropped; input ends right away
	require.NoError(t, engine.Run(context.Background()))
	assert.Empty(t, rec.all())

	reader, writer := io.Pipe()
	engine = NewEngine(reader, nil)
	rec = &recorder{}
	engine.SetSink(rec.add)

	errCh := make(chan error, 1)
	go func() { errCh <- engine.Run(context.Background()) }()

	require.NoError(t, engine.Start())
	require.ErrorIs(t, engine.Start(), ErrEngineRunning)
	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, 2*time.Second, 5*time.Millisecond)

	_, err := io.WriteString(writer, "~show my\nshow my vitals\n\n!error network\nlate line\n")
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, <-errCh)

	assert.Equal(t, []domain.EngineEvent{
		{Kind: domain.EngineEventStarted},
		{Kind: domain.EngineEventInterim, Text: "show my"},
		{Kind: domain.EngineEventFinal, Text: "show my vitals", Confidence: 1},
		{Kind: domain.EngineEventError, Code: "network"},
		{Kind: domain.EngineEventEnd},
	}, rec.all())
	assert.False(t, engine.Active())
}

func TestEngineStopEndsPassOnce(t *testing.T) {
	t.Parallel()

	reader, writer := io.Pipe()
	engine := NewEngine(reader, nil)
	rec := &recorder{}
	engine.SetSink(rec.add)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- engine.Run(ctx) }()

	require.NoError(t, engine.Start())
	require.NoError(t, engine.Stop())
	require.NoError(t, engine.Stop())

	require.Eventually(t, func() bool { return len(rec.all()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.EngineEvent{
		{Kind: domain.EngineEventStarted},
		{Kind: domain.EngineEventEnd},
	}, rec.all())

	cancel()
	require.NoError(t, <-errCh)
	require.NoError(t, writer.Close())
}

func TestEngineEndOfInputClosesActivePass(t *testing.T) {
	t.Parallel()

	reader, writer := io.Pipe()
	engine := NewEngine(reader, nil)
	rec := &recorder{}
	engine.SetSink(rec.add)

	errCh := make(chan error, 1)
	go func() { errCh <- engine.Run(context.Background()) }()

	require.NoError(t, engine.Start())
	require.NoError(t, writer.Close())
	require.NoError(t, <-errCh)

	events := rec.all()
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EngineEventEnd, events[len(events)-1].Kind)
}
