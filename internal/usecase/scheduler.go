package usecase

import (
	"time"

	"voicewell/internal/domain"
	"voicewell/internal/ports"
)

// RealScheduler runs callbacks on the runtime timer.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	return time.AfterFunc(d, f)
}

type envelopeKind int

const (
	envStart envelopeKind = iota
	envStop
	envToggle
	envState
	envEngine
	envRestartDue
	envWelcomeDue
)

// envelope is one unit of work for the controller loop.
type envelope struct {
	kind  envelopeKind
	event domain.EngineEvent
	gen   uint64
	retry bool
	reply chan domain.SessionState
}
