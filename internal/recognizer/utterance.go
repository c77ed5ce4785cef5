package recognizer

import (
	"strings"
	"sync"

	"voicewell/internal/domain"
)

// utterance merges streaming result frames into one spoken command. Final
// segments accumulate until the provider marks the end of speech.
type utterance struct {
	mu          sync.Mutex
	finals      []string
	confidences []float64
	lastSpoken  string
}

func newUtterance() *utterance {
	return &utterance{}
}

// Add folds one frame in. It returns the engine event the frame produces,
// if any.
func (u *utterance) Add(event domain.TranscriptEvent) (domain.EngineEvent, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	text := strings.TrimSpace(event.Text)
	if text == "" {
		if event.IsSpeechFinal && len(u.finals) > 0 {
			return u.flushLocked(), true
		}
		return domain.EngineEvent{}, false
	}

	if event.Kind != domain.TranscriptKindFinal {
		u.lastSpoken = text
		return domain.EngineEvent{Kind: domain.EngineEventInterim, Text: u.joinLocked(text)}, true
	}

	u.finals = append(u.finals, text)
	u.confidences = append(u.confidences, event.Confidence)
	u.lastSpoken = ""
	if event.IsSpeechFinal {
		return u.flushLocked(), true
	}
	return domain.EngineEvent{Kind: domain.EngineEventInterim, Text: u.joinLocked("")}, true
}

// Flush closes the utterance when the stream ends. A trailing partial is
// promoted when no segment was finalized.
func (u *utterance) Flush() (domain.EngineEvent, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(u.finals) == 0 {
		if u.lastSpoken == "" {
			return domain.EngineEvent{}, false
		}
		text := u.lastSpoken
		u.lastSpoken = ""
		return domain.EngineEvent{Kind: domain.EngineEventFinal, Text: text}, true
	}
	return u.flushLocked(), true
}

func (u *utterance) joinLocked(tail string) string {
	parts := append([]string(nil), u.finals...)
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, " ")
}

func (u *utterance) flushLocked() domain.EngineEvent {
	var sum float64
	for _, c := range u.confidences {
		sum += c
	}
	event := domain.EngineEvent{
		Kind:       domain.EngineEventFinal,
		Text:       strings.Join(u.finals, " "),
		Confidence: sum / float64(len(u.confidences)),
	}
	u.finals = nil
	u.confidences = nil
	u.lastSpoken = ""
	return event
}
