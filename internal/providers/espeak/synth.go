// Package espeak speaks confirmations through the espeak-ng command line.
package espeak

import (
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"voicewell/internal/ports"
)

// Synthesizer runs one espeak-ng process at a time. A new utterance
// interrupts the previous one.
type Synthesizer struct {
	command string
	logger  *zap.Logger

	mu      sync.Mutex
	current *exec.Cmd
	wg      sync.WaitGroup
}

func New(command string, logger *zap.Logger) *Synthesizer {
	if command == "" {
		command = "espeak-ng"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{command: command, logger: logger}
}

// Available reports whether the configured binary is on PATH.
func (s *Synthesizer) Available() bool {
	_, err := exec.LookPath(s.command)
	return err == nil
}

func (s *Synthesizer) Speak(text string, opts ports.SpeechOptions) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.killLocked()

	cmd := exec.Command(s.command, speakArgs(text, opts)...)
	if err := cmd.Start(); err != nil {
		s.logger.Warn("espeak start failed", zap.Error(err))
		return
	}
	s.current = cmd
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := cmd.Wait(); err != nil {
			s.logger.Debug("espeak exited", zap.Error(err))
		}
		s.mu.Lock()
		if s.current == cmd {
			s.current = nil
		}
		s.mu.Unlock()
	}()
}

func (s *Synthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killLocked()
}

// Close interrupts speech and waits for the child to exit.
func (s *Synthesizer) Close() error {
	s.Cancel()
	s.wg.Wait()
	return nil
}

func (s *Synthesizer) killLocked() {
	if s.current != nil && s.current.Process != nil {
		_ = s.current.Process.Kill()
	}
	s.current = nil
}

// speakArgs maps browser-style speech options onto espeak-ng flags: rate 1
// is 175 words per minute, pitch 1 is 50, volume 1 is amplitude 100.
func speakArgs(text string, opts ports.SpeechOptions) []string {
	rate := scale(opts.Rate, 175, 80, 450)
	pitch := scale(opts.Pitch, 50, 0, 99)
	volume := scale(opts.Volume, 100, 0, 200)

	args := []string{
		"-s", strconv.Itoa(rate),
		"-p", strconv.Itoa(pitch),
		"-a", strconv.Itoa(volume),
	}
	if voice := strings.TrimSpace(opts.Voice); voice != "" {
		args = append(args, "-v", voice)
	}
	return append(args, "--", text)
}

func scale(factor float64, unit, lo, hi int) int {
	if factor <= 0 {
		factor = 1
	}
	v := int(math.Round(factor * float64(unit)))
	return min(max(v, lo), hi)
}
