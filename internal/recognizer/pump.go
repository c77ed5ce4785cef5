package recognizer

import (
	"errors"
	"fmt"
	"io"
	"time"

	"voicewell/internal/ports"
)

// Error codes reported through EngineEventError. They follow the browser
// recognizer's vocabulary so every engine reads the same in the UI.
const (
	CodeAudioCapture = "audio-capture"
	CodeNetwork      = "network"
)

type pumpError struct {
	code string
	err  error
}

func (e *pumpError) Error() string { return e.err.Error() }
func (e *pumpError) Unwrap() error { return e.err }

// pumpAudioChunks copies captured audio into the stream until the capture
// ends. io.EOF is a clean end.
func pumpAudioChunks(audio ports.AudioSession, stream ports.StreamingSession, chunkSize int) error {
	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			if sendErr := stream.SendAudio(buf[:n]); sendErr != nil {
				return &pumpError{code: CodeNetwork, err: fmt.Errorf("failed to stream audio: %w", sendErr)}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &pumpError{code: CodeAudioCapture, err: fmt.Errorf("audio capture error: %w", err)}
		}
	}
}

func waitForStream(session ports.StreamingSession, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = session.Close()
		return <-done
	}
}
