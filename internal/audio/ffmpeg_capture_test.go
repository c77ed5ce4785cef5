package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicewell/internal/ports"
)

func TestFFmpegCaptureStartReadAndStop(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'hello'\nsleep 2\n")
	capture := NewFFmpegCapture(Options{Command: script})

	session, err := capture.Start(context.Background(), ports.AudioConfig{})
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, readErr := session.Read(buf)
	require.Positive(t, n, "read error: %v", readErr)
	assert.Contains(t, string(buf[:n]), "hello")

	require.NoError(t, session.Stop())
	require.NoError(t, session.Close(), "stop is idempotent")
}

func TestFFmpegCaptureStartEarlyExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'boom' 1>&2\nexit 1\n")
	capture := NewFFmpegCapture(Options{Command: script, StartupGrace: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := capture.Start(ctx, ports.AudioConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited before capture started")
	assert.Contains(t, err.Error(), "boom")
}

func TestCaptureArgsDefaults(t *testing.T) {
	t.Parallel()

	args := captureArgs(ports.AudioConfig{})
	assert.Equal(t, []string{
		"-nostdin", "-hide_banner", "-loglevel", "warning",
		"-f", "pulse", "-i", "default",
		"-ac", "1", "-ar", "16000",
		"-f", "s16le", "-",
	}, args)

	args = captureArgs(ports.AudioConfig{SampleRate: 8000, Channels: 2, InputFormat: "alsa", InputDevice: "hw:1"})
	assert.Subset(t, args, []string{"alsa", "hw:1", "2", "8000"})
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-c", "exit 1").Run()
	require.Error(t, err)
	assert.NoError(t, normalizeStopErr(err))
	assert.NoError(t, normalizeStopErr(nil))
	assert.Equal(t, os.ErrClosed, normalizeStopErr(os.ErrClosed))
}

func TestSyncBufferTrimmed(t *testing.T) {
	t.Parallel()

	var b syncBuffer
	_, _ = b.Write([]byte("  hi\n"))
	assert.Equal(t, "hi", b.Trimmed())
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o700))
	return path
}
