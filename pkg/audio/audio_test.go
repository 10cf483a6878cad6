package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"amanai-be/pkg/analysis"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/recording"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o700))
	return path
}

func requireBash(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
}

func TestFFMPEGCaptureStartReadAndStop(t *testing.T) {
	t.Parallel()
	requireBash(t)

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'hello'\nsleep 2\n")
	capture := NewFFMPEGCapture(script)

	session, err := capture.Start(context.Background(), recording.DefaultAudioConfig())
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, _ := session.Read(buf)
	require.Positive(t, n)
	assert.Contains(t, string(buf[:n]), "hello")

	assert.NoError(t, session.Stop())
	assert.NoError(t, session.Stop())
}

func TestFFMPEGCaptureStartEarlyExit(t *testing.T) {
	t.Parallel()
	requireBash(t)

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'boom' 1>&2\nexit 1\n")
	capture := NewFFMPEGCapture(script)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := capture.Start(ctx, recording.AudioConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited before capture started")
	assert.Contains(t, err.Error(), "boom")
}

func TestFFMPEGCapturePermissionDenied(t *testing.T) {
	t.Parallel()
	requireBash(t)

	script := writeScript(t, "denied.sh", "#!/usr/bin/env bash\necho 'default: Permission denied' 1>&2\nexit 1\n")
	_, err := NewFFMPEGCapture(script).Start(context.Background(), recording.AudioConfig{})
	assert.True(t, errors.Is(err, apperror.ErrPermissionDenied))
}

func TestFFMPEGCaptureArgs(t *testing.T) {
	t.Parallel()

	c := NewFFMPEGCapture("", WithEchoCancelSource("echo-cancel-source"))
	args := strings.Join(c.args(recording.DefaultAudioConfig()), " ")

	assert.Contains(t, args, "-f pulse -i echo-cancel-source")
	assert.Contains(t, args, "-af afftdn")
	assert.Contains(t, args, "-ac 1 -ar 16000 -f s16le -")

	plain := strings.Join(c.args(recording.AudioConfig{InputDevice: "hw:1"}), " ")
	assert.Contains(t, plain, "-i hw:1")
	assert.NotContains(t, plain, "afftdn")
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()
	requireBash(t)

	err := exec.Command("bash", "-c", "exit 1").Run()
	require.Error(t, err)
	assert.NoError(t, normalizeStopErr(err))
}

func TestParseSources(t *testing.T) {
	out := "0\talsa_output.pci.analog-stereo.monitor\tmodule-alsa-card.c\ts16le 2ch 44100Hz\tSUSPENDED\n" +
		"1\talsa_input.pci.analog-stereo\tmodule-alsa-card.c\ts16le 2ch 44100Hz\tRUNNING\n" +
		"\n" +
		"2\techo-cancel-source\tmodule-echo-cancel.c\tfloat32le 1ch 32000Hz\tIDLE\n"

	assert.Equal(t, []string{"alsa_input.pci.analog-stereo", "echo-cancel-source"}, parseSources(out))
	assert.Empty(t, parseSources(""))
}

func TestEncodeWAV(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	wav := EncodeWAV(pcm, 16000, 1)

	require.Len(t, wav, wavHeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, pcm, wav[44:])
}

type blobRecorder struct {
	blob []byte
}

func (b *blobRecorder) Analyze(_ context.Context, blob []byte) (*analysis.Outcome, error) {
	b.blob = blob
	return &analysis.Outcome{}, nil
}

func TestWAVAnalyzerWrapsRecording(t *testing.T) {
	gw := &blobRecorder{}
	a := NewWAVAnalyzer(gw)

	_, err := a.Analyze(context.Background(), recording.Recording{Data: []byte("c1c2c3"), SampleRate: 16000, Channels: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte("c1c2c3"), gw.blob[wavHeaderSize:])

	_, err = a.Analyze(context.Background(), recording.Recording{})
	require.NoError(t, err)
	assert.Nil(t, gw.blob)
}
