// Package speech provides the concrete recognition and synthesis engines
// behind the voice adapter: sox/arecord capture, Deepgram live
// transcription, OpenAI Whisper, system TTS commands, OpenAI TTS and
// ElevenLabs.
package speech

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

// SampleRate is the capture rate in Hz for all recorders.
const SampleRate = 16000

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// Recorder captures 16 kHz mono 16-bit audio from the default input device
// using an external command.
type Recorder struct {
	// Command is "rec" (sox) or "arecord".
	Command string
}

// NewRecorder creates a Recorder for command, defaulting to "rec".
func NewRecorder(command string) *Recorder {
	if command == "" {
		command = "rec"
	}
	return &Recorder{Command: command}
}

// Available reports whether the recorder binary is on PATH.
func (r *Recorder) Available() bool {
	_, err := lookPath(r.Command)
	return err == nil
}

// StreamArgs returns arguments that write raw PCM to stdout.
func (r *Recorder) StreamArgs() []string {
	rate := strconv.Itoa(SampleRate)
	switch r.Command {
	case "arecord":
		return []string{"-q", "-f", "S16_LE", "-r", rate, "-c", "1", "-t", "raw"}
	default:
		return []string{"-q", "-t", "raw", "-r", rate, "-b", "16", "-c", "1", "-e", "signed-integer", "-"}
	}
}

// FileArgs returns arguments that record a WAV file. With sox, recording
// stops after 1.5s of silence following speech; maxSeconds bounds it for
// both recorders.
func (r *Recorder) FileArgs(path string, maxSeconds int) []string {
	rate := strconv.Itoa(SampleRate)
	limit := strconv.Itoa(maxSeconds)
	switch r.Command {
	case "arecord":
		return []string{"-q", "-f", "S16_LE", "-r", rate, "-c", "1", "-t", "wav", "-d", limit, path}
	default:
		return []string{"-q", "-r", rate, "-b", "16", "-c", "1", path,
			"silence", "1", "0.1", "1%", "1", "1.5", "1%", "trim", "0", limit}
	}
}

// ProbeArgs returns arguments that capture a fraction of a second and
// discard it, used to check the device can be opened.
func (r *Recorder) ProbeArgs() []string {
	switch r.Command {
	case "arecord":
		return []string{"-q", "-f", "S16_LE", "-r", strconv.Itoa(SampleRate), "-d", "1", "-t", "raw", "/dev/null"}
	default:
		return []string{"-q", "-n", "trim", "0", "0.2"}
	}
}

// Open starts streaming capture. Closing the returned reader stops the
// recorder.
func (r *Recorder) Open(ctx context.Context) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, r.Command, r.StreamArgs()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open recorder pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", r.Command, err)
	}
	return &processReader{ReadCloser: stdout, cmd: cmd}, nil
}

// RecordFile records a single utterance to path.
func (r *Recorder) RecordFile(ctx context.Context, path string, maxSeconds int) error {
	cmd := exec.CommandContext(ctx, r.Command, r.FileArgs(path, maxSeconds)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w: %s", r.Command, err, out)
	}
	return nil
}

// processReader kills its process on Close.
type processReader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (p *processReader) Close() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	err := p.ReadCloser.Close()
	_ = p.cmd.Wait()
	return err
}
