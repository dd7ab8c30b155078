package speech

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// probeTimeout bounds the device probe.
const probeTimeout = 3 * time.Second

// DeviceProbe checks that the capture device can be opened. It is the
// terminal stand-in for a microphone permission prompt.
type DeviceProbe struct {
	recorder *Recorder
}

// NewDeviceProbe creates a probe that uses recorder.
func NewDeviceProbe(recorder *Recorder) *DeviceProbe {
	return &DeviceProbe{recorder: recorder}
}

// Request opens the device briefly.
func (p *DeviceProbe) Request(ctx context.Context) error {
	if !p.recorder.Available() {
		return fmt.Errorf("recorder %q not found in PATH", p.recorder.Command)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, p.recorder.Command, p.recorder.ProbeArgs()...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("cannot open capture device: %w: %s", err, out)
	}
	return nil
}
