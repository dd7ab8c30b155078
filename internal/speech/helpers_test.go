package speech

import (
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/diogo/llamavoice/internal/voice"
)

// fakeLookPath makes only the named binaries available.
func fakeLookPath(t *testing.T, available ...string) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	set := map[string]bool{}
	for _, a := range available {
		set[a] = true
	}
	lookPath = func(file string) (string, error) {
		if set[file] {
			return "/usr/bin/" + file, nil
		}
		return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
	}
}

// collect drains a session's events until the channel closes.
func collect(t *testing.T, rec voice.Recognition) []voice.Event {
	t.Helper()
	var out []voice.Event
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-rec.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("session did not end, events so far: %+v", out)
			return nil
		}
	}
}

func kinds(events []voice.Event) []voice.EventKind {
	out := make([]voice.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

var errFake = errors.New("fake failure")
