package theme

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/diogo/llamavoice/internal/config"
	"github.com/diogo/llamavoice/internal/render"
)

type memStorage struct {
	values map[string]string
	err    error
}

func newMemStorage() *memStorage {
	return &memStorage{values: map[string]string{}}
}

func (m *memStorage) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *memStorage) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

var (
	darkOS  = DetectorFunc(func() bool { return true })
	lightOS = DetectorFunc(func() bool { return false })
)

func TestDefaultIsSystem(t *testing.T) {
	s := NewStore(newMemStorage(), WithDetector(darkOS))

	if s.Preference() != System {
		t.Errorf("Preference() = %s, want system", s.Preference())
	}
	if s.Resolved() != ResolvedDark {
		t.Errorf("Resolved() = %s, want dark", s.Resolved())
	}
}

func TestSystemResolution(t *testing.T) {
	tests := []struct {
		pref     Preference
		detector Detector
		expected Resolved
	}{
		{System, darkOS, ResolvedDark},
		{System, lightOS, ResolvedLight},
		{Light, darkOS, ResolvedLight},
		{Dark, lightOS, ResolvedDark},
	}

	for _, tt := range tests {
		t.Run(string(tt.pref), func(t *testing.T) {
			st := newMemStorage()
			st.values[StorageKey] = string(tt.pref)
			s := NewStore(st, WithDetector(tt.detector))
			if got := s.Resolved(); got != tt.expected {
				t.Errorf("Resolved() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestInvalidStoredValue(t *testing.T) {
	st := newMemStorage()
	st.values[StorageKey] = "sepia"

	s := NewStore(st, WithDetector(lightOS))
	if s.Preference() != System {
		t.Errorf("Preference() = %s, want system", s.Preference())
	}
}

func TestSetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	storage, err := config.NewLocalStorage(path)
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	s := NewStore(storage, WithDetector(lightOS))
	if err := s.Set(Dark); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	reopened, err := config.NewLocalStorage(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if v, _ := reopened.Get("theme"); v != "dark" {
		t.Errorf("stored theme = %q, want dark", v)
	}
	if NewStore(reopened).Preference() != Dark {
		t.Error("preference not restored")
	}
}

func TestSetRejectsInvalid(t *testing.T) {
	st := newMemStorage()
	s := NewStore(st)

	if err := s.Set("blue"); err == nil {
		t.Error("expected error for invalid preference")
	}
	if _, ok := st.values[StorageKey]; ok {
		t.Error("invalid preference should not be stored")
	}
}

func TestSetStorageFailureKeepsValue(t *testing.T) {
	st := newMemStorage()
	st.err = errors.New("disk full")
	s := NewStore(st, WithDetector(lightOS))

	if err := s.Set(Dark); err == nil {
		t.Error("expected storage error")
	}
	if s.Preference() != Dark {
		t.Errorf("Preference() = %s, want dark", s.Preference())
	}
}

func TestCycle(t *testing.T) {
	st := newMemStorage()
	st.values[StorageKey] = "light"
	s := NewStore(st, WithDetector(lightOS))

	want := []Preference{Dark, System, Light}
	for _, w := range want {
		got, err := s.Cycle()
		if err != nil {
			t.Fatalf("Cycle() error = %v", err)
		}
		if got != w {
			t.Errorf("Cycle() = %s, want %s", got, w)
		}
		if st.values[StorageKey] != string(w) {
			t.Errorf("stored = %s, want %s", st.values[StorageKey], w)
		}
	}
}

func TestSubscribe(t *testing.T) {
	s := NewStore(newMemStorage(), WithDetector(darkOS))

	var gotPref Preference
	var gotResolved Resolved
	s.Subscribe(func(p Preference, r Resolved) {
		gotPref, gotResolved = p, r
	})

	if err := s.Set(System); err != nil {
		t.Fatal(err)
	}
	if gotPref != System || gotResolved != ResolvedDark {
		t.Errorf("observer got %s/%s", gotPref, gotResolved)
	}
}

func TestApply(t *testing.T) {
	t.Cleanup(func() { render.SetTUITheme("dark") })

	s := NewStore(nil, WithDetector(lightOS))
	if got := s.Apply(); got != ResolvedLight {
		t.Errorf("Apply() = %s, want light", got)
	}
	if render.GetTUITheme().Name != "light" {
		t.Errorf("active palette = %s, want light", render.GetTUITheme().Name)
	}
	if s.MarkdownStyle() != render.StyleLight {
		t.Errorf("MarkdownStyle() = %s", s.MarkdownStyle())
	}
}

func TestParsePreference(t *testing.T) {
	for _, v := range []string{"light", "dark", "system"} {
		if _, err := ParsePreference(v); err != nil {
			t.Errorf("ParsePreference(%s) error = %v", v, err)
		}
	}
	if _, err := ParsePreference("Dark"); err == nil {
		t.Error("ParsePreference should be case sensitive")
	}
}
