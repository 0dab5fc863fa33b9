package md2img

// Notes:
// - Sweep is tested directly with a fixed clock; the cron schedule only
//   calls it
// - Directories without a parseable stamp are never touched

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSweeper_Sweep(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)

	mkdir := func(name string) {
		t.Helper()
		if err := os.Mkdir(filepath.Join(dir, name), 0o750); err != nil {
			t.Fatal(err)
		}
	}

	old := now.Add(-3 * time.Hour).Format(artifactStampLayout)
	recent := now.Add(-10 * time.Minute).Format(artifactStampLayout)
	mkdir(old + "_111")
	mkdir(old + "_222")
	mkdir(recent + "_333")
	mkdir("unrelated")
	if err := os.WriteFile(filepath.Join(dir, old+"_file"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := NewSweeper(dir, time.Hour, "", nil)
	if err != nil {
		t.Fatalf("NewSweeper() error = %v", err)
	}
	s.now = func() time.Time { return now }

	removed, err := s.Sweep()
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Sweep() removed %d, want 2", removed)
	}

	for _, name := range []string{recent + "_333", "unrelated", old + "_file"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s removed: %v", name, err)
		}
	}
	for _, name := range []string{old + "_111", old + "_222"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s still present", name)
		}
	}
}

func TestSweeper_MissingDir(t *testing.T) {
	t.Parallel()

	s, err := NewSweeper(filepath.Join(t.TempDir(), "missing"), time.Hour, "", nil)
	if err != nil {
		t.Fatalf("NewSweeper() error = %v", err)
	}
	removed, err := s.Sweep()
	if err != nil || removed != 0 {
		t.Errorf("Sweep() = %d, %v, want 0, nil", removed, err)
	}
}

func TestNewSweeper_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		retention time.Duration
		schedule  string
		wantErr   error
	}{
		{"zero retention", 0, "", ErrInvalidRetention},
		{"negative retention", -time.Minute, "", ErrInvalidRetention},
		{"bad schedule", time.Hour, "sometimes", ErrInvalidSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewSweeper(t.TempDir(), tt.retention, tt.schedule, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewSweeper() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSweeper_StartStop(t *testing.T) {
	t.Parallel()

	s, err := NewSweeper(t.TempDir(), time.Hour, "@every 1m", nil)
	if err != nil {
		t.Fatalf("NewSweeper() error = %v", err)
	}
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return")
	}
}

func TestArtifactTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		wantOK bool
	}{
		{"20240102-030405.006_123456", true},
		{"20240102-030405.006_", true},
		{"20240102-030405.006", false},
		{"notastamp_123", false},
		{"", false},
	}

	for _, tt := range tests {
		if _, ok := artifactTime(tt.name); ok != tt.wantOK {
			t.Errorf("artifactTime(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
		}
	}
}
