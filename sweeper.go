package md2img

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the retention sweep hourly.
const DefaultSweepSchedule = "@every 1h"

// Sweeper deletes request directories older than a retention period from
// the artifact directory on a cron schedule. Only directories named by the
// converter are considered.
type Sweeper struct {
	dir       string
	retention time.Duration
	logger    *slog.Logger
	cron      *cron.Cron
	now       func() time.Time
}

// NewSweeper creates a stopped sweeper for dir. An empty schedule uses
// DefaultSweepSchedule.
func NewSweeper(dir string, retention time.Duration, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("%w: %v (must be positive)", ErrInvalidRetention, retention)
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if dir == "" {
		dir = DefaultWorkDir()
	}
	if logger == nil {
		logger = discardLogger()
	}

	s := &Sweeper{
		dir:       dir,
		retention: retention,
		logger:    logger,
		cron:      cron.New(),
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, schedule, err)
	}
	return s, nil
}

// Start begins running sweeps in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	removed, err := s.Sweep()
	if err != nil {
		s.logger.Warn("artifact sweep failed", "dir", s.dir, "error", err)
	}
	if removed > 0 {
		s.logger.Info("artifact sweep", "dir", s.dir, "removed", removed)
	}
}

// Sweep removes expired request directories once and returns how many were
// deleted. A missing artifact directory is not an error.
func (s *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.retention)
	removed := 0
	var errs []error

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		created, ok := artifactTime(entry.Name())
		if !ok || !created.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// artifactTime parses the creation time out of a request directory name.
func artifactTime(name string) (time.Time, bool) {
	stamp, _, found := strings.Cut(name, "_")
	if !found {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(artifactStampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
