package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/metrics"
)

// Sweeper deletes artifacts from the output directory once they grow older
// than the configured maximum age. Age is computed from the last-modified
// timestamp, so a file still being written keeps a fresh mtime and is never
// swept mid-creation.
type Sweeper struct {
	dir    string
	maxAge time.Duration
	clock  clock.Clock
	logger *slog.Logger
}

// NewSweeper builds a sweeper over dir; clk may be nil for the wall clock.
func NewSweeper(dir string, maxAge time.Duration, clk clock.Clock, log *slog.Logger) *Sweeper {
	if clk == nil {
		clk = clock.New()
	}
	return &Sweeper{dir: dir, maxAge: maxAge, clock: clk, logger: log}
}

// Sweep removes every regular file older than the maximum age and returns
// the number deleted. Per-file failures are logged and skipped; one
// unsweepable file must not block cleanup of the rest. Only directory
// enumeration failure is reported as an error.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: list %s: %w", domain.ErrRetention, s.dir, err)
	}

	cutoff := s.clock.Now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.warn("stat artifact failed", "path", path, "error", err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			s.warn("delete artifact failed", "path", path, "error", err)
			continue
		}
		metrics.ArtifactsDeletedTotal.Inc()
		removed++
	}

	if removed > 0 {
		s.info("retention sweep removed artifacts", "count", removed, "max_age", s.maxAge)
	}
	return removed, nil
}

func (s *Sweeper) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Sweeper) info(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
