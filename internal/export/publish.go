package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"queue-hires/internal/concurrency"
)

// Sink is one destination for the run report.
type Sink interface {
	Name() string
	Put(ctx context.Context, name string, data []byte) error
}

// DirSink writes reports into a local directory.
type DirSink struct {
	Dir string
}

func (d DirSink) Name() string { return "dir" }

func (d DirSink) Put(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("export: mkdir %s: %w", d.Dir, err)
	}
	path := filepath.Join(d.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// Publish hands the report to every sink concurrently. One failing sink
// does not stop the others.
func Publish(ctx context.Context, sinks []Sink, name string, data []byte) error {
	errs := concurrency.ForEach(ctx, sinks, concurrency.ParallelOptions{MaxWorkers: len(sinks)},
		func(ctx context.Context, _ int, s Sink) error {
			if err := s.Put(ctx, name, data); err != nil {
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
			return nil
		})
	return errors.Join(errs...)
}
