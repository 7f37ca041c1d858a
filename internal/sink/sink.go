// Package sink persists the outcome of a pipeline run. Each Sink writes the
// whole mart; WriteAll runs the configured sinks concurrently and fails if
// any of them fails.
package sink

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"salesmart/internal/logging"
	"salesmart/internal/metrics"
	"salesmart/internal/pipeline"
)

// Sink writes a run result somewhere.
type Sink interface {
	Name() string
	Write(ctx context.Context, res *pipeline.Result) error
}

// WriteAll writes res to every sink. Sinks share nothing, so they run in
// parallel; the first failure cancels the others' context.
func WriteAll(ctx context.Context, res *pipeline.Result, sinks ...Sink) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sinks {
		s := s
		g.Go(func() error {
			stage := "sink:" + s.Name()
			start := time.Now()
			err := s.Write(gctx, res)
			d := time.Since(start)
			metrics.RecordStage(res.Job, stage, err, d)

			log := logging.Ctx(ctx)
			if err != nil {
				log.Error().Err(err).Str("stage", stage).Dur("duration", d).Msg("sink failed")
				return fmt.Errorf("sink %s: %w", s.Name(), err)
			}
			log.Info().Str("stage", stage).Dur("duration", d).Msg("sink done")
			return nil
		})
	}
	return g.Wait()
}
