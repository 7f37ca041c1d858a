package storage

import (
	"context"
	"fmt"
	"time"

	"salesmart/internal/logging"
)

// CopyFn abstracts a backend's bulk insert capability for one table.
// Implementations insert rows (aligned to columns) and return the number of
// rows reported as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the total reported by
// copyFn, the number of batches flushed and the first error encountered.
//
// It returns ctx.Err() when canceled.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (total, batches int64, err error) {
	if batchSize <= 0 {
		return 0, 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		batch = make([][]any, 0, batchSize)
		start = time.Now()
		log   = logging.Ctx(ctx)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Error().Err(err).Int64("inserted", n).Int64("total", total).Msg("loader: copy failed")
			return err
		}
		batches++
		log.Debug().
			Int64("batch", batches).
			Int64("inserted", n).
			Int64("total", total).
			Dur("elapsed", time.Since(start)).
			Msg("loader: batch flushed")
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, batches, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, batches, err
				}
				return total, batches, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, batches, err
				}
			}
		}
	}
}

// LoadTable streams rows into table through repo in batches. A batchSize <= 0
// loads everything in one batch.
func LoadTable(ctx context.Context, repo Repository, table string, columns []string, rows [][]any, batchSize int) (int64, int64, error) {
	if batchSize <= 0 {
		batchSize = len(rows)
	}
	if batchSize == 0 {
		return 0, 0, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan []any, batchSize)
	go func() {
		defer close(in)
		for _, r := range rows {
			select {
			case in <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	return LoadBatches(ctx, columns, in, batchSize, func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
		return repo.CopyFrom(ctx, table, cols, batch)
	})
}
