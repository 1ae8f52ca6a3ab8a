// Generic, batched loader: drains rows from a channel and invokes the
// repository's bulk append per batch, logging concise progress lines with
// running totals and instantaneous rows/sec.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"songlake/internal/schema"
)

// LoadBatches drains rows aligned to t.ColumnNames() from 'in', groups them
// into batches of batchSize, and calls repo.CopyFrom for each non-empty
// batch. It returns the total number of rows reported written and the first
// error encountered. A failed flush aborts immediately; the run is
// all-or-nothing per dataset, so there is no partial-batch recovery.
//
// Cancellation: returns (total, ctx.Err()) when ctx is done.
func LoadBatches(
	ctx context.Context,
	repo Repository,
	t schema.Table,
	in <-chan []any,
	batchSize int,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := repo.CopyFrom(ctx, t, batch)
		total += n
		batch = batch[:0]

		if err != nil {
			log.Printf("loader: %s: copy failed after=%d total=%d err=%v", t.Name, n, total, err)
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		log.Printf(
			"%s batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
			t.Name, batches, rps, n, total, now.Sub(start).Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				// Channel closed: flush the remainder.
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
