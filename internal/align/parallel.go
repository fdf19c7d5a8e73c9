package align

import (
	"context"
	"runtime"
	"sync"
)

// workItem holds one chunk of reads ready for alignment.
type workItem struct {
	Seq   int
	Reads []Read
}

// workResult holds the alignment output for a single chunk.
type workResult struct {
	Seq   int
	Hits  []Hit
	Stats Stats
	Err   error
}

// parallelAlign aligns chunks using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use orderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (p *Pipeline) parallelAlign(ctx context.Context, items <-chan workItem, workers int) <-chan workResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan workResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				hits, stats, err := p.alignChunk(ctx, item.Reads)
				results <- workResult{
					Seq:   item.Seq,
					Hits:  hits,
					Stats: stats,
					Err:   err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// orderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func orderedCollect(results <-chan workResult, fn func(workResult) error) error {
	pending := make(map[int]workResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
