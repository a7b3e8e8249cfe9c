package replay

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/churn/internal/adapters/dataset"
	"github.com/okian/churn/pkg/logger"
)

// batch is a contiguous slice of the dataset posted as one request.
type batch struct {
	index int
	data  dataset.Dataset
}

// batchResult is what one request produced.
type batchResult struct {
	labels           []int
	validationErrors int
	err              error
}

// splitBatches cuts ds into consecutive batches of at most size rows.
func splitBatches(ds dataset.Dataset, size int) []batch {
	if size <= 0 {
		size = ds.Len()
	}
	var out []batch
	for from := 0; from < ds.Len(); from += size {
		to := min(from+size, ds.Len())
		out = append(out, batch{index: len(out), data: ds.Slice(from, to)})
	}
	return out
}

// submitBatches posts batches concurrently using a worker pool. Results are
// returned in batch order.
func submitBatches(ctx context.Context, config *Config, batches []batch, stats *Stats) []batchResult {
	log := logger.Get()
	log.Info(ctx, "submitting batches",
		logger.Int("batches", len(batches)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + config.APIPrefix + "/predict"
	results := make([]batchResult, len(batches))

	var (
		submitted  int64
		successful int64
		failed     int64
		lastReport atomic.Int64
	)

	batchChan := make(chan batch, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range batchChan {
				if ctx.Err() != nil {
					results[b.index] = batchResult{err: ctx.Err()}
					continue
				}
				res := submitSingleBatch(ctx, client, url, b)
				results[b.index] = res

				atomic.AddInt64(&submitted, 1)
				if res.err != nil {
					atomic.AddInt64(&failed, 1)
					log.Warn(ctx, "batch failed", logger.Int("batch", b.index), logger.Error(res.err))
				} else {
					atomic.AddInt64(&successful, 1)
				}
				if config.Verbose {
					log.Debug(ctx, "batch done",
						logger.Int("batch", b.index),
						logger.Int("rows", b.data.Len()),
						logger.Int("validationErrors", res.validationErrors))
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(ProgressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Int("submitted", int(atomic.LoadInt64(&submitted))),
						logger.Int("total", len(batches)),
						logger.Int("successful", int(atomic.LoadInt64(&successful))),
						logger.Int("failed", int(atomic.LoadInt64(&failed))))
				}
			}
		}()
	}

	go func() {
		defer close(batchChan)
		for _, b := range batches {
			select {
			case <-ctx.Done():
				return
			case batchChan <- b:
			}
		}
	}()

	wg.Wait()

	stats.BatchesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.BatchesSuccessful = int(atomic.LoadInt64(&successful))
	stats.BatchesFailed = int(atomic.LoadInt64(&failed))
	return results
}

// submitSingleBatch posts one batch and checks the label count.
func submitSingleBatch(ctx context.Context, client *HTTPClient, url string, b batch) batchResult {
	req := PredictRequest{Inputs: b.data.Table.Records}
	var resp PredictResponse
	if err := client.Post(ctx, url, req, &resp); err != nil {
		return batchResult{err: err}
	}
	if len(resp.Labels) != b.data.Len() {
		return batchResult{err: &LabelCountError{Got: len(resp.Labels), Want: b.data.Len()}}
	}
	return batchResult{labels: resp.Labels, validationErrors: len(resp.Errors)}
}
