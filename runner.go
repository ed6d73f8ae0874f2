package parallel

import (
	"context"
	"sync"
	"time"
)

// WorkFn is the work function applied exactly once to each chunk. It receives
// the chunk's items plus the shared arguments common to every chunk and
// returns a partial accumulator in the AccumDict algebra (or any value a
// custom aggregation function understands). The engine's determinism
// guarantee requires it to be a pure function of its inputs; this is a caller
// contract, not enforced here.
type WorkFn func(items []interface{}, shared ...interface{}) (interface{}, error)

// taskResult carries one chunk's outcome back to the driver.
type taskResult struct {
	chunk Chunk
	value interface{}
	err   error
}

type taskRunner struct {
	executor Executor
}

// runSequential executes chunks in identifier order on the calling goroutine,
// handing each partial to handle as it is produced. The first work-function
// error aborts immediately, before any later chunk runs.
func (r *taskRunner) runSequential(ctx context.Context, workFn WorkFn, chunks []Chunk, shared []interface{}, handle func(taskResult) EngineError) EngineError {
	for _, chunk := range chunks {
		start := time.Now()
		value, err := workFn(chunk.Items, shared...)
		logger.Debug(ctx, "chunk %d (%d items, weight %v) finished in %v", chunk.Index, len(chunk.Items), chunk.Weight, time.Since(start))
		if err != nil {
			return NewEngineError(ErrCodeWorker, "chunk %d execution failed", chunk.Index, err)
		}
		if e := handle(taskResult{chunk: chunk, value: value}); e != nil {
			return e
		}
	}
	return nil
}

// runParallel submits one task per chunk to the executor and streams results
// in completion order. The result channel is buffered to the chunk count, so
// tasks finishing after the driver has stopped reading never block or leak;
// it is closed once every task has reported.
func (r *taskRunner) runParallel(ctx context.Context, workFn WorkFn, chunks []Chunk, shared []interface{}) <-chan taskResult {
	results := make(chan taskResult, len(chunks))
	go func() {
		var wg sync.WaitGroup
		for _, chunk := range chunks {
			chunk := chunk
			fu := r.executor.Submit(ctx, func() (interface{}, error) {
				start := time.Now()
				value, err := workFn(chunk.Items, shared...)
				logger.Debug(ctx, "chunk %d (%d items, weight %v) finished in %v", chunk.Index, len(chunk.Items), chunk.Weight, time.Since(start))
				return value, err
			})
			wg.Add(1)
			go func() {
				defer wg.Done()
				value, err := fu.Get()
				results <- taskResult{chunk: chunk, value: value, err: err}
			}()
		}
		wg.Wait()
		close(results)
	}()
	return results
}
