package parallel

import (
	"context"
	"fmt"

	"github.com/CatalinaYepes/oq-risklib/status"
)

// AggFn folds one partial result into the running accumulator. The default is
// MergeValue; a custom AggFn takes over the commutativity contract, since the
// driver folds partials in completion order.
type AggFn func(acc, partial interface{}) (interface{}, error)

// Reduction composes partitioning, dispatch and commutative reduction over one
// input sequence. Build it with NewReduction plus the With* modifiers, then
// call Run once; a Reduction is single-use and not safe for concurrent use.
type Reduction struct {
	workFn      WorkFn
	items       []interface{}
	acc         interface{}
	weightFn    WeightFn
	keyFn       KeyFn
	aggFn       AggFn
	concurrency int
	numChunks   int
	executor    Executor
	shared      []interface{}
	state       status.ReduceStatus
}

// NewReduction binds a work function to an input sequence.
func NewReduction(workFn WorkFn, items []interface{}) *Reduction {
	return &Reduction{workFn: workFn, items: items, state: status.INIT}
}

// WithAcc sets the initial accumulator; it is returned unchanged when the
// input is empty. Default is nil, the merge identity.
func (r *Reduction) WithAcc(acc interface{}) *Reduction {
	r.acc = acc
	return r
}

// WithWeightFn sets the per-item cost estimate used for load balancing.
func (r *Reduction) WithWeightFn(weightFn WeightFn) *Reduction {
	r.weightFn = weightFn
	return r
}

// WithKeyFn constrains chunks to never mix items with different keys.
func (r *Reduction) WithKeyFn(keyFn KeyFn) *Reduction {
	r.keyFn = keyFn
	return r
}

// WithAggFn replaces the default MergeValue fold.
func (r *Reduction) WithAggFn(aggFn AggFn) *Reduction {
	r.aggFn = aggFn
	return r
}

// WithConcurrency sets the concurrency budget: at most n tasks active at once.
// n <= 1 runs every chunk sequentially on the calling goroutine.
func (r *Reduction) WithConcurrency(n int) *Reduction {
	r.concurrency = n
	return r
}

// WithNumChunks overrides the chunk count, which otherwise defaults to the
// concurrency budget.
func (r *Reduction) WithNumChunks(n int) *Reduction {
	r.numChunks = n
	return r
}

// WithExecutor injects a caller-owned worker pool. The driver never releases
// an injected executor; without one it builds a budget-sized pool per run.
func (r *Reduction) WithExecutor(executor Executor) *Reduction {
	r.executor = executor
	return r
}

// WithShared sets extra arguments passed identically to every chunk's
// work-function invocation.
func (r *Reduction) WithShared(shared ...interface{}) *Reduction {
	r.shared = shared
	return r
}

// Status reports the current state of the reduction.
func (r *Reduction) Status() status.ReduceStatus {
	return r.state
}

func (r *Reduction) enter(next status.ReduceStatus) {
	if !r.state.CanTransitionTo(next) {
		panic(fmt.Sprintf("illegal reduction transition %v -> %v", r.state, next))
	}
	r.state = next
}

func (r *Reduction) agg() AggFn {
	if r.aggFn != nil {
		return r.aggFn
	}
	return func(acc, partial interface{}) (interface{}, error) {
		return MergeValue(acc, partial)
	}
}

// Run partitions the input, dispatches one task per chunk and folds every
// partial result into the accumulator as it arrives, in any completion order.
// The first failure short-circuits: no further results are awaited, no partial
// accumulation is returned and the failure surfaces wrapped as an EngineError.
func (r *Reduction) Run(ctx context.Context) (interface{}, EngineError) {
	r.enter(status.CHUNKING)
	numChunks := r.numChunks
	if numChunks <= 0 {
		numChunks = r.concurrency
	}
	if numChunks <= 0 {
		numChunks = 1
	}
	chunks, err := SplitByKey(r.items, numChunks, r.weightFn, r.keyFn)
	if err != nil {
		r.enter(status.FAILED)
		return nil, err
	}
	if len(chunks) == 0 {
		r.enter(status.DONE)
		return r.acc, nil
	}
	logger.Info(ctx, "input of %d items split into %d chunks, concurrency:%d", len(r.items), len(chunks), r.concurrency)
	r.enter(status.DISPATCHED)

	acc := r.acc
	aggFn := r.agg()
	merged := 0
	fold := func(res taskResult) EngineError {
		if r.state != status.REDUCING {
			r.enter(status.REDUCING)
		}
		next, aggErr := aggFn(acc, res.value)
		if aggErr != nil {
			if ee, ok := asEngineError(aggErr); ok {
				return ee
			}
			return NewEngineError(ErrCodeGeneral, "aggregation of chunk %d failed", res.chunk.Index, aggErr)
		}
		acc = next
		merged++
		logger.Info(ctx, "reduced %d/%d chunks (%3d%%)", merged, len(chunks), 100*merged/len(chunks))
		return nil
	}

	if r.concurrency <= 1 {
		runner := &taskRunner{}
		if e := runner.runSequential(ctx, r.workFn, chunks, r.shared, fold); e != nil {
			return nil, r.fail(ctx, e)
		}
		r.enter(status.DONE)
		return acc, nil
	}

	executor := r.executor
	if executor == nil {
		executor = NewExecutor(r.concurrency)
		defer executor.Release()
	}
	runner := &taskRunner{executor: executor}
	for res := range runner.runParallel(ctx, r.workFn, chunks, r.shared) {
		if res.err != nil {
			e := NewEngineError(ErrCodeWorker, "chunk %d execution failed", res.chunk.Index, res.err)
			return nil, r.fail(ctx, e)
		}
		if e := fold(res); e != nil {
			return nil, r.fail(ctx, e)
		}
	}
	r.enter(status.DONE)
	return acc, nil
}

func (r *Reduction) fail(ctx context.Context, e EngineError) EngineError {
	logger.Error(ctx, "reduction failed, state:%v, err:%v", r.state, e)
	r.enter(status.FAILED)
	return e
}

// ApplyReduce is the one-call entry point: it applies workFn to weighted
// chunks of items, at most concurrency at a time (sequentially when
// concurrency <= 1), and merges the partial results into acc.
func ApplyReduce(ctx context.Context, workFn WorkFn, items []interface{}, acc interface{}, weightFn WeightFn, concurrency int, shared ...interface{}) (interface{}, EngineError) {
	return NewReduction(workFn, items).
		WithAcc(acc).
		WithWeightFn(weightFn).
		WithConcurrency(concurrency).
		WithShared(shared...).
		Run(ctx)
}
