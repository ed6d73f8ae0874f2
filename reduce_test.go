package parallel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CatalinaYepes/oq-risklib/status"
)

func TestApplyReduceSum(t *testing.T) {
	ctx := context.Background()
	items := intItems(10)
	for _, chunks := range []int{1, 2, 3, 5, 10} {
		for _, concurrency := range []int{0, 1, 4} {
			acc, err := NewReduction(sumWork, items).
				WithConcurrency(concurrency).
				WithNumChunks(chunks).
				Run(ctx)
			require.Nil(t, err, "chunks=%d concurrency=%d", chunks, concurrency)
			require.Equal(t, AccumDict{"total": 55}, acc, "chunks=%d concurrency=%d", chunks, concurrency)
		}
	}
}

func TestApplyReduceEmptyInput(t *testing.T) {
	seed := AccumDict{"seed": 1}
	r := NewReduction(sumWork, nil).WithAcc(seed).WithConcurrency(5)
	acc, err := r.Run(context.Background())
	require.Nil(t, err)
	require.Equal(t, seed, acc)
	require.Equal(t, status.DONE, r.Status())
}

func TestApplyReduceWorkerFailure(t *testing.T) {
	boom := errors.New("boom")
	failing := func(items []interface{}, shared ...interface{}) (interface{}, error) {
		if items[0].(int) == 5 { // third of five chunks
			return nil, boom
		}
		return sumWork(items)
	}
	for _, concurrency := range []int{1, 2} {
		r := NewReduction(failing, intItems(10)).
			WithConcurrency(concurrency).
			WithNumChunks(5)
		acc, err := r.Run(context.Background())
		require.Nil(t, acc, "concurrency=%d", concurrency)
		require.NotNil(t, err, "concurrency=%d", concurrency)
		require.Equal(t, ErrCodeWorker, err.Code())
		require.Equal(t, boom, err.Cause())
		require.Equal(t, status.FAILED, r.Status())
	}
}

func TestApplyReduceDeterminism(t *testing.T) {
	ctx := context.Background()
	items := intItems(50)
	weight := func(item interface{}) float64 { return float64(item.(int) % 7) }
	work := func(chunk []interface{}, shared ...interface{}) (interface{}, error) {
		acc := AccumDict{}
		for _, item := range chunk {
			n := item.(int)
			key := n % 3
			cur := acc.Get(key, []float64{0, 0}).([]float64)
			acc[key] = []float64{cur[0] + float64(n), cur[1] + 1}
		}
		return acc, nil
	}

	sequential, err := NewReduction(work, items).
		WithWeightFn(weight).
		WithConcurrency(1).
		WithNumChunks(7).
		Run(ctx)
	require.Nil(t, err)

	for i := 0; i < 5; i++ {
		parallel, err := NewReduction(work, items).
			WithWeightFn(weight).
			WithConcurrency(8).
			WithNumChunks(7).
			Run(ctx)
		require.Nil(t, err)
		require.Equal(t, sequential, parallel)
	}
}

func TestApplyReduceBareAccumulator(t *testing.T) {
	count := func(items []interface{}, shared ...interface{}) (interface{}, error) {
		return len(items), nil
	}
	acc, err := ApplyReduce(context.Background(), count, intItems(10), nil, nil, 4)
	require.Nil(t, err)
	require.Equal(t, 10, acc)
}

func TestApplyReduceSharedArgs(t *testing.T) {
	scale := func(items []interface{}, shared ...interface{}) (interface{}, error) {
		factor := shared[0].(int)
		total := 0
		for _, item := range items {
			total += item.(int) * factor
		}
		return total, nil
	}
	acc, err := ApplyReduce(context.Background(), scale, intItems(10), nil, nil, 3, 2)
	require.Nil(t, err)
	require.Equal(t, 110, acc)
}

func TestApplyReduceInvalidWeight(t *testing.T) {
	called := false
	work := func(items []interface{}, shared ...interface{}) (interface{}, error) {
		called = true
		return nil, nil
	}
	r := NewReduction(work, intItems(4)).
		WithWeightFn(func(interface{}) float64 { return -1 }).
		WithConcurrency(2)
	acc, err := r.Run(context.Background())
	require.Nil(t, acc)
	require.NotNil(t, err)
	require.Equal(t, ErrCodeInvalidWeight, err.Code())
	require.Equal(t, status.FAILED, r.Status())
	require.False(t, called)
}

func TestReductionCustomAgg(t *testing.T) {
	count := func(items []interface{}, shared ...interface{}) (interface{}, error) {
		return float64(len(items)), nil
	}
	agg := func(acc, partial interface{}) (interface{}, error) {
		if acc == nil {
			acc = 0.0
		}
		return acc.(float64) + partial.(float64), nil
	}
	acc, err := NewReduction(count, intItems(9)).
		WithAggFn(agg).
		WithConcurrency(3).
		Run(context.Background())
	require.Nil(t, err)
	require.Equal(t, 9.0, acc)
}

func TestReductionCustomAggFailure(t *testing.T) {
	count := func(items []interface{}, shared ...interface{}) (interface{}, error) {
		return len(items), nil
	}
	agg := func(acc, partial interface{}) (interface{}, error) {
		return nil, errors.New("agg broke")
	}
	r := NewReduction(count, intItems(4)).WithAggFn(agg).WithConcurrency(1)
	acc, err := r.Run(context.Background())
	require.Nil(t, acc)
	require.NotNil(t, err)
	require.Equal(t, ErrCodeGeneral, err.Code())
	require.Equal(t, status.FAILED, r.Status())
}

func TestReductionKeyFn(t *testing.T) {
	items := []interface{}{"a1", "a2", "a3", "b1", "b2", "c1"}
	key := func(item interface{}) interface{} { return item.(string)[:1] }
	work := func(chunk []interface{}, shared ...interface{}) (interface{}, error) {
		k := key(chunk[0])
		for _, item := range chunk {
			if key(item) != k {
				return nil, errors.New("chunk mixes keys")
			}
		}
		return AccumDict{k: len(chunk)}, nil
	}
	acc, err := NewReduction(work, items).
		WithKeyFn(key).
		WithConcurrency(3).
		Run(context.Background())
	require.Nil(t, err)
	require.Equal(t, AccumDict{"a": 3, "b": 2, "c": 1}, acc)
}

func TestReductionStatusLifecycle(t *testing.T) {
	r := NewReduction(sumWork, intItems(4)).WithConcurrency(2)
	require.Equal(t, status.INIT, r.Status())
	_, err := r.Run(context.Background())
	require.Nil(t, err)
	require.Equal(t, status.DONE, r.Status())

	// a Reduction is single-use
	require.Panics(t, func() { r.Run(context.Background()) })
}

func TestReductionInjectedExecutor(t *testing.T) {
	executor := NewExecutor(4)
	defer executor.Release()
	for i := 0; i < 3; i++ {
		acc, err := NewReduction(sumWork, intItems(10)).
			WithConcurrency(4).
			WithExecutor(executor).
			Run(context.Background())
		require.Nil(t, err)
		require.Equal(t, AccumDict{"total": 55}, acc)
	}
}
