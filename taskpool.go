package parallel

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"
)

// Executor is the parallel execution facility the engine dispatches chunk
// tasks to: a worker pool with a bounded number of concurrently active tasks.
// Callers may supply their own implementation; the engine otherwise builds one
// on NewExecutor. Release stops the pool once no more tasks will be submitted;
// tasks already running are allowed to finish.
type Executor interface {
	Submit(ctx context.Context, task func() (interface{}, error)) Future
	Release()
}

// Future get result in future
type Future interface {
	Get() (interface{}, error)
}

type futureImpl struct {
	ch <-chan interface{}
}

func (f *futureImpl) Get() (interface{}, error) {
	result := <-f.ch
	err := <-f.ch
	if err == nil {
		return result, nil
	}
	if e, ok := err.(error); ok {
		return result, e
	}
	return result, fmt.Errorf("future get err:%v", err)
}

type antsExecutor struct {
	pool *ants.Pool
}

// NewExecutor builds an Executor running at most size tasks concurrently.
func NewExecutor(size int) Executor {
	pool, _ := ants.NewPool(size)
	return &antsExecutor{pool: pool}
}

func (e *antsExecutor) Submit(ctx context.Context, task func() (interface{}, error)) Future {
	result := make(chan interface{}, 2)
	err := e.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				result <- nil
				result <- fmt.Errorf("task panic:%v", r)
				close(result)
			}
		}()
		val, err := task()
		result <- val
		result <- err
		close(result)
	})
	if err != nil {
		result <- nil
		result <- err
		close(result)
	}
	return &futureImpl{ch: result}
}

func (e *antsExecutor) Release() {
	e.pool.Release()
}
