package tasks

import (
	"context"
	"log/slog"
	"sync"
)

// Pool executes a batch of tasks on a fixed number of workers.
type Pool struct {
	workerCount int
}

func NewPool(workerCount int) *Pool {
	return &Pool{workerCount: max(workerCount, 1)}
}

// Run executes every task and waits for all of them. The returned slice
// holds the error of each task at the task's index.
func (p *Pool) Run(ctx context.Context, tasks []TaskInterface) []error {
	errs := make([]error, len(tasks))
	if len(tasks) == 0 {
		return errs
	}

	taskQueue := make(chan int, len(tasks))
	for i := range tasks {
		taskQueue <- i
	}
	close(taskQueue)

	var wg sync.WaitGroup
	for id := range min(p.workerCount, len(tasks)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, id, tasks, taskQueue, errs)
		}()
	}
	wg.Wait()

	return errs
}

func (p *Pool) worker(ctx context.Context, workerID int, tasks []TaskInterface, taskQueue <-chan int, errs []error) {
	for i := range taskQueue {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}

		errs[i] = p.executeTask(ctx, workerID, tasks[i])
	}
}

func (p *Pool) executeTask(ctx context.Context, workerID int, task TaskInterface) error {
	task.Start()

	err := task.Execute(ctx)
	if err != nil {
		slog.Warn("Worker task execution failed",
			"worker_id", workerID,
			"type", string(task.GetType()),
			"feed", task.GetFeedName(),
			"id", task.GetID(),
			"duration", task.GetDuration(),
			"error", err)
	}

	return err
}
