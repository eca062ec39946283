package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// MockTask records its execution and tracks how many tasks run at once.
type MockTask struct {
	Task
	err     error
	delay   time.Duration
	running *atomic.Int32
	peak    *atomic.Int32

	mu       sync.Mutex
	executed bool
}

func NewMockTask(name string, err error, delay time.Duration, running, peak *atomic.Int32) *MockTask {
	return &MockTask{
		Task:    NewTask(TaskTypeFetchFeed, name),
		err:     err,
		delay:   delay,
		running: running,
		peak:    peak,
	}
}

func (m *MockTask) Execute(ctx context.Context) error {
	now := m.running.Add(1)
	defer m.running.Add(-1)

	for {
		peak := m.peak.Load()
		if now <= peak || m.peak.CompareAndSwap(peak, now) {
			break
		}
	}

	time.Sleep(m.delay)

	m.mu.Lock()
	m.executed = true
	m.mu.Unlock()

	return m.err
}

func TestPoolRunsEveryTask(t *testing.T) {
	var running, peak atomic.Int32
	failure := errors.New("boom")

	mocks := []*MockTask{
		NewMockTask("a", nil, 20*time.Millisecond, &running, &peak),
		NewMockTask("b", failure, 20*time.Millisecond, &running, &peak),
		NewMockTask("c", nil, 20*time.Millisecond, &running, &peak),
		NewMockTask("d", nil, 20*time.Millisecond, &running, &peak),
		NewMockTask("e", nil, 20*time.Millisecond, &running, &peak),
	}
	tasks := make([]TaskInterface, len(mocks))
	for i, m := range mocks {
		tasks[i] = m
	}

	errs := NewPool(2).Run(context.Background(), tasks)

	if len(errs) != len(tasks) {
		t.Fatalf("Expected %d results, got %d", len(tasks), len(errs))
	}
	for i, m := range mocks {
		if !m.executed {
			t.Errorf("Task %s was not executed", m.FeedName)
		}
		if m.StartedAt == nil {
			t.Errorf("Task %s was not started", m.FeedName)
		}
		if (i == 1) != (errs[i] != nil) {
			t.Errorf("Unexpected error for task %s: %v", m.FeedName, errs[i])
		}
	}
	if !errors.Is(errs[1], failure) {
		t.Errorf("Expected task error to be returned, got %v", errs[1])
	}
	if peak.Load() > 2 {
		t.Errorf("Expected at most 2 concurrent tasks, got %d", peak.Load())
	}
}

func TestPoolCancelledContext(t *testing.T) {
	var running, peak atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := NewMockTask("a", nil, 0, &running, &peak)
	errs := NewPool(4).Run(ctx, []TaskInterface{task})

	if !errors.Is(errs[0], context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", errs[0])
	}
	if task.executed {
		t.Error("Expected task not to run after cancellation")
	}
}

func TestPoolEmpty(t *testing.T) {
	if errs := NewPool(0).Run(context.Background(), nil); len(errs) != 0 {
		t.Errorf("Expected no results, got %d", len(errs))
	}
}

func TestNewTaskIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		task := NewTask(TaskTypeFetchFeed, "feed")
		if seen[task.ID] {
			t.Fatalf("Duplicate task ID: %s", task.ID)
		}
		seen[task.ID] = true
	}

	task := NewTask(TaskTypeFetchFeed, "feed")
	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}
	task.Start()
	if task.GetType() != TaskTypeFetchFeed || task.GetFeedName() != "feed" || task.GetID() == "" {
		t.Errorf("Unexpected task: %+v", task)
	}
}
