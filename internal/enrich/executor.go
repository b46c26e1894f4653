package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Mode selects how enrichment tasks are scheduled.
type Mode string

const (
	// ModeThreads starts one goroutine per task, at most Workers at a time.
	ModeThreads Mode = "threads"
	// ModeProcesses runs a fixed pool of Workers long-lived workers fed from a queue.
	ModeProcesses Mode = "processes"
	// ModeSequential runs tasks one after another.
	ModeSequential Mode = "sequential"
)

// ParseMode maps a mode name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(name))); m {
	case ModeThreads, ModeProcesses, ModeSequential:
		return m, nil
	case "":
		return ModeThreads, nil
	default:
		return "", fmt.Errorf("unknown enrich mode %q (want threads, processes or sequential)", name)
	}
}

// Task is one unit of work.
type Task func(ctx context.Context) error

// Executor runs tasks and reports each outcome through done. done is never
// called concurrently and is called exactly once per task, including tasks
// that never started because ctx was canceled. A panicking task is reported
// as an error.
type Executor interface {
	Execute(ctx context.Context, tasks []Task, done func(i int, err error))
	Mode() Mode
}

// NewExecutor builds the executor for mode with the given worker bound.
func NewExecutor(mode Mode, workers int) (Executor, error) {
	if workers < 1 {
		workers = 1
	}
	switch mode {
	case ModeThreads, "":
		return &threadExecutor{workers: workers}, nil
	case ModeProcesses:
		return &poolExecutor{workers: workers}, nil
	case ModeSequential:
		return sequentialExecutor{}, nil
	default:
		return nil, fmt.Errorf("unknown enrich mode %q", mode)
	}
}

// reporter serializes done callbacks.
type reporter struct {
	mu   sync.Mutex
	done func(int, error)
}

func (r *reporter) report(i int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done(i, err)
}

// safeRun runs task, converting a panic into an error.
func safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(ctx)
}

type threadExecutor struct {
	workers int
}

func (e *threadExecutor) Mode() Mode { return ModeThreads }

func (e *threadExecutor) Execute(ctx context.Context, tasks []Task, done func(int, error)) {
	rep := &reporter{done: done}
	var g errgroup.Group
	g.SetLimit(e.workers)

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			rep.report(i, err)
			continue
		}
		g.Go(func() error {
			rep.report(i, safeRun(ctx, task))
			return nil // individual failures never cancel siblings
		})
	}
	_ = g.Wait()
}

type poolExecutor struct {
	workers int
}

func (e *poolExecutor) Mode() Mode { return ModeProcesses }

func (e *poolExecutor) Execute(ctx context.Context, tasks []Task, done func(int, error)) {
	rep := &reporter{done: done}
	queue := make(chan int)

	var wg sync.WaitGroup
	for range min(e.workers, len(tasks)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				if err := ctx.Err(); err != nil {
					rep.report(i, err)
					continue
				}
				rep.report(i, safeRun(ctx, tasks[i]))
			}
		}()
	}

	for i := range tasks {
		queue <- i
	}
	close(queue)
	wg.Wait()
}

type sequentialExecutor struct{}

func (sequentialExecutor) Mode() Mode { return ModeSequential }

func (sequentialExecutor) Execute(ctx context.Context, tasks []Task, done func(int, error)) {
	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			done(i, err)
			continue
		}
		done(i, safeRun(ctx, task))
	}
}
