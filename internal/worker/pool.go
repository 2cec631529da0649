// Package worker renders stage frames in parallel.
package worker

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MeKo-Tech/blockstage/internal/stage"
)

// FrameRenderer renders one frame and reports where it ended up, a file
// path or a frame store key.
type FrameRenderer interface {
	RenderFrame(ctx context.Context, task Task) (string, error)
}

// FrameRendererFunc adapts a function to FrameRenderer.
type FrameRendererFunc func(ctx context.Context, task Task) (string, error)

// RenderFrame calls f.
func (f FrameRendererFunc) RenderFrame(ctx context.Context, task Task) (string, error) {
	return f(ctx, task)
}

// Task is one frame of a run.
type Task struct {
	Stage *stage.Stage
	Run   string
	Seq   int
}

// Result represents the outcome of a render task.
type Result struct {
	Task    Task
	Path    string
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Renderer   FrameRenderer
	OnProgress ProgressFunc
}

// Pool manages parallel frame rendering.
type Pool struct {
	workers    int
	renderer   FrameRenderer
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		renderer:   cfg.Renderer,
		onProgress: cfg.OnProgress,
	}
}

// Tasks turns the stage snapshots of one run into tasks numbered from 0.
func Tasks(run string, frames []*stage.Stage) []Task {
	tasks := make([]Task, len(frames))
	for i, st := range frames {
		tasks[i] = Task{Run: run, Seq: i, Stage: st}
	}
	return tasks
}

// Run executes all tasks and returns their results ordered by run and
// sequence. It blocks until all tasks complete or the context is cancelled;
// tasks not started before cancellation are reported with the context error.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	// The queue holds every task up front, so workers drain it and exit.
	taskCh := make(chan Task, len(tasks))
	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for range min(p.workers, len(tasks)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		var completed, failed int
		for result := range resultCh {
			results = append(results, result)

			completed++
			if result.Err != nil {
				failed++
			}
			if p.onProgress != nil {
				p.onProgress(completed, len(tasks), failed)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	slices.SortFunc(results, func(a, b Result) int {
		if c := cmp.Compare(a.Task.Run, b.Task.Run); c != 0 {
			return c
		}
		return cmp.Compare(a.Task.Seq, b.Task.Seq)
	})
	return results
}

func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		if err := ctx.Err(); err != nil {
			results <- Result{Task: task, Err: err}
			continue
		}

		start := time.Now()
		path, err := p.renderer.RenderFrame(ctx, task)
		results <- Result{
			Task:    task,
			Path:    path,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}
