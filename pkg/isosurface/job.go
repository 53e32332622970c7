package isosurface

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"plotmodel/internal/logging"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/owner"
	"plotmodel/pkg/reduction"
	"plotmodel/pkg/trace"
)

var log = logging.For("isosurface")

// Job generates surfaces in the background and shows the latest one as a
// surface trace. A new Schedule cancels the run in progress.
type Job struct {
	traces   *trace.Registry
	owner    owner.Executor
	notifier reduction.Notifier

	mu     sync.Mutex
	id     uuid.UUID
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJob creates a job committing to traces through exec
func NewJob(traces *trace.Registry, exec owner.Executor, n reduction.Notifier) *Job {
	if n == nil {
		n = reduction.NotifierFunc(func(error) {})
	}
	return &Job{traces: traces, owner: exec, notifier: n}
}

// Schedule starts generating the surface of src under the trace name
func (j *Job) Schedule(ctx context.Context, name string, src dataset.Source, opts Options) uuid.UUID {
	runCtx, cancel := context.WithCancel(ctx)
	id := uuid.New()

	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
	}
	j.id, j.cancel = id, cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		defer cancel()
		j.run(runCtx, id, name, src, opts)
	}()
	return id
}

// Cancel stops the run in progress
func (j *Job) Cancel() {
	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
	}
	j.id = uuid.Nil
	j.mu.Unlock()
}

// Wait blocks until all runs have finished
func (j *Job) Wait() {
	j.wg.Wait()
}

func (j *Job) current(id uuid.UUID) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.id == id
}

func (j *Job) run(ctx context.Context, id uuid.UUID, name string, src dataset.Source, opts Options) {
	logger := log.WithFields(logrus.Fields{"job": id, "trace": name, "value": opts.Value, "box": opts.boxSize()})

	surface, err := j.generate(ctx, src, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Debug("isosurface cancelled")
			return
		}
		logger.WithError(err).Warn("isosurface failed")
		j.notifier.Notify(err)
		return
	}
	if ctx.Err() != nil || !j.current(id) {
		return
	}

	err = j.owner.Exec(ctx, func() {
		if ctx.Err() != nil || !j.current(id) {
			return
		}
		t := &trace.Trace{
			Data: trace.SurfaceData{Triangles: surface.Triangles, Ticks: surface.Ticks, Labels: surface.Labels},
			User: true,
		}
		j.traces.Put(name, t)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		j.notifier.Notify(err)
		return
	}
	logger.WithField("triangles", len(surface.Triangles)).Debug("isosurface committed")
}

func (j *Job) generate(ctx context.Context, src dataset.Source, opts Options) (s *Surface, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, &reduction.UnsupportedOperationError{Op: "isosurface", Reason: "generation failed"}
			log.WithField("panic", r).Error("isosurface panicked")
		}
	}()
	return Generate(ctx, src, opts)
}
