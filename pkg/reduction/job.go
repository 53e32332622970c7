package reduction

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"plotmodel/internal/logging"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/owner"
	"plotmodel/pkg/trace"
)

var log = logging.For("reduction")

// Notifier receives the failures of background reductions. Cancellation
// is never reported.
type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(err error)

// Notify implements Notifier
func (f NotifierFunc) Notify(err error) { f(err) }

// Job runs one reducer in the background and commits its results to a
// trace registry on the owner context. Scheduling a new run cancels the
// previous one; a superseded run never commits.
type Job struct {
	reducer  Reducer
	traces   *trace.Registry
	owner    owner.Executor
	notifier Notifier

	mu     sync.Mutex
	id     uuid.UUID
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJob creates a job. A nil notifier drops failures after logging them.
func NewJob(r Reducer, traces *trace.Registry, exec owner.Executor, n Notifier) *Job {
	if n == nil {
		n = NotifierFunc(func(error) {})
	}
	return &Job{reducer: r, traces: traces, owner: exec, notifier: n}
}

// Schedule cancels any running reduction and starts req. It returns the
// id of the new run.
func (j *Job) Schedule(ctx context.Context, req Request) uuid.UUID {
	runCtx, cancel := context.WithCancel(ctx)
	id := uuid.New()

	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
	}
	j.id = id
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		defer cancel()
		j.run(runCtx, id, req)
	}()
	return id
}

// Cancel stops the running reduction, if any
func (j *Job) Cancel() {
	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
	}
	j.id = uuid.Nil
	j.mu.Unlock()
}

// Wait blocks until every scheduled run has finished
func (j *Job) Wait() {
	j.wg.Wait()
}

func (j *Job) current(id uuid.UUID) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.id == id
}

func (j *Job) run(ctx context.Context, id uuid.UUID, req Request) {
	logger := log.WithFields(logrus.Fields{"job": id, "reducer": j.reducer.Name(), "name": req.Name})

	res, err := j.reduce(ctx, req)
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		logger.Debug("reduction cancelled")
		return
	case err != nil:
		logger.WithError(err).Warn("reduction failed")
		j.notifier.Notify(err)
		return
	case res == nil:
		logger.Debug("no result")
		return
	}

	// last checkpoint before the registry is touched
	if ctx.Err() != nil || !j.current(id) {
		logger.Debug("result discarded")
		return
	}
	err = j.owner.Exec(ctx, func() {
		if ctx.Err() != nil || !j.current(id) {
			return
		}
		if err := commit(j.traces, j.reducer, res); err != nil {
			logger.WithError(err).Warn("commit failed")
			j.notifier.Notify(err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Warn("owner refused commit")
		j.notifier.Notify(err)
	}
}

func (j *Job) reduce(ctx context.Context, req Request) (*Result, error) {
	return safeReduce(ctx, j.reducer, req)
}

// safeReduce converts panics in the reducer to errors
func safeReduce(ctx context.Context, r Reducer, req Request) (res *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.WithField("stack", string(debug.Stack())).Error("reducer panicked")
			res, err = nil, fmt.Errorf("%s: panic: %v", r.Name(), p)
		}
	}()
	return r.Reduce(ctx, req)
}

// commit shows a result: curves become line traces, images become image
// traces
func commit(traces *trace.Registry, r Reducer, res *Result) error {
	if r.Output1D() {
		if len(res.Axes) == len(res.Outputs) && len(res.Outputs) > 1 {
			for i, y := range res.Outputs {
				if _, err := traces.Plot1D(res.Axes[i], []*dataset.Array{y}); err != nil {
					return err
				}
			}
			return nil
		}
		_, err := traces.Plot1D(res.axis(0), res.Outputs)
		return err
	}
	for _, img := range res.Outputs {
		t := trace.NewImage(img.Name(), img)
		t.Data = trace.ImageData{Image: img, XAxis: res.axis(0), YAxis: res.axis(1)}
		traces.Put(img.Name(), t)
	}
	return nil
}

func (r *Result) axis(i int) *dataset.Array {
	if i < len(r.Axes) {
		return r.Axes[i]
	}
	return nil
}
