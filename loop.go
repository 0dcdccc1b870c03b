package reactive

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopClosed is returned by Do once the loop has stopped.
var ErrLoopClosed = errors.New("reactive: loop closed")

// Loop serialises access to a Runtime: every func passed to Do runs on the
// goroutine executing Run, in submission order. Listener cascades triggered
// by a func complete before the next func starts.
type Loop struct {
	rt   *Runtime
	jobs chan job

	stopOnce sync.Once
	done     chan struct{}
}

type job struct {
	fn     func(*Runtime) error
	result chan error
}

// NewLoop wraps rt. The caller must not use rt directly while the loop runs.
func NewLoop(rt *Runtime) *Loop {
	return &Loop{
		rt:   rt,
		jobs: make(chan job),
		done: make(chan struct{}),
	}
}

// Run executes submitted funcs until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case j := <-l.jobs:
			j.result <- l.exec(j.fn)
		}
	}
}

func (l *Loop) exec(fn func(*Runtime) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.rt.logger().Error("loop func panicked", "panic", r)
			err = illegalInvocation("loop func panicked: %v", r)
		}
	}()
	return fn(l.rt)
}

// Do runs fn on the loop goroutine and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func(*Runtime) error) error {
	if fn == nil {
		return invalidArgument("nil loop func")
	}
	j := job{fn: fn, result: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	case l.jobs <- j:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-j.result:
		return err
	}
}

// Stop ends Run. Funcs already accepted finish first.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}
