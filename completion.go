package disco

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Completion receives the outcome of a call made with Method.Call.
// Exactly one of res and err is non-nil; err is always a *Failure.
type Completion func(res *Success, err error)

// Reporter receives the failure of a call made without a Completion.
type Reporter func(f *Failure)

// LogReporter returns a Reporter that logs failures at error level.
// It is the default reporter of a Client.
func LogReporter(logger *slog.Logger) Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return func(f *Failure) {
		logger.Error("request failed",
			slog.String("method", f.Method),
			slog.Int("status", f.StatusCode),
			slog.String("code", string(f.Code)),
			slog.String("message", f.Message))
	}
}

// Call invokes the method asynchronously and returns immediately.
//
// If done is non-nil it is invoked exactly once, from the dispatching
// goroutine, when the call completes. If done is nil a successful result is
// discarded and a failure is passed to the client's Reporter, once.
//
// Call never panics on a bad call: missing or invalid parameters are delivered
// as a *Failure like any other error. params is copied before Call returns.
func (m *Method) Call(ctx context.Context, params Params, done Completion, opts ...CallOption) {
	if ctx == nil {
		ctx = context.Background()
	}
	params = params.Clone()
	co := newCallOptions(opts)
	go func() {
		d := &dispatch{m: m}
		m.deliver(d.runRecovered(ctx, params, co), done)
		d.enter(PhaseDone)
	}()
}

// Do invokes the method and waits for the outcome.
// A non-nil error is always a *Failure.
func (m *Method) Do(ctx context.Context, params Params, opts ...CallOption) (*Success, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	d := &dispatch{m: m}
	r := d.runRecovered(ctx, params.Clone(), newCallOptions(opts))
	d.enter(PhaseDone)
	if r.Failure != nil {
		return nil, r.Failure
	}
	return r.Success, nil
}

// deliver hands r to done, or to the reporter. A panic in user code is
// recovered and logged so it cannot take down the process.
func (m *Method) deliver(r Result, done Completion) {
	defer func() {
		if rec := recover(); rec != nil {
			m.client.logger.Error("PANIC recovered in completion",
				slog.String("method", m.path),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	switch {
	case done != nil && r.Failure != nil:
		done(nil, r.Failure)
	case done != nil:
		done(r.Success, nil)
	case r.Failure != nil:
		m.client.reporter(r.Failure)
	}
}

// Future is the pending outcome of a call started with Method.Go.
type Future struct {
	once sync.Once
	done chan struct{}
	res  *Success
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(res *Success, err error) {
	f.once.Do(func() {
		f.res, f.err = res, err
		close(f.done)
	})
}

// Done is closed when the outcome is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the call completes or ctx is done. When ctx ends first the
// call keeps running; only the wait is abandoned.
func (f *Future) Wait(ctx context.Context) (*Success, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for call: %w", ctx.Err())
	}
}

// Go starts the method like Call and returns a Future for its outcome.
// Failures are delivered through the Future, never to the Reporter.
func (m *Method) Go(ctx context.Context, params Params, opts ...CallOption) *Future {
	f := newFuture()
	m.Call(ctx, params, f.complete, opts...)
	return f
}

// Await starts m and waits for its outcome, adapting the callback style of
// Call to a blocking one.
func Await(ctx context.Context, m *Method, params Params, opts ...CallOption) (*Success, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return m.Go(ctx, params, opts...).Wait(ctx)
}
