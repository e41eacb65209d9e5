package rufus

import (
	"context"
	"fmt"
	"time"
)

// callable is the normalised form of a user-supplied job payload. The
// supported function shapes are:
//
//	func()
//	func() error
//	func(context.Context) error
//	func(context.Context, *Job) error
//	func(context.Context, *Job, time.Time) error                // scheduled time
//	func(context.Context, *Job, time.Time, time.Time) error     // scheduled time, now
//
// The context is the worker's cancellation token; timeout and kill
// interruptions surface through it.
type callable func(ctx context.Context, job *Job, scheduledAt, now time.Time) error

func newCallable(fn any) (callable, error) {
	switch f := fn.(type) {
	case func():
		return func(context.Context, *Job, time.Time, time.Time) error {
			f()
			return nil
		}, nil
	case func() error:
		return func(context.Context, *Job, time.Time, time.Time) error {
			return f()
		}, nil
	case func(context.Context) error:
		return func(ctx context.Context, _ *Job, _, _ time.Time) error {
			return f(ctx)
		}, nil
	case func(context.Context, *Job) error:
		return func(ctx context.Context, job *Job, _, _ time.Time) error {
			return f(ctx, job)
		}, nil
	case func(context.Context, *Job, time.Time) error:
		return func(ctx context.Context, job *Job, scheduledAt, _ time.Time) error {
			return f(ctx, job, scheduledAt)
		}, nil
	case func(context.Context, *Job, time.Time, time.Time) error:
		return callable(f), nil
	case nil:
		return nil, fmt.Errorf("%w: nil callable", ErrInvalidArgument)
	default:
		return nil, fmt.Errorf("%w: unsupported callable type %T", ErrInvalidArgument, fn)
	}
}
