package triggers

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/angelmondragon/citypulse-backend/pkg/logger"
)

type fakeStrategy struct {
	typ         Type
	priority    int
	description string
	calls       atomic.Int32
	evaluateFn  func(tc *Context) (Result, error)
}

func (f *fakeStrategy) Type() Type          { return f.typ }
func (f *fakeStrategy) Priority() int       { return f.priority }
func (f *fakeStrategy) Description() string { return f.description }

func (f *fakeStrategy) Evaluate(tc *Context) (Result, error) {
	f.calls.Add(1)
	if f.evaluateFn == nil {
		return NotTriggered(f.typ), nil
	}
	return f.evaluateFn(tc)
}

func firing(t Type, priority int) *fakeStrategy {
	return &fakeStrategy{
		typ:      t,
		priority: priority,
		evaluateFn: func(tc *Context) (Result, error) {
			return Result{Triggered: true, Title: string(t), ConditionID: string(t) + "_MET"}, nil
		},
	}
}

func quiet(t Type, priority int) *fakeStrategy {
	return &fakeStrategy{typ: t, priority: priority}
}

func panicking(t Type, priority int) *fakeStrategy {
	return &fakeStrategy{
		typ:      t,
		priority: priority,
		evaluateFn: func(tc *Context) (Result, error) {
			panic("boom")
		},
	}
}

func failing(t Type, priority int) *fakeStrategy {
	return &fakeStrategy{
		typ:      t,
		priority: priority,
		evaluateFn: func(tc *Context) (Result, error) {
			return Result{}, errors.New("source value malformed")
		},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

var bg = context.Background()
