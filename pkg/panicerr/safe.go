// Package panicerr turns panics in long-running goroutines into errors, so a
// conc pool cancels the remaining goroutines instead of crashing the process.
package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"

	"github.com/kazz187/shopguild/pkg/cerr"
)

// SafeContext wraps fn so that a panic is returned as an Internal error
// carrying the panicking goroutine's stack.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn(ctx)
		})
		if err != nil {
			return err
		}
		return fromRecovered(catcher.Recovered())
	}
}

func fromRecovered(r *panics.Recovered) error {
	if r == nil {
		return nil
	}
	e := cerr.NewError(cerr.Internal, "panic recovered", r.AsError())
	e.Stack = string(r.Stack)
	return e
}
