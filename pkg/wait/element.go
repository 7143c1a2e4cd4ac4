package wait

import (
	"context"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
)

// Present waits until q matches inside scope (nil = document) and returns the first match.
func Present(ctx context.Context, drv core.Driver, scope core.ElementRef, q locator.Query, spec Spec) (core.ElementRef, error) {
	return Until(ctx, spec, func(ctx context.Context) (core.ElementRef, bool, error) {
		el, ok, err := drv.FindOne(ctx, scope, q)
		if err != nil || !ok {
			return nil, false, err
		}
		return el, true, nil
	})
}

// Visible waits until q matches and the match is displayed.
func Visible(ctx context.Context, drv core.Driver, scope core.ElementRef, q locator.Query, spec Spec) (core.ElementRef, error) {
	return Until(ctx, spec, func(ctx context.Context) (core.ElementRef, bool, error) {
		el, ok, err := drv.FindOne(ctx, scope, q)
		if err != nil || !ok {
			return nil, false, err
		}
		shown, err := drv.Displayed(ctx, el)
		if err != nil {
			return nil, false, err
		}
		return el, shown, nil
	})
}

// Count waits until the number of matches of q satisfies ok and returns it.
// The last observed count is reported on timeout.
func Count(ctx context.Context, drv core.Driver, q locator.Query, spec Spec, ok func(n int) bool) (int, error) {
	return Until(ctx, spec, func(ctx context.Context) (int, bool, error) {
		els, err := drv.FindAll(ctx, q)
		if err != nil {
			return 0, false, err
		}
		return len(els), ok(len(els)), nil
	})
}

// Gone waits until q matches nothing.
func Gone(ctx context.Context, drv core.Driver, q locator.Query, spec Spec) error {
	_, err := Count(ctx, drv, q, spec, func(n int) bool { return n == 0 })
	return err
}

// NeverAppears is Absent for a structural query: true when q matched
// nothing for the whole of spec.Timeout.
func NeverAppears(ctx context.Context, drv core.Driver, q locator.Query, spec Spec) (bool, error) {
	return Absent(ctx, spec, func(ctx context.Context) (bool, error) {
		els, err := drv.FindAll(ctx, q)
		return len(els) > 0, err
	})
}
