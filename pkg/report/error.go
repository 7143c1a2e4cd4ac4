package report

import (
	"errors"
	"fmt"

	"github.com/devicelab-dev/keep-runner/pkg/core"
)

// ErrorFrom converts err into report form. ExecutionError details are kept
// so a failure names the step, view and last observed state.
func ErrorFrom(err error) *Error {
	if err == nil {
		return nil
	}
	out := &Error{
		Category: core.CategoryOf(err).String(),
		Message:  err.Error(),
	}
	var ee *core.ExecutionError
	if errors.As(err, &ee) {
		out.Code = ee.Code
		if len(ee.Details) > 0 {
			out.Details = make(map[string]interface{}, len(ee.Details))
			for k, v := range ee.Details {
				out.Details[k] = fmt.Sprint(v)
			}
		}
	}
	return out
}
