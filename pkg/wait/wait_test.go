package wait

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/keep-runner/pkg/core"
)

func TestUntil_SucceedsAfterPolls(t *testing.T) {
	var calls int32
	spec := Spec{Name: "count", Timeout: time.Second, Interval: 5 * time.Millisecond}

	v, err := Until(context.Background(), spec, func(ctx context.Context) (int, bool, error) {
		n := atomic.AddInt32(&calls, 1)
		return int(n), n >= 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestUntil_ProbeErrorMeansNotYet(t *testing.T) {
	var calls int32
	spec := Spec{Name: "flaky", Timeout: time.Second, Interval: 5 * time.Millisecond}

	v, err := Until(context.Background(), spec, func(ctx context.Context) (string, bool, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", false, errors.New("stale element")
		}
		return "ok", true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestUntil_TimesOutWithLastObserved(t *testing.T) {
	spec := Spec{Name: "pinned", Timeout: 40 * time.Millisecond, Interval: 5 * time.Millisecond}

	start := time.Now()
	_, err := Until(context.Background(), spec, func(ctx context.Context) (string, bool, error) {
		return "aria-pressed=false", false, nil
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTimedOut))
	assert.Less(t, elapsed, 500*time.Millisecond, "must not block far past the deadline")

	var execErr *core.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "pinned", execErr.Detail(core.DetailStep))
	assert.Equal(t, "aria-pressed=false", execErr.Detail(core.DetailLastObserved))
	assert.Equal(t, core.ErrCategoryTimeout, core.CategoryOf(err))
}

func TestUntil_LastObservedIsProbeError(t *testing.T) {
	spec := Spec{Name: "find", Timeout: 20 * time.Millisecond, Interval: 5 * time.Millisecond}

	_, err := Until(context.Background(), spec, func(ctx context.Context) (int, bool, error) {
		return 0, false, errors.New("no such element")
	})

	var execErr *core.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "no such element", execErr.Detail(core.DetailLastObserved))
}

func TestUntil_ZeroTimeoutChecksOnce(t *testing.T) {
	var calls int32
	_, err := Until(context.Background(), Spec{Name: "now"}, func(ctx context.Context) (bool, bool, error) {
		atomic.AddInt32(&calls, 1)
		return false, false, nil
	})
	assert.True(t, errors.Is(err, core.ErrTimedOut))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	v, err := Until(context.Background(), Spec{Name: "now"}, func(ctx context.Context) (int, bool, error) {
		return 7, true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestUntil_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Until(ctx, Spec{Name: "cancel", Timeout: 5 * time.Second, Interval: 5 * time.Millisecond},
		func(ctx context.Context) (int, bool, error) { return 0, false, nil })

	assert.True(t, errors.Is(err, core.ErrTimedOut))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestUntil_Backoff(t *testing.T) {
	var stamps []time.Time
	spec := Spec{Name: "grow", Timeout: 300 * time.Millisecond, Interval: 10 * time.Millisecond, MaxInterval: 80 * time.Millisecond}.WithBackoff()

	_, err := Until(context.Background(), spec, func(ctx context.Context) (int, bool, error) {
		stamps = append(stamps, time.Now())
		return 0, len(stamps) >= 4, nil
	})

	require.NoError(t, err)
	require.Len(t, stamps, 4)
	first := stamps[1].Sub(stamps[0])
	third := stamps[3].Sub(stamps[2])
	assert.Greater(t, third, first)
}

func TestEventually(t *testing.T) {
	var calls int32
	ok, err := Eventually(context.Background(), Spec{Name: "archived", Timeout: time.Second, Interval: 5 * time.Millisecond},
		func(ctx context.Context) (bool, error) { return atomic.AddInt32(&calls, 1) == 2, nil })
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eventually(context.Background(), Spec{Name: "never", Timeout: 20 * time.Millisecond, Interval: 5 * time.Millisecond},
		func(ctx context.Context) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEventually_CallerCancelIsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := Eventually(ctx, Spec{Name: "x", Timeout: time.Second},
		func(ctx context.Context) (bool, error) { return false, nil })
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestAbsent(t *testing.T) {
	spec := Spec{Name: "gone", Timeout: 30 * time.Millisecond, Interval: 5 * time.Millisecond}

	absent, err := Absent(context.Background(), spec, func(ctx context.Context) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.True(t, absent)

	var calls int32
	absent, err = Absent(context.Background(), spec, func(ctx context.Context) (bool, error) {
		return atomic.AddInt32(&calls, 1) == 2, nil
	})
	require.NoError(t, err)
	assert.False(t, absent, "appearing within the bound disproves absence")
}

func TestSpec_Policy(t *testing.T) {
	d := Spec{}.policy().NextBackOff()
	assert.Equal(t, DefaultInterval, d)

	b := Spec{Interval: 10 * time.Millisecond, MaxInterval: 15 * time.Millisecond, Backoff: true}.policy()
	assert.Equal(t, 10*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 15*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 15*time.Millisecond, b.NextBackOff())
}

func TestUntil_CauseIsFinalProbeError(t *testing.T) {
	stale := errors.New("stale element reference")
	_, err := Until(context.Background(), Spec{Name: "stale", Timeout: 15 * time.Millisecond, Interval: 5 * time.Millisecond},
		func(ctx context.Context) (int, bool, error) { return 0, false, stale })

	assert.True(t, errors.Is(err, core.ErrTimedOut))
	assert.True(t, errors.Is(err, stale))
}
