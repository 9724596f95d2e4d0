package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"africa-gateway/countries/domain"
)

func constOp(v int, delay time.Duration) Op[int] {
	return func(ctx context.Context) (domain.Outcome[int], error) {
		time.Sleep(delay)
		return domain.Found(v), nil
	}
}

func TestGather_PreservesOrderAndLength(t *testing.T) {
	ops := []Op[int]{
		constOp(0, 30*time.Millisecond),
		constOp(1, 0),
		constOp(2, 10*time.Millisecond),
		constOp(3, 0),
	}
	res := Gather(context.Background(), 2, time.Second, ops...)
	require.Len(t, res, len(ops))
	for i, r := range res {
		assert.Equal(t, domain.Present, r.State)
		assert.Equal(t, i, r.Value)
	}
}

func TestGather_TimedOutSlotIsFailed(t *testing.T) {
	slow := func(ctx context.Context) (domain.Outcome[int], error) {
		// ignora o ctx de propósito
		time.Sleep(300 * time.Millisecond)
		return domain.Found(99), nil
	}
	start := time.Now()
	res := Gather(context.Background(), 3, 30*time.Millisecond, constOp(1, 0), slow, constOp(3, 0))
	elapsed := time.Since(start)

	require.Len(t, res, 3)
	assert.Equal(t, 1, res[0].Value)
	assert.Equal(t, domain.Failed, res[1].State)
	assert.ErrorIs(t, res[1].Err, context.DeadlineExceeded)
	assert.Equal(t, 3, res[2].Value)
	assert.Less(t, elapsed, 250*time.Millisecond)
}

func TestGather_ErrorsAndPanicsAreIsolated(t *testing.T) {
	boom := errors.New("boom")
	res := Gather(context.Background(), 0, 0,
		func(context.Context) (domain.Outcome[string], error) { return domain.Outcome[string]{}, boom },
		func(context.Context) (domain.Outcome[string], error) { panic("kaboom") },
		func(context.Context) (domain.Outcome[string], error) { return domain.Absent[string](), nil },
		func(context.Context) (domain.Outcome[string], error) { return domain.Found("ok"), nil },
	)
	require.Len(t, res, 4)
	assert.ErrorIs(t, res[0].Err, boom)
	assert.Equal(t, domain.Failed, res[1].State)
	assert.Contains(t, res[1].Err.Error(), "kaboom")
	assert.Equal(t, domain.Missing, res[2].State)
	assert.Equal(t, "ok", res[3].Value)
}

func TestGather_RespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	op := func(ctx context.Context) (domain.Outcome[int], error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond)
		running.Add(-1)
		return domain.Found(1), nil
	}
	ops := make([]Op[int], 10)
	for i := range ops {
		ops[i] = op
	}
	res := Gather(context.Background(), 3, time.Second, ops...)
	require.Len(t, res, 10)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestGather_CancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	block := func(ctx context.Context) (domain.Outcome[int], error) {
		<-ctx.Done()
		return domain.Outcome[int]{}, ctx.Err()
	}
	res := Gather(ctx, 1, time.Second, block, block)
	require.Len(t, res, 2)
	for _, r := range res {
		assert.Equal(t, domain.Failed, r.State)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestGather_Empty(t *testing.T) {
	assert.Empty(t, Gather[int](context.Background(), 3, time.Second))
}
