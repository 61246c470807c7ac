package result

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(name string, r Result[string], calls *[]string) Strategy[string] {
	return Strategy[string]{
		Name: name,
		Run: func(context.Context) Result[string] {
			*calls = append(*calls, name)
			return r
		},
	}
}

func TestFirstStopsAtFirstFound(t *testing.T) {
	var calls []string
	res := First(context.Background(),
		step("a", Empty[string](), &calls),
		step("b", Failed[string](errors.New("boom")), &calls),
		step("c", Found("hit"), &calls),
		step("d", Found("later"), &calls),
	)

	require.True(t, res.OK())
	assert.Equal(t, "hit", res.Value)
	assert.Equal(t, []string{"a", "b", "c"}, calls)
}

func TestFirstEmptyWhenNothingFound(t *testing.T) {
	var calls []string
	res := First(context.Background(),
		step("a", Empty[string](), &calls),
		step("b", Failed[string](errors.New("boom")), &calls),
	)

	assert.Equal(t, StatusEmpty, res.Status)
	assert.NoError(t, res.Err)
}

func TestFirstFailedWhenEveryStepFails(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	res := First(context.Background(),
		step("a", Failed[string](errors.New("first")), &calls),
		step("b", Failed[string](boom), &calls),
	)

	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, boom)
}

func TestFirstNoStrategies(t *testing.T) {
	res := First[int](context.Background())
	assert.Equal(t, StatusEmpty, res.Status)
}

func TestFirstCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls []string
	res := First(ctx, step("a", Found("x"), &calls))

	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, calls)
}

func TestGet(t *testing.T) {
	v, ok := Found(3).Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = Failed[int](errors.New("x")).Get()
	assert.False(t, ok)
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "empty", StatusEmpty.String())
}
