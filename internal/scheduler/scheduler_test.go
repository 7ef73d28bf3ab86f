package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWithoutReportFunc(t *testing.T) {
	s := New("", nil)
	defer s.Stop()

	assert.ErrorIs(t, s.Start(), ErrNoReportFunc)
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.RunNow(), ErrNoReportFunc)
}

func TestStartRegistersJob(t *testing.T) {
	s := New("*/5 * * * *", nil)
	s.SetReportFunction(func(context.Context) error { return nil })

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	s.Stop()
}

func TestInvalidSpec(t *testing.T) {
	s := New("not a cron spec", nil)
	defer s.Stop()
	s.SetReportFunction(func(context.Context) error { return nil })

	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestRunNow(t *testing.T) {
	s := New(DefaultSpec, nil)
	defer s.Stop()

	calls := 0
	s.SetReportFunction(func(ctx context.Context) error {
		calls++
		require.NoError(t, ctx.Err())
		return errors.New("mail server down")
	})

	assert.EqualError(t, s.RunNow(), "mail server down")
	assert.Equal(t, 1, calls)
}
