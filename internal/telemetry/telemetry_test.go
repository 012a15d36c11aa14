package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledInitIsNoop(t *testing.T) {
	require.NoError(t, Init(context.Background(), "skilltracker", "test", Options{}))
	assert.NoError(t, Shutdown(context.Background()))
}

func TestShutdownReportsEveryFailure(t *testing.T) {
	errTrace := errors.New("trace flush failed")
	errMetric := errors.New("metric flush failed")

	var called int
	shutdownFns = []func(context.Context) error{
		func(context.Context) error { called++; return errTrace },
		func(context.Context) error { called++; return nil },
		func(context.Context) error { called++; return errMetric },
	}

	err := Shutdown(context.Background())
	assert.Equal(t, 3, called)
	assert.ErrorIs(t, err, errTrace)
	assert.ErrorIs(t, err, errMetric)

	assert.NoError(t, Shutdown(context.Background()), "providers are shut down once")
}
