package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/recipehub/config"
)

func TestTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.OtelConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 0.25, clampRatio(0.25))
	assert.Equal(t, 1.0, clampRatio(3))
}

func TestSentryDisabledWithoutDSN(t *testing.T) {
	enabled, err := InitSentry(config.SentryConfig{}, "test")
	require.NoError(t, err)
	assert.False(t, enabled)
}
