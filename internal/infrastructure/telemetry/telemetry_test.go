package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/erp/kanban/internal/infrastructure/config"
	"github.com/erp/kanban/internal/infrastructure/telemetry"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "test-service",
	}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.MetricsConfig{
		Enabled:        false,
		ExportInterval: time.Minute,
		ServiceName:    "test-service",
	}

	mp, err := telemetry.NewMeterProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewTracerProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping collector test in short mode")
	}

	ctx := context.Background()
	cfg := telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     0.5,
		ServiceName:       "test-service",
		Insecure:          true,
	}

	// The gRPC exporter connects lazily, so construction succeeds without a collector.
	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_ = tp.Shutdown(shutdownCtx)
}

func TestConfigFromApp(t *testing.T) {
	cfg := telemetry.ConfigFromApp(config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "otel:4317",
		SamplingRatio:     0.25,
		ServiceName:       "kanban",
		Insecure:          true,
	})

	assert.Equal(t, telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "otel:4317",
		SamplingRatio:     0.25,
		ServiceName:       "kanban",
		Insecure:          true,
	}, cfg)

	mc := telemetry.MetricsConfigFrom(cfg)
	assert.True(t, mc.Enabled)
	assert.Equal(t, "otel:4317", mc.CollectorEndpoint)
	assert.Equal(t, "kanban", mc.ServiceName)
	assert.True(t, mc.Insecure)
}
