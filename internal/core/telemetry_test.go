// AngelaMos | 2026
// telemetry_test.go

package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/carterperez-dev/templates/campus-market/internal/config"
)

func TestEndSpan(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
		wantEvent  string
		wantReason string
	}{
		{"success", nil, codes.Unset, "", ""},
		{"conflict", fmt.Errorf("open transaction: %w", ErrConflict), codes.Unset, "rejected", "conflict"},
		{"not found", ErrNotFound, codes.Unset, "rejected", "not_found"},
		{"internal", errors.New("disk on fire"), codes.Error, "exception", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

			_, span := provider.Tracer("test").Start(context.Background(), "op")
			EndSpan(span, tt.err)

			ended := recorder.Ended()
			require.Len(t, ended, 1)
			assert.Equal(t, tt.wantStatus, ended[0].Status().Code)

			events := ended[0].Events()
			if tt.wantEvent == "" {
				assert.Empty(t, events)
				return
			}
			require.Len(t, events, 1)
			assert.Equal(t, tt.wantEvent, events[0].Name)
			if tt.wantReason != "" {
				require.Len(t, events[0].Attributes, 1)
				assert.Equal(t, tt.wantReason, events[0].Attributes[0].Value.AsString())
			}
		})
	}
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(0).Description(), "TraceIDRatioBased{0.1}")
	assert.Contains(t, sampler(2).Description(), "TraceIDRatioBased{0.1}")
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased{0.5}")
}

func TestNewTelemetry_DisabledIsNoop(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), config.OtelConfig{Enabled: false}, config.AppConfig{})
	require.NoError(t, err)
	assert.NoError(t, tel.Shutdown(context.Background()))

	var nilTel *Telemetry
	assert.NoError(t, nilTel.Shutdown(context.Background()))
}
