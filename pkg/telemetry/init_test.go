package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	ctx := context.Background()

	shutdown, err := Init(ctx, "graphwalk-test", "dev", "")
	require.NoError(t, err)

	_, span := Tracer("graphwalk/test").Start(ctx, "noop")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, shutdown(ctx))
}
