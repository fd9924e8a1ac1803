package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown := Setup(context.Background(), Config{ServiceName: "attendance-api"})
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
