package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	require.Error(t, err)
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "escrowd", Traces: true})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(map[string]string{"x-team": "ledger", "api-key": "old"}, " api-key = new ,broken, =skip,x-env=dev")
	require.Equal(t, map[string]string{"x-team": "ledger", "api-key": "new", "x-env": "dev"}, got)
}
