package target

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry(t *testing.T) {
	opened := false
	Register(Registration{
		Info: Info{Name: "fake", DisplayName: "Fake Target"},
		Factory: func(ctx context.Context, config map[string]any, logger *zap.Logger) (Conn, error) {
			opened = true
			assert.NotNil(t, logger)
			assert.Equal(t, "value", config["key"])
			return nil, nil
		},
	})

	names := make([]string, 0)
	for _, info := range Registered() {
		names = append(names, info.Name)
	}
	assert.Contains(t, names, "fake")

	// nil logger is replaced before the factory runs.
	_, err := Open(context.Background(), "fake", map[string]any{"key": "value"}, nil)
	require.NoError(t, err)
	assert.True(t, opened)
}

func TestOpen_UnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), "no-such-dialect", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-dialect")
}
