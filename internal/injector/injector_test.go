package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/cubewalk/internal/config"
)

func TestInitializeApp(t *testing.T) {
	app, err := InitializeApp(config.Default())
	require.NoError(t, err)
	assert.NotNil(t, app.Log)
	assert.NotNil(t, app.Bus)
	assert.NotNil(t, app.Runner)
	assert.NotNil(t, app.Hub)
	assert.Equal(t, 60, app.Config.Simulation.TickRateHz)
}

func TestInitializeAppRejectsBadLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "loud"
	_, err := InitializeApp(cfg)
	require.Error(t, err)
}
