package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/larreco/larmerge/config"
	"github.com/larreco/larmerge/logging"
)

func TestNew_Presets(t *testing.T) {
	for _, dev := range []bool{false, true} {
		cfg := config.Default().Logging
		cfg.Development = dev
		log, err := logging.New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, log)
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, err := logging.New(config.LoggingConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}

func TestNewWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.NewWriter(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept", zap.Int("passes", 3))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(3), entry["passes"])
}
