package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	logger, cleanup, err := NewLogger(true, dir)
	require.NoError(t, err)

	logger.Debug("trial scored", zap.Int("trial", 3))
	cleanup()

	files, err := filepath.Glob(filepath.Join(dir, "fitts-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "trial scored", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, 3.0, entry["trial"])
}

func TestNewLoggerInfoLevelDropsDebug(t *testing.T) {
	dir := t.TempDir()
	logger, cleanup, err := NewLogger(false, dir)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	cleanup()

	files, _ := filepath.Glob(filepath.Join(dir, "fitts-*.log"))
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNewLoggerWithoutDir(t *testing.T) {
	logger, cleanup, err := NewLogger(false, "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	cleanup()
}
