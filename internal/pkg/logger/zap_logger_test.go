package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	l := NewIsolatedLogger(path)

	l.Info("Hub", "Client registered", map[string]interface{}{"user_id": "doc-1"})
	l.Error("Hub", "Send failed", map[string]interface{}{"error": errors.New("broken pipe")})
	l.Debug("Hub", "below file level", nil)
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "Hub", lines[0]["module"])
	assert.Equal(t, "Client registered", lines[0]["message"])
	assert.Equal(t, "broken pipe", lines[1]["details"].(map[string]any)["error"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Warn("x", "y", nil)
	assert.NoError(t, l.Sync())
}
