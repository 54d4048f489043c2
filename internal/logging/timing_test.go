package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initDebugLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timing.log")
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	require.NoError(t, Init(Config{FilePath: path, Level: level}))
	t.Cleanup(func() { _ = Shutdown() })
	return path
}

func TestTime(t *testing.T) {
	path := initDebugLog(t)

	executed := false
	err := Time("connect", func() error {
		executed = true
		return nil
	}, "selector", "prod")

	require.NoError(t, err)
	assert.True(t, executed)

	require.NoError(t, Shutdown())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=connect")
	assert.Contains(t, string(data), "selector=prod")
	assert.Contains(t, string(data), "ms=")
}

func TestTime_ReturnsError(t *testing.T) {
	path := initDebugLog(t)

	boom := errors.New("boom")
	err := Time("connect", func() error { return boom })
	assert.ErrorIs(t, err, boom)

	require.NoError(t, Shutdown())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "error=boom")
}

func TestTime_Disabled(t *testing.T) {
	require.NoError(t, Init(Config{}))

	executed := false
	err := Time("noop", func() error {
		executed = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, executed)
}

func TestTimeWithResult(t *testing.T) {
	initDebugLog(t)

	got, err := TimeWithResult("list", func() ([]string, error) {
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, Init(Config{}))
	n, err := TimeWithResult("count", func() (int, error) { return 0, errors.New("nope") })
	assert.Error(t, err)
	assert.Zero(t, n)
}
