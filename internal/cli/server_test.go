package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand(t *testing.T) {
	t.Run("help text", func(t *testing.T) {
		out, _, err := execute(t, "serve", "--help")
		require.NoError(t, err)

		assert.Contains(t, out, "POST /v1/simulations")
		assert.Contains(t, out, "--port")
	})

	t.Run("rejects an invalid port", func(t *testing.T) {
		_, _, err := execute(t, "serve", "--port", "70000")
		assert.Error(t, err)
	})
}

func TestStopCommand(t *testing.T) {
	t.Run("help text", func(t *testing.T) {
		out, _, err := execute(t, "stop", "--help")
		require.NoError(t, err)

		assert.Contains(t, out, "Stop a running")
		assert.Contains(t, out, "timeout")
	})

	t.Run("not running", func(t *testing.T) {
		_, _, err := execute(t, "stop")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not running")
	})
}

func TestStatusCommand(t *testing.T) {
	t.Run("stopped", func(t *testing.T) {
		out, _, err := execute(t, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Status: stopped")
	})
}

func TestPIDFile(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		path := getPIDFilePath()
		assert.Contains(t, path, ".lawnmower")
		assert.Contains(t, path, "mower.pid")
	})

	t.Run("no pid file", func(t *testing.T) {
		assert.False(t, isRunning(filepath.Join(t.TempDir(), "nonexistent.pid")))
	})

	t.Run("invalid pid file", func(t *testing.T) {
		pidFile := filepath.Join(t.TempDir(), "invalid.pid")
		require.NoError(t, os.WriteFile(pidFile, []byte("invalid"), 0644))

		assert.False(t, isRunning(pidFile))
		_, err := readPID(pidFile)
		assert.Error(t, err)
	})

	t.Run("own process", func(t *testing.T) {
		pidFile := filepath.Join(t.TempDir(), "run", "mower.pid")
		require.NoError(t, writePIDFile(pidFile))

		pid, err := readPID(pidFile)
		require.NoError(t, err)
		assert.Equal(t, os.Getpid(), pid)
		assert.True(t, isRunning(pidFile))
	})

	t.Run("status reports a live server", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		require.NoError(t, writePIDFile(getPIDFilePath()))

		cmd := GetRootCmd()
		resetFlags(cmd)
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetArgs([]string{"--config", filepath.Join(home, "config.yaml"), "status"})

		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "Status: running")
		assert.Contains(t, out.String(), "PID: "+strconv.Itoa(os.Getpid()))
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"seconds only", 45 * time.Second, "45s"},
		{"minutes and seconds", 2*time.Minute + 30*time.Second, "2m30s"},
		{"hours minutes seconds", 3*time.Hour + 15*time.Minute + 20*time.Second, "3h15m20s"},
		{"zero", 0, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}
