package execx

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestOSRunnerOutput(t *testing.T) {
	requireShell(t)
	out, err := NewOSRunner().Output(context.Background(), "sh", "-c", "echo '  hello  '")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestOSRunnerFailureIncludesStderr(t *testing.T) {
	requireShell(t)
	err := NewOSRunner().Run(context.Background(), "sh", "-c", "echo nope >&2; exit 3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandFailed))
	assert.Contains(t, err.Error(), "nope")
}

func TestOSRunnerHonoursContext(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewOSRunner().Run(ctx, "sh", "-c", "sleep 5")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestOSRunnerDoesNotWaitForOrphanedChildren(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// The background sleep inherits stdout and would hold it open.
	start := time.Now()
	_, err := NewOSRunner().Output(ctx, "sh", "-c", "sleep 5 & echo started; wait")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRedact(t *testing.T) {
	args := []string{"dev", "wifi", "connect", "Home", "password", "hunter22", "ifname", "wlan0"}
	got := Redact(args, "password")

	assert.Equal(t, []string{"dev", "wifi", "connect", "Home", "password", "********", "ifname", "wlan0"}, got)
	assert.Equal(t, "hunter22", args[5], "input must not be modified")

	assert.Equal(t, []string{"password"}, Redact([]string{"password"}, "password"))
}
