package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		var buf bytes.Buffer
		require.NoError(t, GenerateCompletion(&buf, shell))
		assert.Contains(t, buf.String(), "migrate", shell)
	}

	var buf bytes.Buffer
	assert.Error(t, GenerateCompletion(&buf, "powershell"))
	assert.Zero(t, buf.Len())
}

func TestConsoleWithoutTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsole(&buf)

	console.Success("schema applied")
	console.Error("boom")

	out := buf.String()
	assert.Equal(t, "✓ schema applied\n✗ boom\n", out)
	assert.False(t, strings.Contains(out, "\033["))
}

func TestSpinnerReportsOnce(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewConsole(&buf).Spinner("migrating")
	spinner.Start()
	spinner.Start()
	spinner.Success("done")

	assert.Equal(t, "✓ done (< 1s)\n", buf.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "< 1s", formatDuration(300*time.Millisecond))
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
}
