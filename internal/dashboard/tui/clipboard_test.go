package tui

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOsc52Sequence(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("prod-key-123"))

	assert.Equal(t, "\x1b]52;c;"+encoded+"\x07", osc52Sequence("prod-key-123", false))
	assert.Equal(t, "\x1bPtmux;\x1b\x1b]52;c;"+encoded+"\x07\x1b\\", osc52Sequence("prod-key-123", true))
}

func TestClipboardWriter(t *testing.T) {
	t.Setenv("TMUX", "")

	var buf bytes.Buffer
	w := &clipboardWriter{text: "staging-key"}
	w.SetStdout(&buf)

	require.NoError(t, w.Run())
	assert.Equal(t, osc52Sequence("staging-key", false), buf.String())
}

func TestClipboardWriter_InsideTmux(t *testing.T) {
	t.Setenv("TMUX", "/tmp/tmux-1000/default,12345,0")

	var buf bytes.Buffer
	w := &clipboardWriter{text: "staging-key"}
	w.SetStdout(&buf)

	require.NoError(t, w.Run())
	assert.Equal(t, osc52Sequence("staging-key", true), buf.String())
}

func TestYankResultUpdatesStatus(t *testing.T) {
	model := initModel(t, newFakeSource())

	model.Update(yankResultMsg{})
	assert.Equal(t, "Copied deployment key", model.Status())
}
