package tui

import (
	"encoding/base64"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// yankResultMsg reports whether a deployment key reached the clipboard
type yankResultMsg struct {
	err error
}

// osc52Sequence builds the escape sequence that sets the system clipboard.
// Inside tmux it is wrapped in a DCS passthrough with the inner ESC doubled.
func osc52Sequence(text string, tmux bool) string {
	seq := "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\x07"
	if tmux {
		return "\x1bPtmux;\x1b" + seq + "\x1b\\"
	}
	return seq
}

// clipboardWriter runs through tea.Exec so the sequence goes to the
// program's real output rather than the rendered frame.
type clipboardWriter struct {
	text string
	out  io.Writer
}

func (c *clipboardWriter) Run() error {
	_, err := io.WriteString(c.out, osc52Sequence(c.text, os.Getenv("TMUX") != ""))
	return err
}

func (c *clipboardWriter) SetStdin(io.Reader)    {}
func (c *clipboardWriter) SetStdout(w io.Writer) { c.out = w }
func (c *clipboardWriter) SetStderr(io.Writer)   {}

// yankToClipboard copies a deployment key via OSC 52
func yankToClipboard(key string) tea.Cmd {
	return tea.Exec(&clipboardWriter{text: key}, func(err error) tea.Msg {
		return yankResultMsg{err: err}
	})
}
