package commands

import (
	"fmt"
	"io"
)

// statusLine reports pipeline progress on the terminal.
type statusLine struct {
	w io.Writer
}

func (s statusLine) SetIdle()       { s.update("idle") }
func (s statusLine) SetRecording()  { s.update("recording") }
func (s statusLine) SetProcessing() { s.update("processing") }
func (s statusLine) SetError()      { s.update("error") }

func (s statusLine) update(status string) {
	fmt.Fprintf(s.w, "🎤 %s %s\n", emojiForStatus(status), status)
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "recording":
		return "🔴"
	case "processing":
		return "🟡"
	case "error":
		return "⚪️"
	default:
		return "🟢"
	}
}
