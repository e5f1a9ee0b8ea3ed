package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

// Writer handles output for a command, dispatching between JSON and
// human-readable formats based on mode flags.
type Writer struct {
	JSONMode  bool
	QuietMode bool
	Stdout    io.Writer
	Stderr    io.Writer

	// Stale reports whether the data being written came from the local
	// cache rather than the remote API. Nil means never.
	Stale func() bool
}

// New creates a Writer configured by the given mode flags.
// Data output goes to os.Stdout; diagnostics go to os.Stderr.
func New(jsonMode, quietMode bool) *Writer {
	return &Writer{
		JSONMode:  jsonMode,
		QuietMode: quietMode,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

func (w *Writer) stale() bool {
	return w.Stale != nil && w.Stale()
}

// Success renders a successful result. In JSON mode the data is wrapped in a
// success envelope on Stdout, flagged "stale" when it was served from the
// local cache. In human mode the message is printed to Stdout.
func (w *Writer) Success(data any, message string) {
	if w.JSONMode {
		writeJSONSuccess(w.Stdout, data, message, w.stale())
		return
	}
	writeHumanSuccess(w.Stdout, message)
}

// Error renders an error and returns the matching exit code. JSON mode writes
// an error envelope to Stdout; human mode writes to Stderr, adding a hint for
// an unreachable backend.
func (w *Writer) Error(err error, code ErrorCode) int {
	if w.JSONMode {
		writeJSONError(w.Stdout, err, code)
	} else {
		writeHumanError(w.Stderr, err, code)
	}
	return ExitCodeForError(code)
}

// Info writes an informational message to Stderr. No-op in quiet and JSON
// modes.
func (w *Writer) Info(format string, args ...any) {
	if w.QuietMode || w.JSONMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if render.ColorsEnabled() {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		fmt.Fprintf(w.Stderr, "%s %s\n", dim.Render("\u2139"), dim.Render(msg))
	} else {
		fmt.Fprintln(w.Stderr, msg)
	}
}

// Warn writes a warning to Stderr. Warnings survive quiet mode but not JSON
// mode, where the envelope on Stdout is the only output.
func (w *Writer) Warn(format string, args ...any) {
	if w.JSONMode {
		return
	}
	writeHumanWarning(w.Stderr, fmt.Sprintf(format, args...))
}

// StaleNotice tells a human reader that what they just saw came from the
// local cache. It does nothing when the data was fresh; JSON output carries
// the "stale" flag instead.
func (w *Writer) StaleNotice() {
	if !w.stale() {
		return
	}
	w.Warn("remote API unavailable; showing local data")
}
