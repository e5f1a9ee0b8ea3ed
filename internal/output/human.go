package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

// unavailableHint follows an UNAVAILABLE error in human mode.
const unavailableHint = "Start a server with `ticketboard serve`, check DATABASE_URL and TICKETBOARD_API, or set TICKETBOARD_OFFLINE=1 to use the local cache."

// writeHumanSuccess prints message to w. Single lines get a checkmark;
// multi-line content such as boards and tables is printed untouched.
func writeHumanSuccess(w io.Writer, message string) {
	if message == "" {
		return
	}
	if strings.Contains(message, "\n") || !render.ColorsEnabled() {
		fmt.Fprintln(w, message)
		return
	}
	icon := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render("\u2714")
	fmt.Fprintf(w, "%s %s\n", icon, message)
}

func writeHumanError(w io.Writer, err error, code ErrorCode) {
	if render.ColorsEnabled() {
		red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
		fmt.Fprintf(w, "%s %s %s\n", red.Render("\u2718"), red.Render("Error:"), err)
		if code == ErrUnavailable {
			fmt.Fprintln(w, lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(unavailableHint))
		}
		return
	}
	fmt.Fprintf(w, "Error: %s\n", err)
	if code == ErrUnavailable {
		fmt.Fprintln(w, unavailableHint)
	}
}

func writeHumanWarning(w io.Writer, msg string) {
	if !render.ColorsEnabled() {
		fmt.Fprintf(w, "Warning: %s\n", msg)
		return
	}
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	fmt.Fprintf(w, "%s %s %s\n", yellow.Render("\u26a0"), yellow.Render("Warning:"), msg)
}
