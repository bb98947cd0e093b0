package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// IsTTY reports whether stdout is a terminal
func IsTTY() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive reports whether both stdin and stdout are terminals.
// TREELINE_NON_INTERACTIVE forces it off.
func IsInteractive() bool {
	if os.Getenv("TREELINE_NON_INTERACTIVE") != "" {
		return false
	}
	in := os.Stdin.Fd()
	return IsTTY() && (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in))
}

// ConfigureColors turns styling off when stdout is not a terminal or NO_COLOR is set
func ConfigureColors() {
	if !IsTTY() || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

func colored(color, text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Render(text)
}

// ColorRed colors text red
func ColorRed(text string) string {
	return colored("1", text)
}

// ColorGreen colors text green
func ColorGreen(text string) string {
	return colored("2", text)
}

// ColorYellow colors text yellow
func ColorYellow(text string) string {
	return colored("3", text)
}

// ColorCyan colors text cyan
func ColorCyan(text string) string {
	return colored("6", text)
}

// ColorDim makes text dim/gray
func ColorDim(text string) string {
	return colored("8", text)
}

// ColorBranchName colors a branch name based on whether it's current
func ColorBranchName(branchName string, isCurrent bool) string {
	if isCurrent {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Render(branchName)
	}
	return colored("12", branchName)
}
