package output

import (
	"fmt"
	"strings"
)

// BranchStatus is one row of branch status output
type BranchStatus struct {
	Name     string
	Current  bool
	Remote   bool
	Upstream string // empty when the branch tracks nothing
	Ahead    *int
	Behind   *int
}

// FormatDivergence renders ahead/behind counts, e.g. "↑2 ↓1".
// Unknown counts on a tracking branch render as "unrelated history".
func FormatDivergence(status BranchStatus) string {
	if status.Upstream == "" {
		return ""
	}
	if status.Ahead == nil || status.Behind == nil {
		return ColorYellow("unrelated history")
	}
	if *status.Ahead == 0 && *status.Behind == 0 {
		return ColorDim("up to date")
	}

	var parts []string
	if *status.Ahead > 0 {
		parts = append(parts, ColorGreen(fmt.Sprintf("↑%d", *status.Ahead)))
	}
	if *status.Behind > 0 {
		parts = append(parts, ColorRed(fmt.Sprintf("↓%d", *status.Behind)))
	}
	return strings.Join(parts, " ")
}

// RenderBranchList renders one aligned line per branch:
//
//	* main     [origin/main] ↑1
//	  feature  [main] up to date
func RenderBranchList(statuses []BranchStatus) []string {
	width := 0
	for _, s := range statuses {
		if len(s.Name) > width {
			width = len(s.Name)
		}
	}

	lines := make([]string, 0, len(statuses))
	for _, s := range statuses {
		marker := "  "
		if s.Current {
			marker = "* "
		}

		name := s.Name
		padding := strings.Repeat(" ", width-len(name))
		if s.Remote {
			name = ColorDim(name)
		} else {
			name = ColorBranchName(name, s.Current)
		}

		line := marker + name + padding
		if s.Upstream != "" {
			line += "  " + ColorCyan("["+s.Upstream+"]") + " " + FormatDivergence(s)
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}
