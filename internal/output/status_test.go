package output

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int {
	return &n
}

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	m.Run()
}

func TestFormatDivergence(t *testing.T) {
	tests := []struct {
		name   string
		status BranchStatus
		want   string
	}{
		{"untracked", BranchStatus{Name: "main"}, ""},
		{"unrelated", BranchStatus{Name: "main", Upstream: "origin/main"}, "unrelated history"},
		{"up to date", BranchStatus{Name: "main", Upstream: "origin/main", Ahead: intPtr(0), Behind: intPtr(0)}, "up to date"},
		{"ahead", BranchStatus{Name: "main", Upstream: "origin/main", Ahead: intPtr(2), Behind: intPtr(0)}, "↑2"},
		{"diverged", BranchStatus{Name: "main", Upstream: "origin/main", Ahead: intPtr(2), Behind: intPtr(1)}, "↑2 ↓1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatDivergence(tt.status))
		})
	}
}

func TestRenderBranchList(t *testing.T) {
	lines := RenderBranchList([]BranchStatus{
		{Name: "feature", Upstream: "main", Ahead: intPtr(1), Behind: intPtr(0)},
		{Name: "main", Current: true},
		{Name: "origin/main", Remote: true},
	})

	require.Equal(t, []string{
		"  feature      [main] ↑1",
		"* main",
		"  origin/main",
	}, lines)
}
