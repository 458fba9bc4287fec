package leveling

import (
	"strings"
	"testing"

	"github.com/PancyStudios/ApexieGo/pkg/models"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		progress, total int64
		want            string
	}{
		{0, 100, "░░░░░"},
		{50, 100, "██░░░"},
		{100, 100, "█████"},
		{150, 100, "█████"},
		{10, 0, "░░░░░"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.progress, tt.total, 5); got != tt.want {
			t.Errorf("ProgressBar(%d, %d) = %q, want %q", tt.progress, tt.total, got, tt.want)
		}
	}
}

func TestFormatLeaderboard(t *testing.T) {
	top := []*models.Level{
		{UserID: "a", Level: 5, XP: 900},
		{UserID: "b", Level: 4, XP: 700},
		{UserID: "c", Level: 3, XP: 500},
		{UserID: "d", Level: 1, XP: 120},
	}
	lines := strings.Split(strings.TrimSpace(FormatLeaderboard(top)), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(lines))
	}
	if lines[0] != "🥇 <@a> - Nivel 5 (900 XP)" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[3] != "`#4` <@d> - Nivel 1 (120 XP)" {
		t.Errorf("fourth line = %q", lines[3])
	}
}
