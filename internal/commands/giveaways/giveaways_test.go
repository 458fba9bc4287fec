package giveaways

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30m", 30 * time.Minute, false},
		{"2h", 2 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"1d12h", 36 * time.Hour, false},
		{" 2D ", 48 * time.Hour, false},
		{"", 0, true},
		{"d", 0, true},
		{"xd", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGiveawayCommandNeedsManageGuild(t *testing.T) {
	cmd := Command()
	if cmd.UserPermissions == 0 {
		t.Error("giveaway group has no permission requirement")
	}
	for _, name := range []string{"start", "end", "reroll"} {
		if cmd.Find([]string{name}) == nil {
			t.Errorf("missing subcommand %s", name)
		}
	}
}
