package main

import (
	"fmt"
	"testing"
)

func TestReleaserRunsOnce(t *testing.T) {
	var calls []string
	release := releaser(
		func() { calls = append(calls, "server") },
		func() { calls = append(calls, "mqtt") },
		func() { calls = append(calls, "logger") },
	)

	release()
	release()

	if got := fmt.Sprint(calls); got != "[server mqtt logger]" {
		t.Errorf("calls = %v, want [server mqtt logger]", got)
	}
}

func TestReloadConfigKeepsFlags(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag overrides environment", "/srv/modules", "./env-modules", "/srv/modules"},
		{"environment without flag", "", "./env-modules", "./env-modules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("modulesPath", tt.env)
			t.Setenv("configFile", "")
			modulesPath = tt.flag
			defer func() { modulesPath = "" }()

			cfg, err := reloadConfig()
			if err != nil {
				t.Fatalf("reloadConfig() = %v", err)
			}
			if cfg.ModulesPath != tt.want {
				t.Errorf("ModulesPath = %q, want %q", cfg.ModulesPath, tt.want)
			}
		})
	}
}
