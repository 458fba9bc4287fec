// Package main is the entry point for Apexie.
// It wires configuration, persistence, MQTT control, the status API and the Discord client.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PancyStudios/ApexieGo/internal/commands"
	"github.com/PancyStudios/ApexieGo/internal/events"
	"github.com/PancyStudios/ApexieGo/pkg/config"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/loader"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

var modulesPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "apexie",
		Short:         "Apexie Discord bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBot,
	}
	rootCmd.PersistentFlags().StringVarP(&modulesPath, "modules", "m", "", "script modules directory (overrides modulesPath)")

	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(syncCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// boot loads the configuration and starts the global logger
func boot() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	applyFlags(cfg)

	logger.Init(logger.Options{
		ErrorWebhook: cfg.ErrorWebhook,
		LogsWebhook:  cfg.LogsWebhook,
		Debug:        !cfg.IsProd(),
	})
	return cfg, nil
}

// applyFlags layers command-line overrides over the environment
func applyFlags(cfg *config.Config) {
	if modulesPath != "" {
		cfg.ModulesPath = modulesPath
	}
}

// reloadConfig re-reads the environment for a restart and keeps the flag overrides
func reloadConfig() (*config.Config, error) {
	cfg, err := config.Reload()
	if err != nil {
		return nil, err
	}
	applyFlags(cfg)
	return cfg, nil
}

// sources lists the built-in modules followed by the script directory
func sources(cfg *config.Config) []discord.ModuleSource {
	return []discord.ModuleSource{
		&discord.StaticSource{
			Name: "builtin",
			Commands: commands.All(commands.Options{
				Music:     cfg.MusicEnabled,
				Giveaways: cfg.GiveawaysEnabled,
			}),
			Events: events.All(),
		},
		loader.NewDir(cfg.ModulesPath),
	}
}
