// Package dev provides the developer commands, published only to the configured guild.
package dev

import (
	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

// Command builds the private /dev group
func Command() *discord.Command {
	return discord.NewGroup(
		"dev",
		"Comandos de desarrollo",
		"dev",
		createEvalCommand(),
		createRestartCommand(),
		createShutdownCommand(),
		createModulesCommand(),
	).AsPrivate()
}
