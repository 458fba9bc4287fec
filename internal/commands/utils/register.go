package utils

import (
	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

// Command builds the /utils group
func Command() *discord.Command {
	return discord.NewGroup(
		"utils",
		"Comandos de utilidad",
		"utils",
		createPingCommand(),
		createStatusCommand(),
		createHelpCommand(),
		createStatsCommand(),
	)
}
