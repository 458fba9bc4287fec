package utils

import (
	"fmt"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

// createPingCommand creates the /utils ping subcommand
func createPingCommand() *discord.Command {
	return discord.NewCommand(
		"ping",
		"Comprueba la latencia del bot",
		"utils",
		pingHandler,
	).WithCooldown()
}

// pingHandler handles the /utils ping command
func pingHandler(ctx *discord.CommandContext) error {
	if ctx.Session == nil {
		return ctx.Reply("🏓 Pong!")
	}
	latency := ctx.Session.HeartbeatLatency().Milliseconds()
	return ctx.Reply(fmt.Sprintf("🏓 Pong! Latencia: %dms", latency))
}
