package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/ApexieGo/pkg/database"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

// createStatusCommand creates the /utils status subcommand
func createStatusCommand() *discord.Command {
	return discord.NewCommand(
		"status",
		"Muestra el estado del bot",
		"utils",
		statusHandler,
	)
}

// statusHandler handles the /utils status command
func statusHandler(ctx *discord.CommandContext) error {
	dbStatus := "🔴 | Desconectado"
	if db := database.Get(); db != nil {
		c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		dbStatus, _ = db.Status(c)
	}

	return ctx.Reply(fmt.Sprintf(
		"📊 **Estado del Bot**\n"+
			"• Bot: 🟢 %s\n"+
			"• Base de datos: %s\n"+
			"• Servidores: %d\n"+
			"• Módulos: %d comandos, %d eventos",
		ctx.Client.State(),
		dbStatus,
		ctx.Client.GuildCount(),
		ctx.Client.Commands.Size(),
		ctx.Client.Events.Size(),
	))
}
