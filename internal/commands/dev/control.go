package dev

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

const denied = "❌ **Acceso Denegado:** Este comando es solo para desarrolladores."

func createRestartCommand() *discord.Command {
	return discord.NewCommand("restart", "Reinicia el cliente y recarga los módulos", "dev", restartHandler)
}

func createShutdownCommand() *discord.Command {
	return discord.NewCommand("shutdown", "Apaga el bot", "dev", shutdownHandler)
}

func createModulesCommand() *discord.Command {
	return discord.NewCommand("modules", "Muestra los módulos cargados y sus errores", "dev", modulesHandler)
}

func restartHandler(ctx *discord.CommandContext) error {
	if !ctx.Client.Config.IsOwner(ctx.User().ID) {
		return ctx.ReplyEphemeral(denied)
	}
	if err := ctx.ReplyEphemeral("🔄 Reiniciando..."); err != nil {
		return err
	}

	// the restart closes the session that delivered this interaction
	current := ctx.Client
	go func() {
		c, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := current.Restart(c); err != nil {
			logger.Error("Error al reiniciar: "+err.Error(), "Dev")
		}
	}()
	return nil
}

func shutdownHandler(ctx *discord.CommandContext) error {
	if !ctx.Client.Config.IsOwner(ctx.User().ID) {
		return ctx.ReplyEphemeral(denied)
	}
	if err := ctx.ReplyEphemeral("👋 Apagando..."); err != nil {
		return err
	}

	current := ctx.Client
	go func() {
		c, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		current.Shutdown(c)
	}()
	return nil
}

func modulesHandler(ctx *discord.CommandContext) error {
	if !ctx.Client.Config.IsOwner(ctx.User().ID) {
		return ctx.ReplyEphemeral(denied)
	}
	embed := discord.NewEmbed(ctx.Client.Config.Colors.Default, "🧩 Módulos", fmt.Sprintf(
		"Estado: `%s`\nComandos globales: %d\nComandos privados: %d\nEventos: %d (%s)",
		ctx.Client.State(),
		len(ctx.Client.Commands.Commands(discord.ScopeGlobal)),
		len(ctx.Client.Commands.Commands(discord.ScopeGuild)),
		ctx.Client.Events.Size(),
		strings.Join(ctx.Client.Events.Types(), ", "),
	))
	if diags := ctx.Client.Diagnostics(); len(diags) > 0 {
		embed.Fields = append(embed.Fields, discord.Field("Diagnósticos", FormatDiagnostics(diags, 1000), false))
	}
	return ctx.ReplyEphemeralEmbed(embed)
}

// FormatDiagnostics renders one line per error, cut to limit characters
func FormatDiagnostics(diags []error, limit int) string {
	var sb strings.Builder
	for i, err := range diags {
		line := fmt.Sprintf("• %v\n", err)
		if sb.Len()+len(line) > limit {
			fmt.Fprintf(&sb, "... y %d más", len(diags)-i)
			break
		}
		sb.WriteString(line)
	}
	return sb.String()
}
