package events

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// joinGrace separates a real join from the GuildCreate replayed on connect
const joinGrace = 10 * time.Second

func guildEvents() []*discord.Event {
	return []*discord.Event{
		discord.On("guild-join", onGuildCreate),
		discord.On("guild-leave", onGuildDelete),
	}
}

// isNewJoin reports whether the bot joined the guild just now
func isNewJoin(joinedAt, now time.Time) bool {
	return !joinedAt.IsZero() && !joinedAt.Before(now.Add(-joinGrace))
}

// onGuildCreate is called when the bot joins a server
func onGuildCreate(ctx *discord.EventContext, g *discordgo.GuildCreate) error {
	if g.Guild == nil || !isNewJoin(g.JoinedAt, time.Now()) {
		return nil
	}

	logger.Info(fmt.Sprintf("➕ Bot agregado a servidor: %s (ID: %s)", g.Name, g.ID), "Guild")
	logger.Debug(fmt.Sprintf("   Miembros: %d | Canales: %d", g.MemberCount, len(g.Channels)), "Guild")

	if g.SystemChannelID == "" || ctx.Session == nil {
		return nil
	}
	_, err := ctx.Session.ChannelMessageSendEmbed(g.SystemChannelID, joinEmbed(ctx))
	return err
}

func joinEmbed(ctx *discord.EventContext) *discordgo.MessageEmbed {
	embed := discord.NewEmbed(ctx.Config().Colors.Success, "¡Gracias por agregarme! 🎉",
		"Hola, soy **Apexie**. Usa `/utils help` para ver todos mis comandos.")
	embed.Fields = []*discordgo.MessageEmbedField{
		discord.Field("🎵 Música", "Reproduce música con `/play`", true),
		discord.Field("📈 Niveles", "Consulta tu nivel con `/rank`", true),
		discord.Field("🎉 Sorteos", "Organiza sorteos con `/giveaway`", true),
	}
	return embed
}

// onGuildDelete is called when the bot is removed from a server
func onGuildDelete(_ *discord.EventContext, g *discordgo.GuildDelete) error {
	if g.Guild == nil || g.Unavailable {
		return nil
	}
	logger.Info(fmt.Sprintf("➖ Bot removido del servidor ID: %s", g.ID), "Guild")
	return nil
}
