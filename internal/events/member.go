package events

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/database"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

func memberEvents() []*discord.Event {
	return []*discord.Event{
		discord.On("member-welcome", onGuildMemberAdd),
		discord.On("member-leave", onGuildMemberRemove),
		discord.On("member-update", onGuildMemberUpdate),
	}
}

// welcomeChannel picks the configured welcome channel, then the system channel
func welcomeChannel(configured string, guild *discordgo.Guild) string {
	if configured != "" {
		return configured
	}
	if guild != nil {
		return guild.SystemChannelID
	}
	return ""
}

// onGuildMemberAdd is called when a new member joins the server
func onGuildMemberAdd(ctx *discord.EventContext, m *discordgo.GuildMemberAdd) error {
	if m.Member == nil || m.User == nil {
		return nil
	}
	logger.Info(fmt.Sprintf("👋 Nuevo miembro: %s en servidor %s", m.User.Username, m.GuildID), "Member")
	if ctx.Session == nil || m.User.Bot {
		return nil
	}

	guild, err := ctx.Session.State.Guild(m.GuildID)
	if err != nil {
		if guild, err = ctx.Session.Guild(m.GuildID); err != nil {
			return fmt.Errorf("obtener servidor: %w", err)
		}
	}

	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	channelID := welcomeChannel(database.GetGuildConfig(c, m.GuildID).WelcomeChannel, guild)
	if channelID == "" {
		return nil
	}

	embed := discord.NewEmbed(ctx.Config().Colors.Success, "¡Bienvenido/a! 🎉",
		fmt.Sprintf("Dale la bienvenida a <@%s>\nAhora somos **%d** miembros.", m.User.ID, guild.MemberCount))
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: m.User.AvatarURL("128")}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: guild.Name, IconURL: guild.IconURL("64")}

	_, err = ctx.Session.ChannelMessageSendEmbed(channelID, embed)
	return err
}

// onGuildMemberRemove is called when a member leaves the server
func onGuildMemberRemove(_ *discord.EventContext, m *discordgo.GuildMemberRemove) error {
	if m.Member == nil || m.User == nil {
		return nil
	}
	logger.Info(fmt.Sprintf("👋 Adiós: %s salió del servidor %s", m.User.Username, m.GuildID), "Member")
	return nil
}

// onGuildMemberUpdate logs nickname and role changes
func onGuildMemberUpdate(_ *discord.EventContext, m *discordgo.GuildMemberUpdate) error {
	if m.Member == nil || m.User == nil || m.BeforeUpdate == nil {
		return nil
	}
	if m.BeforeUpdate.Nick != m.Nick {
		logger.Debug(fmt.Sprintf("✏️ %s cambió nickname: '%s' → '%s'",
			m.User.Username, m.BeforeUpdate.Nick, m.Nick), "Member")
	}
	if len(m.BeforeUpdate.Roles) != len(m.Roles) {
		logger.Debug(fmt.Sprintf("🎭 Roles actualizados para %s", m.User.Username), "Member")
	}
	return nil
}
