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

func messageEvents() []*discord.Event {
	return []*discord.Event{
		discord.On("message-leveling", onMessageLeveling),
		discord.On("message-mention", onMessageMention),
		discord.On("message-update", onMessageUpdate),
		discord.On("message-delete", onMessageDelete),
	}
}

// channelSender is the part of the session used for announcements
type channelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func onMessageLeveling(ctx *discord.EventContext, m *discordgo.MessageCreate) error {
	if ctx.Session == nil {
		return nil
	}
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return awardXP(c, ctx.Session, m, time.Now())
}

// awardXP grants message experience and announces level-ups
func awardXP(c context.Context, send channelSender, m *discordgo.MessageCreate, now time.Time) error {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return nil
	}

	cfg := database.GetGuildConfig(c, m.GuildID)
	if !cfg.LevelingEnabled {
		return nil
	}

	record, leveled, err := database.AwardMessageXP(c, m.GuildID, m.Author.ID, now)
	if err != nil {
		// offline writes are queued, the record is still usable
		logger.Debug(fmt.Sprintf("XP de %s pendiente: %v", m.Author.ID, err), "Leveling")
	}
	if !leveled || record == nil {
		return nil
	}

	channelID := cfg.LevelUpChannel
	if channelID == "" {
		channelID = m.ChannelID
	}
	_, err = send.ChannelMessageSend(channelID, levelUpMessage(m.Author.ID, record.Level))
	return err
}

func levelUpMessage(userID string, level int) string {
	return fmt.Sprintf("🎉 ¡Felicidades <@%s>! Has subido al nivel **%d**.", userID, level)
}

// mentionsUser reports whether the message mentions userID
func mentionsUser(m *discordgo.Message, userID string) bool {
	for _, mention := range m.Mentions {
		if mention.ID == userID {
			return true
		}
	}
	return false
}

// onMessageMention answers when someone mentions the bot
func onMessageMention(ctx *discord.EventContext, m *discordgo.MessageCreate) error {
	if ctx.Session == nil || ctx.Session.State == nil || ctx.Session.State.User == nil {
		return nil
	}
	if m.Author == nil || m.Author.Bot || !mentionsUser(m.Message, ctx.Session.State.User.ID) {
		return nil
	}

	embed := discord.NewEmbed(ctx.Config().Colors.Default, "👋 ¡Hola!",
		"Usa comandos **slash (/)** para interactuar conmigo.\nEscribe `/utils help` para ver todos los comandos disponibles.")
	embed.Fields = []*discordgo.MessageEmbedField{
		discord.Field("🎵 Música", "`/play` - Reproduce música", true),
		discord.Field("📈 Niveles", "`/rank` - Tu nivel", true),
		discord.Field("❓ Ayuda", "`/utils help` - Ver todos los comandos", true),
	}
	_, err := ctx.Session.ChannelMessageSendEmbed(m.ChannelID, embed)
	return err
}

// onMessageUpdate is called when a message is edited
func onMessageUpdate(_ *discord.EventContext, m *discordgo.MessageUpdate) error {
	if m.Author != nil && !m.Author.Bot {
		logger.Debug(fmt.Sprintf("✏️ Mensaje editado por %s en canal %s",
			m.Author.Username, m.ChannelID), "Message")
	}
	return nil
}

// onMessageDelete is called when a message is deleted
func onMessageDelete(_ *discord.EventContext, m *discordgo.MessageDelete) error {
	logger.Debug(fmt.Sprintf("🗑️ Mensaje eliminado: ID %s en canal %s",
		m.ID, m.ChannelID), "Message")
	return nil
}
