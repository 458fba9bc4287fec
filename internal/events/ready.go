package events

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// Presence is the activity shown once the bot is ready
const Presence = "🎵 Música con /play"

func readyEvents() []*discord.Event {
	return []*discord.Event{
		discord.On("ready-presence", onReady),
	}
}

// onReady is called when the bot successfully connects to Discord
func onReady(ctx *discord.EventContext, r *discordgo.Ready) error {
	logger.Info(fmt.Sprintf("📊 Conectado a %d servidores", len(r.Guilds)), "Ready")
	if ctx.Session == nil {
		return nil
	}

	if err := ctx.Session.UpdateGameStatus(0, Presence); err != nil {
		return fmt.Errorf("establecer estado: %w", err)
	}
	logger.Debug("Estado del bot establecido correctamente", "Ready")
	return nil
}
