package lavalink

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// humansIn counts the members in a voice channel that are not bots
func humansIn(guild *discordgo.Guild, channelID, botID string) int {
	if guild == nil || channelID == "" {
		return 0
	}
	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID || vs.UserID == botID {
			continue
		}
		if vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot {
			continue
		}
		count++
	}
	return count
}

// HandleVoiceState tracks the bot's own voice session and stops the player
// when the bot is disconnected or left alone in its channel
func (c *LavalinkClient) HandleVoiceState(botID string, v *discordgo.VoiceState, guild *discordgo.Guild) {
	p := c.Player(v.GuildID)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if v.UserID == botID {
		if v.ChannelID == "" {
			if err := c.Stop(ctx, v.GuildID); err != nil {
				logger.Warn(fmt.Sprintf("Error al detener la música en %s: %v", v.GuildID, err), "Lavalink")
			}
			return
		}
		p.mu.Lock()
		p.voice.sessionID = v.SessionID
		p.VoiceChannelID = v.ChannelID
		p.mu.Unlock()
		c.sendVoice(ctx, p)
		return
	}

	p.mu.RLock()
	channelID := p.VoiceChannelID
	p.mu.RUnlock()
	if guild != nil && humansIn(guild, channelID, botID) == 0 {
		c.listener.Empty(p)
		if err := c.Stop(ctx, v.GuildID); err != nil {
			logger.Warn(fmt.Sprintf("Error al salir del canal vacío en %s: %v", v.GuildID, err), "Lavalink")
		}
	}
}

// HandleVoiceServer stores the voice server of a guild and forwards it
func (c *LavalinkClient) HandleVoiceServer(v *discordgo.VoiceServerUpdate) {
	p := c.Player(v.GuildID)
	if p == nil {
		return
	}
	p.mu.Lock()
	p.voice.token = v.Token
	p.voice.endpoint = v.Endpoint
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.sendVoice(ctx, p)
}

func (c *LavalinkClient) sendVoice(ctx context.Context, p *Player) {
	p.mu.RLock()
	voice := p.voice
	p.mu.RUnlock()
	if !voice.complete() {
		return
	}

	err := c.update(ctx, p.GuildID, PlayerUpdate{Voice: &VoiceUpdate{
		Token:     voice.token,
		Endpoint:  voice.endpoint,
		SessionID: voice.sessionID,
	}})
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo enviar la conexión de voz de %s: %v", p.GuildID, err), "Lavalink")
	}
}
