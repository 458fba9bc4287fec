package lavalink

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/config"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// Listener receives the music events of every player
type Listener interface {
	PlaySong(p *Player, t *Track)
	AddSong(p *Player, t *Track)
	AddList(p *Player, name string, tracks []*Track)
	Finish(p *Player)
	Empty(p *Player)
	Error(p *Player, err error)
	SearchNoResult(p *Player, query string)
}

// Messenger sends messages to text channels. *discordgo.Session implements it.
type Messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts music events to the text channel the player was started from
type Announcer struct {
	Messenger Messenger
	Colors    config.Palette
}

func (a *Announcer) embed(p *Player, color config.Color, description, thumbnail string) {
	if a.Messenger == nil || p.TextChannelID == "" {
		return
	}
	embed := &discordgo.MessageEmbed{
		Color:       int(color),
		Description: description,
	}
	if thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
	}
	if _, err := a.Messenger.ChannelMessageSendEmbed(p.TextChannelID, embed); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo anunciar en %s: %v", p.TextChannelID, err), "Music")
	}
}

func (a *Announcer) PlaySong(p *Player, t *Track) {
	a.embed(p, a.Colors.Success, fmt.Sprintf("🎶 | Playing `%s` - `%s`\nRequested by: %s\n%s",
		t.Info.Title, t.FormattedDuration(), requester(t), p.Status()), t.Info.ArtworkURL)
}

func (a *Announcer) AddSong(p *Player, t *Track) {
	a.embed(p, a.Colors.Success, fmt.Sprintf("🎶 | Added %s - `%s` to the queue by %s",
		t.Info.Title, t.FormattedDuration(), requester(t)), t.Info.ArtworkURL)
}

func (a *Announcer) AddList(p *Player, name string, tracks []*Track) {
	thumbnail := ""
	if len(tracks) > 0 {
		thumbnail = tracks[0].Info.ArtworkURL
	}
	a.embed(p, a.Colors.Success, fmt.Sprintf("🎶 | Added `%s` playlist (%d songs) to queue\n%s",
		name, len(tracks), p.Status()), thumbnail)
}

func (a *Announcer) Finish(p *Player) {
	a.embed(p, a.Colors.Success, "🏁 | Queue finished!", "")
}

func (a *Announcer) Empty(p *Player) {
	a.embed(p, a.Colors.Error, "⛔ | Voice channel is empty! Leaving the channel...", "")
}

func (a *Announcer) SearchNoResult(p *Player, query string) {
	a.embed(p, a.Colors.Error, fmt.Sprintf("⛔ | No result found for `%s`!", query), "")
}

func (a *Announcer) Error(p *Player, err error) {
	logger.Error(fmt.Sprintf("Error de música en %s: %v", p.GuildID, err), "Music")
	if a.Messenger == nil || p.TextChannelID == "" {
		return
	}
	msg := err.Error()
	if len(msg) > 1974 {
		msg = msg[:1974]
	}
	_, _ = a.Messenger.ChannelMessageSend(p.TextChannelID, "⛔ | An error encountered: "+msg)
}

func requester(t *Track) string {
	if t.Requester == "" {
		return "Autoplay"
	}
	return t.Requester
}
