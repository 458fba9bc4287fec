// Package music provides the slash commands that drive the Lavalink player.
package music

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/lavalink"
)

const unavailable = "❌ El sistema de música no está disponible."

var minVolume = float64(lavalink.MinVolume)

// Commands returns every music command
func Commands() []*discord.Command {
	return []*discord.Command{
		discord.NewCommand("play", "Reproduce una canción o la añade a la cola", "music", playHandler).
			WithOptions(&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Nombre de la canción o URL",
				Required:    true,
			}).
			WithAliases("p").
			WithCooldown().
			RequiresVoice(),
		discord.NewCommand("pause", "Pausa la reproducción", "music", pauseHandler(true)).RequiresVoice(),
		discord.NewCommand("resume", "Reanuda la reproducción", "music", pauseHandler(false)).RequiresVoice(),
		discord.NewCommand("skip", "Salta a la siguiente canción", "music", skipHandler).RequiresVoice(),
		discord.NewCommand("stop", "Detiene la reproducción y limpia la cola", "music", stopHandler).
			WithAliases("leave").
			RequiresVoice(),
		discord.NewCommand("queue", "Muestra la cola de reproducción", "music", queueHandler),
		discord.NewCommand("nowplaying", "Muestra la canción que se está reproduciendo", "music", nowPlayingHandler).
			WithAliases("np"),
		discord.NewCommand("volume", "Ajusta el volumen de reproducción", "music", volumeHandler).
			WithOptions(&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "level",
				Description: "Nivel de volumen (0-1000)",
				Required:    true,
				MinValue:    &minVolume,
				MaxValue:    lavalink.MaxVolume,
			}).
			RequiresVoice(),
		discord.NewCommand("loop", "Cambia el modo de repetición", "music", loopHandler).
			WithOptions(&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "mode",
				Description: "Modo de repetición",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Off", Value: int(lavalink.RepeatOff)},
					{Name: "This Song", Value: int(lavalink.RepeatSong)},
					{Name: "All Queue", Value: int(lavalink.RepeatQueue)},
				},
			}).
			RequiresVoice(),
		discord.NewCommand("autoplay", "Activa o desactiva la reproducción automática", "music", autoplayHandler).
			RequiresVoice(),
		discord.NewCommand("filter", "Activa o desactiva un filtro de audio", "music", filterHandler).
			WithOptions(&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Filtro a alternar, off los quita todos",
				Required:    true,
				Choices:     filterChoices(),
			}).
			RequiresVoice(),
	}
}

func filterChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := []*discordgo.ApplicationCommandOptionChoice{{Name: "off", Value: "off"}}
	for _, name := range lavalink.FilterNames() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}
	return choices
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

// failure renders a player error for the user
func failure(err error) string {
	switch {
	case errors.Is(err, lavalink.ErrNoPlayer):
		return "🔇 No hay nada reproduciéndose."
	case errors.Is(err, lavalink.ErrNoNodes):
		return "❌ No hay servidores de música disponibles."
	default:
		return fmt.Sprintf("❌ Error: %v", err)
	}
}

// playHandler handles the /play command
func playHandler(ctx *discord.CommandContext) error {
	lc := lavalink.Get()
	if lc == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	query := strings.TrimSpace(ctx.GetStringOption("query"))
	if query == "" {
		return ctx.ReplyEphemeral("❌ Debes proporcionar una canción para reproducir.")
	}

	// search and voice join may take a while
	if err := ctx.Defer(); err != nil {
		return err
	}

	c, cancel := requestContext()
	defer cancel()
	err := lc.Play(c, ctx.Interaction.GuildID, ctx.VoiceChannelID(), ctx.Interaction.ChannelID, query, ctx.User().Mention())
	switch {
	case errors.Is(err, lavalink.ErrNoResults):
		return ctx.EditReply(fmt.Sprintf("⛔ | No result found for `%s`!", query))
	case err != nil:
		return ctx.EditReply(failure(err))
	}
	return ctx.EditReply(fmt.Sprintf("🔎 | Buscando `%s`...", query))
}

func pauseHandler(pause bool) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		lc := lavalink.Get()
		if lc == nil {
			return ctx.ReplyEphemeral(unavailable)
		}
		c, cancel := requestContext()
		defer cancel()
		if err := lc.Pause(c, ctx.Interaction.GuildID, pause); err != nil {
			return ctx.ReplyEphemeral(failure(err))
		}
		if pause {
			return ctx.Reply("⏸️ Reproducción pausada.")
		}
		return ctx.Reply("▶️ Reproducción reanudada.")
	}
}

// skipHandler handles the /skip command
func skipHandler(ctx *discord.CommandContext) error {
	lc := lavalink.Get()
	if lc == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	c, cancel := requestContext()
	defer cancel()
	next, err := lc.Skip(c, ctx.Interaction.GuildID)
	if err != nil {
		return ctx.ReplyEphemeral(failure(err))
	}
	if next == nil {
		return ctx.Reply("⏹️ No quedan canciones en la cola.")
	}
	return ctx.Reply(fmt.Sprintf("⏭️ Saltada. Ahora: **%s**", next.Info.Title))
}

// stopHandler handles the /stop command
func stopHandler(ctx *discord.CommandContext) error {
	lc := lavalink.Get()
	if lc == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	c, cancel := requestContext()
	defer cancel()
	if err := lc.Stop(c, ctx.Interaction.GuildID); err != nil {
		return ctx.ReplyEphemeral(failure(err))
	}
	return ctx.Reply("⏹️ Reproducción detenida y cola limpiada.")
}

// queueHandler handles the /queue command
func queueHandler(ctx *discord.CommandContext) error {
	lc := lavalink.Get()
	if lc == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	p := lc.Player(ctx.Interaction.GuildID)
	if p == nil {
		return ctx.Reply("📭 La cola está vacía.")
	}
	current, queue := p.NowPlaying()
	if current == nil && len(queue) == 0 {
		return ctx.Reply("📭 La cola está vacía.")
	}
	return ctx.ReplyEmbed(discord.NewEmbed(ctx.Client.Config.Colors.Music, "📋 Cola de reproducción", formatQueue(current, queue, p.Status())))
}

func formatQueue(current *lavalink.Track, queue []*lavalink.Track, status string) string {
	var sb strings.Builder
	if current != nil {
		fmt.Fprintf(&sb, "🎵 **Reproduciendo:** %s - `%s`\n\n", current.Info.Title, current.FormattedDuration())
	}
	for i, t := range queue {
		if i >= 10 {
			fmt.Fprintf(&sb, "... y %d más\n", len(queue)-10)
			break
		}
		fmt.Fprintf(&sb, "%d. %s - `%s`\n", i+1, t.Info.Title, t.FormattedDuration())
	}
	sb.WriteString("\n" + status)
	return sb.String()
}

// nowPlayingHandler handles the /nowplaying command
func nowPlayingHandler(ctx *discord.CommandContext) error {
	lc := lavalink.Get()
	if lc == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	p := lc.Player(ctx.Interaction.GuildID)
	if p == nil {
		return ctx.Reply("🔇 No hay nada reproduciéndose.")
	}
	track, _ := p.NowPlaying()
	if track == nil {
		return ctx.Reply("🔇 No hay nada reproduciéndose.")
	}

	state := p.State()
	position := &lavalink.Track{Info: lavalink.TrackInfo{Length: int64(state.Progress * 1000)}}
	embed := discord.NewEmbed(ctx.Client.Config.Colors.Music, "🎵 Reproduciendo ahora", fmt.Sprintf("[%s](%s)", track.Info.Title, track.Info.URI))
	if track.Info.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.Info.ArtworkURL}
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		discord.Field("Artista", track.Info.Author, true),
		discord.Field("Progreso", fmt.Sprintf("%s / %s", position.FormattedDuration(), track.FormattedDuration()), true),
		discord.Field("Pedida por", track.Requester, true),
		discord.Field("Estado", p.Status(), false),
	}
	return ctx.ReplyEmbed(embed)
}

// volumeHandler handles the /volume command
func volumeHandler(ctx *discord.CommandContext) error {
	lc := lavalink.Get()
	if lc == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	c, cancel := requestContext()
	defer cancel()
	volume, err := lc.SetVolume(c, ctx.Interaction.GuildID, int(ctx.GetIntOption("level")))
	if err != nil {
		return ctx.ReplyEphemeral(failure(err))
	}
	return ctx.Reply(fmt.Sprintf("🔊 Volumen ajustado a %d%%", volume))
}

// loopHandler handles the /loop command
func loopHandler(ctx *discord.CommandContext) error {
	lc := lavalink.Get()
	if lc == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	mode := lavalink.RepeatMode(ctx.GetIntOption("mode"))
	if err := lc.SetRepeat(ctx.Interaction.GuildID, mode); err != nil {
		return ctx.ReplyEphemeral(failure(err))
	}
	return ctx.Reply(fmt.Sprintf("🔁 Loop: `%s`", mode))
}

// autoplayHandler handles the /autoplay command
func autoplayHandler(ctx *discord.CommandContext) error {
	lc := lavalink.Get()
	if lc == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	on, err := lc.ToggleAutoplay(ctx.Interaction.GuildID)
	if err != nil {
		return ctx.ReplyEphemeral(failure(err))
	}
	if on {
		return ctx.Reply("📻 Autoplay: `On`")
	}
	return ctx.Reply("📻 Autoplay: `Off`")
}

// filterHandler handles the /filter command
func filterHandler(ctx *discord.CommandContext) error {
	lc := lavalink.Get()
	if lc == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	c, cancel := requestContext()
	defer cancel()
	names, err := lc.ToggleFilter(c, ctx.Interaction.GuildID, ctx.GetStringOption("name"))
	if err != nil {
		return ctx.ReplyEphemeral(failure(err))
	}
	if len(names) == 0 {
		return ctx.Reply("🎛️ Filtros: `Off`")
	}
	return ctx.Reply(fmt.Sprintf("🎛️ Filtros: `%s`", strings.Join(names, ", ")))
}
