// Package giveaways provides the /giveaway command group.
package giveaways

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/giveaway"
)

const unavailable = "❌ Los sorteos no están disponibles."

var minWinners = 1.0

// Command builds the /giveaway group
func Command() *discord.Command {
	start := discord.NewCommand("start", "Inicia un sorteo", "giveaways", startHandler).
		WithOptions(
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "duration",
				Description: "Duración, por ejemplo 30m, 2h o 1d",
				Required:    true,
			},
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "winners",
				Description: "Número de ganadores",
				Required:    true,
				MinValue:    &minWinners,
				MaxValue:    20,
			},
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "prize",
				Description: "Premio del sorteo",
				Required:    true,
			},
			&discordgo.ApplicationCommandOption{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "Canal del sorteo, por defecto el actual",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		)
	end := discord.NewCommand("end", "Finaliza un sorteo ahora", "giveaways", endHandler).
		WithOptions(messageOption())
	reroll := discord.NewCommand("reroll", "Elige nuevos ganadores de un sorteo finalizado", "giveaways", rerollHandler).
		WithOptions(messageOption(), &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "winners",
			Description: "Número de ganadores, por defecto los del sorteo",
			MinValue:    &minWinners,
			MaxValue:    20,
		})

	return discord.NewGroup("giveaway", "Gestiona sorteos", "giveaways", start, end, reroll).
		WithUserPermissions(discordgo.PermissionManageGuild)
}

func messageOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "message_id",
		Description: "ID del mensaje del sorteo",
		Required:    true,
	}
}

// ParseDuration accepts time.ParseDuration strings plus a day suffix such as "1d12h"
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	var days time.Duration
	if i := strings.Index(s, "d"); i > 0 {
		n, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		days = time.Duration(n) * 24 * time.Hour
		s = s[i+1:]
	}
	if s == "" {
		if days <= 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return days, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return days + d, nil
}

func startHandler(ctx *discord.CommandContext) error {
	m := giveaway.Get()
	if m == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	duration, err := ParseDuration(ctx.GetStringOption("duration"))
	if err != nil || duration < 10*time.Second {
		return ctx.ReplyEphemeral("❌ Duración inválida. Usa por ejemplo `30m`, `2h` o `1d`.")
	}

	channelID := ctx.Interaction.ChannelID
	if opt := ctx.GetOption("channel"); opt != nil {
		channelID = fmt.Sprint(opt.Value)
	}

	g, err := m.Start(giveaway.StartOptions{
		ChannelID: channelID,
		GuildID:   ctx.Interaction.GuildID,
		Prize:     ctx.GetStringOption("prize"),
		Winners:   int(ctx.GetIntOption("winners")),
		Duration:  duration,
		HostedBy:  ctx.User().ID,
	})
	if err != nil {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ No se pudo iniciar el sorteo: %v", err))
	}
	return ctx.ReplyEphemeral(fmt.Sprintf("🎉 Sorteo iniciado en <#%s> (`%s`).", g.ChannelID, g.MessageID))
}

func endHandler(ctx *discord.CommandContext) error {
	m := giveaway.Get()
	if m == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	_, err := m.End(ctx.GetStringOption("message_id"))
	switch {
	case errors.Is(err, giveaway.ErrNotFound):
		return ctx.ReplyEphemeral("❌ No encontré ese sorteo.")
	case errors.Is(err, giveaway.ErrAlreadyEnded):
		return ctx.ReplyEphemeral("❌ Ese sorteo ya terminó.")
	case err != nil:
		return err
	}
	return ctx.ReplyEphemeral("✅ Sorteo finalizado.")
}

func rerollHandler(ctx *discord.CommandContext) error {
	m := giveaway.Get()
	if m == nil {
		return ctx.ReplyEphemeral(unavailable)
	}
	winners, err := m.Reroll(ctx.GetStringOption("message_id"), int(ctx.GetIntOption("winners")))
	switch {
	case errors.Is(err, giveaway.ErrNotFound):
		return ctx.ReplyEphemeral("❌ No encontré ese sorteo.")
	case errors.Is(err, giveaway.ErrNotEnded):
		return ctx.ReplyEphemeral("❌ Ese sorteo todavía no terminó.")
	case err != nil:
		return err
	}
	return ctx.ReplyEphemeral(fmt.Sprintf("✅ %d ganador(es) elegidos de nuevo.", len(winners)))
}
