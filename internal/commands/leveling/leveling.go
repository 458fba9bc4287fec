// Package leveling provides the experience commands: rank, leaderboard and the guild settings.
package leveling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/database"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/models"
)

const offline = "❌ La base de datos no está disponible ahora mismo."

// Commands returns the leveling commands
func Commands() []*discord.Command {
	return []*discord.Command{
		discord.NewCommand("rank", "Muestra tu nivel o el de otro usuario", "leveling", rankHandler).
			WithOptions(&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Usuario a consultar",
			}).
			WithAliases("level").
			WithCooldown(),
		discord.NewCommand("leaderboard", "Muestra los usuarios con más experiencia", "leveling", leaderboardHandler).
			WithAliases("top").
			WithCooldown(),
		discord.NewGroup("levels", "Configura el sistema de niveles", "leveling",
			discord.NewCommand("toggle", "Activa o desactiva los niveles en el servidor", "leveling", toggleHandler),
			discord.NewCommand("channel", "Canal para anunciar subidas de nivel", "leveling", channelHandler).
				WithOptions(&discordgo.ApplicationCommandOption{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Canal de anuncios, vacío para usar el canal del mensaje",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				}),
		).WithUserPermissions(discordgo.PermissionManageGuild),
	}
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// ProgressBar renders progress out of total as a fixed width bar
func ProgressBar(progress, total int64, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := int(progress * int64(width) / total)
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func rankHandler(ctx *discord.CommandContext) error {
	if ctx.Interaction.GuildID == "" {
		return ctx.ReplyEphemeral("❌ Este comando solo puede usarse en un servidor.")
	}
	user := ctx.GetUserOption("user")
	if user == nil {
		user = ctx.User()
	}

	c, cancel := requestContext()
	defer cancel()
	record, err := database.GetLevel(c, ctx.Interaction.GuildID, user.ID)
	if err != nil {
		return ctx.ReplyEphemeral(offline)
	}
	if record == nil {
		record = &models.Level{GuildID: ctx.Interaction.GuildID, UserID: user.ID}
	}
	position, err := database.Rank(c, ctx.Interaction.GuildID, record)
	if err != nil && !errors.Is(err, database.ErrOffline) {
		return err
	}

	level, progress := database.LevelFromXP(record.XP)
	needed := database.XPForLevel(level)
	embed := discord.NewEmbed(ctx.Client.Config.Colors.Default, "📈 Nivel de "+user.Username,
		fmt.Sprintf("%s `%d/%d XP`", ProgressBar(progress, needed, 20), progress, needed))
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")}
	embed.Fields = []*discordgo.MessageEmbedField{
		discord.Field("Nivel", fmt.Sprintf("%d", level), true),
		discord.Field("Experiencia", fmt.Sprintf("%d", record.XP), true),
		discord.Field("Mensajes", fmt.Sprintf("%d", record.Messages), true),
	}
	if position > 0 {
		embed.Fields = append(embed.Fields, discord.Field("Posición", fmt.Sprintf("#%d", position), true))
	}
	return ctx.ReplyEmbed(embed)
}

func leaderboardHandler(ctx *discord.CommandContext) error {
	if ctx.Interaction.GuildID == "" {
		return ctx.ReplyEphemeral("❌ Este comando solo puede usarse en un servidor.")
	}
	c, cancel := requestContext()
	defer cancel()
	top, err := database.Leaderboard(c, ctx.Interaction.GuildID, 10)
	if err != nil {
		return ctx.ReplyEphemeral(offline)
	}
	if len(top) == 0 {
		return ctx.Reply("📭 Nadie tiene experiencia todavía.")
	}
	return ctx.ReplyEmbed(discord.NewEmbed(ctx.Client.Config.Colors.Default, "🏆 Tabla de clasificación", FormatLeaderboard(top)))
}

// FormatLeaderboard renders one line per member
func FormatLeaderboard(top []*models.Level) string {
	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	for i, record := range top {
		prefix := fmt.Sprintf("`#%d`", i+1)
		if i < len(medals) {
			prefix = medals[i]
		}
		fmt.Fprintf(&sb, "%s <@%s> - Nivel %d (%d XP)\n", prefix, record.UserID, record.Level, record.XP)
	}
	return sb.String()
}

func toggleHandler(ctx *discord.CommandContext) error {
	c, cancel := requestContext()
	defer cancel()
	cfg := database.GetGuildConfig(c, ctx.Interaction.GuildID)
	cfg.LevelingEnabled = !cfg.LevelingEnabled
	if _, err := database.SetGuildConfig(c, cfg); err != nil {
		return ctx.ReplyEphemeral(offline)
	}
	if cfg.LevelingEnabled {
		return ctx.ReplyEphemeral("✅ Niveles activados.")
	}
	return ctx.ReplyEphemeral("✅ Niveles desactivados.")
}

func channelHandler(ctx *discord.CommandContext) error {
	c, cancel := requestContext()
	defer cancel()
	cfg := database.GetGuildConfig(c, ctx.Interaction.GuildID)
	cfg.LevelUpChannel = ""
	if opt := ctx.GetOption("channel"); opt != nil {
		cfg.LevelUpChannel = fmt.Sprint(opt.Value)
	}
	if _, err := database.SetGuildConfig(c, cfg); err != nil {
		return ctx.ReplyEphemeral(offline)
	}
	if cfg.LevelUpChannel == "" {
		return ctx.ReplyEphemeral("✅ Las subidas de nivel se anunciarán en el canal del mensaje.")
	}
	return ctx.ReplyEphemeral(fmt.Sprintf("✅ Las subidas de nivel se anunciarán en <#%s>.", cfg.LevelUpChannel))
}
