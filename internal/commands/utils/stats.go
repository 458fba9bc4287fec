package utils

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/config"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

// createStatsCommand creates the /utils stats subcommand
func createStatsCommand() *discord.Command {
	return discord.NewCommand(
		"stats",
		"Muestra estadísticas del bot",
		"utils",
		statsHandler,
	)
}

// statsHandler handles the /utils stats command
func statsHandler(ctx *discord.CommandContext) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	memberCount := 0
	avatar := ""
	if s := ctx.Session; s != nil && s.State != nil {
		s.State.RLock()
		for _, guild := range s.State.Guilds {
			memberCount += guild.MemberCount
		}
		if s.State.User != nil {
			avatar = s.State.User.AvatarURL("")
		}
		s.State.RUnlock()
	}

	embed := discord.NewEmbed(ctx.Client.Config.Colors.Default, "📊 Estadísticas del Bot", "")
	embed.Fields = []*discordgo.MessageEmbedField{
		discord.Field("🤖 Versión del Bot", config.Version, true),
		discord.Field("🐹 Versión de Go", strings.TrimPrefix(runtime.Version(), "go"), true),
		discord.Field("📚 Versión de DiscordGo", discordgo.VERSION, true),
		discord.Field("🖥 Uso de RAM", fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024), true),
		discord.Field("⚙️ Uso de CPU", fmt.Sprintf("%d Goroutines / %d CPUs", runtime.NumGoroutine(), runtime.NumCPU()), true),
		discord.Field("⏱ Uptime", formatDuration(ctx.Client.Uptime()), true),
		discord.Field("🏠 Guilds", fmt.Sprintf("%d", ctx.Client.GuildCount()), true),
		discord.Field("👥 Miembros", fmt.Sprintf("%d", memberCount), true),
		discord.Field("🧩 Módulos", fmt.Sprintf("%d comandos / %d eventos", ctx.Client.Commands.Size(), ctx.Client.Events.Size()), true),
	}
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text:    "💫 - Developed by PancyStudios",
		IconURL: avatar,
	}
	return ctx.ReplyEmbed(embed)
}

// formatDuration formats a time.Duration into a human-readable string
func formatDuration(dur time.Duration) string {
	days := int(dur.Hours() / 24)
	hours := int(dur.Hours()) % 24
	minutes := int(dur.Minutes()) % 60
	seconds := int(dur.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d días", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d horas", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutos", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d segundos", seconds))
	}

	return strings.Join(parts, ", ")
}
