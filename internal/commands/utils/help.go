package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

// createHelpCommand creates the /utils help subcommand
func createHelpCommand() *discord.Command {
	return discord.NewCommand(
		"help",
		"Muestra información de ayuda",
		"utils",
		helpHandler,
	)
}

// helpHandler lists the registered commands grouped by category
func helpHandler(ctx *discord.CommandContext) error {
	embed := discord.NewEmbed(ctx.Client.Config.Colors.Default, "📖 Ayuda de Apexie", "**Comandos disponibles:**")
	for _, category := range helpCategories(ctx.Client.Commands.Commands(discord.ScopeGlobal)) {
		embed.Fields = append(embed.Fields, discord.Field(category.name, category.body, false))
	}
	return ctx.ReplyEmbed(embed)
}

type helpCategory struct {
	name string
	body string
}

// helpCategories renders one line per command or subcommand, sorted by category
func helpCategories(cmds []*discord.Command) []helpCategory {
	lines := make(map[string][]string)
	for _, cmd := range cmds {
		category := cmd.Category
		if category == "" {
			category = "otros"
		}
		if len(cmd.Subcommands) == 0 {
			lines[category] = append(lines[category], fmt.Sprintf("• `/%s` - %s", cmd.Name, cmd.Description))
			continue
		}
		for _, sub := range cmd.Subcommands {
			lines[category] = append(lines[category], fmt.Sprintf("• `/%s %s` - %s", cmd.Name, sub.Name, sub.Description))
		}
	}

	names := make([]string, 0, len(lines))
	for name := range lines {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]helpCategory, 0, len(names))
	for _, name := range names {
		body := strings.Join(lines[name], "\n")
		if len(body) > 1024 {
			body = body[:1020] + "\n…"
		}
		out = append(out, helpCategory{name: strings.ToUpper(name[:1]) + name[1:], body: body})
	}
	return out
}
