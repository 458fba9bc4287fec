// Package commands collects the built-in command modules.
// Commands are organized in subdirectories by category (utils, music, dev, etc.)
package commands

import (
	"github.com/PancyStudios/ApexieGo/internal/commands/activities"
	"github.com/PancyStudios/ApexieGo/internal/commands/dev"
	"github.com/PancyStudios/ApexieGo/internal/commands/giveaways"
	"github.com/PancyStudios/ApexieGo/internal/commands/leveling"
	"github.com/PancyStudios/ApexieGo/internal/commands/music"
	"github.com/PancyStudios/ApexieGo/internal/commands/utils"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

// Options select the optional command categories
type Options struct {
	Music     bool
	Giveaways bool
}

// All returns every built-in command
func All(opts Options) []*discord.Command {
	cmds := []*discord.Command{
		utils.Command(),
		dev.Command(),
	}
	cmds = append(cmds, activities.Commands()...)
	cmds = append(cmds, leveling.Commands()...)

	if opts.Music {
		cmds = append(cmds, music.Commands()...)
	}
	if opts.Giveaways {
		cmds = append(cmds, giveaways.Command())
	}
	return cmds
}
