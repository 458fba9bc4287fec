package loader

import (
	"reflect"

	"github.com/bwmarrin/discordgo"
	"github.com/traefik/yaegi/interp"

	"github.com/PancyStudios/ApexieGo/pkg/config"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// Symbols are the packages a module script may import besides the standard library
var Symbols = interp.Exports{
	"github.com/PancyStudios/ApexieGo/pkg/discord/discord": {
		"AutoCompleteFunc": reflect.ValueOf((*discord.AutoCompleteFunc)(nil)),
		"Command":          reflect.ValueOf((*discord.Command)(nil)),
		"CommandContext":   reflect.ValueOf((*discord.CommandContext)(nil)),
		"CommandRunFunc":   reflect.ValueOf((*discord.CommandRunFunc)(nil)),
		"Event":            reflect.ValueOf((*discord.Event)(nil)),
		"EventContext":     reflect.ValueOf((*discord.EventContext)(nil)),
		"EventRunFunc":     reflect.ValueOf((*discord.EventRunFunc)(nil)),
		"ExtendedClient":   reflect.ValueOf((*discord.ExtendedClient)(nil)),
		"Scope":            reflect.ValueOf((*discord.Scope)(nil)),

		"CooldownKey": reflect.ValueOf(discord.CooldownKey),
		"ErrorEmbed":  reflect.ValueOf(discord.ErrorEmbed),
		"EventName":   reflect.ValueOf(discord.EventName),
		"Field":       reflect.ValueOf(discord.Field),
		"NewCommand":  reflect.ValueOf(discord.NewCommand),
		"NewEmbed":    reflect.ValueOf(discord.NewEmbed),
		"NewGroup":    reflect.ValueOf(discord.NewGroup),
		"ScopeGlobal": reflect.ValueOf(discord.ScopeGlobal),
		"ScopeGuild":  reflect.ValueOf(discord.ScopeGuild),
	},
	"github.com/PancyStudios/ApexieGo/pkg/config/config": {
		"Color":   reflect.ValueOf((*config.Color)(nil)),
		"Config":  reflect.ValueOf((*config.Config)(nil)),
		"Palette": reflect.ValueOf((*config.Palette)(nil)),
		"Get":     reflect.ValueOf(config.Get),
	},
	"github.com/PancyStudios/ApexieGo/pkg/logger/logger": {
		"Debug":   reflect.ValueOf(logger.Debug),
		"Error":   reflect.ValueOf(logger.Error),
		"Info":    reflect.ValueOf(logger.Info),
		"Success": reflect.ValueOf(logger.Success),
		"Warn":    reflect.ValueOf(logger.Warn),
	},
	"github.com/bwmarrin/discordgo/discordgo": {
		"ApplicationCommandInteractionDataOption": reflect.ValueOf((*discordgo.ApplicationCommandInteractionDataOption)(nil)),
		"ApplicationCommandOption":                reflect.ValueOf((*discordgo.ApplicationCommandOption)(nil)),
		"ApplicationCommandOptionChoice":          reflect.ValueOf((*discordgo.ApplicationCommandOptionChoice)(nil)),
		"Channel":                                 reflect.ValueOf((*discordgo.Channel)(nil)),
		"Guild":                                   reflect.ValueOf((*discordgo.Guild)(nil)),
		"GuildCreate":                             reflect.ValueOf((*discordgo.GuildCreate)(nil)),
		"GuildDelete":                             reflect.ValueOf((*discordgo.GuildDelete)(nil)),
		"GuildMemberAdd":                          reflect.ValueOf((*discordgo.GuildMemberAdd)(nil)),
		"GuildMemberRemove":                       reflect.ValueOf((*discordgo.GuildMemberRemove)(nil)),
		"InteractionCreate":                       reflect.ValueOf((*discordgo.InteractionCreate)(nil)),
		"Member":                                  reflect.ValueOf((*discordgo.Member)(nil)),
		"Message":                                 reflect.ValueOf((*discordgo.Message)(nil)),
		"MessageCreate":                           reflect.ValueOf((*discordgo.MessageCreate)(nil)),
		"MessageEmbed":                            reflect.ValueOf((*discordgo.MessageEmbed)(nil)),
		"MessageEmbedAuthor":                      reflect.ValueOf((*discordgo.MessageEmbedAuthor)(nil)),
		"MessageEmbedField":                       reflect.ValueOf((*discordgo.MessageEmbedField)(nil)),
		"MessageEmbedFooter":                      reflect.ValueOf((*discordgo.MessageEmbedFooter)(nil)),
		"MessageEmbedThumbnail":                   reflect.ValueOf((*discordgo.MessageEmbedThumbnail)(nil)),
		"MessageReactionAdd":                      reflect.ValueOf((*discordgo.MessageReactionAdd)(nil)),
		"Ready":                                   reflect.ValueOf((*discordgo.Ready)(nil)),
		"Session":                                 reflect.ValueOf((*discordgo.Session)(nil)),
		"User":                                    reflect.ValueOf((*discordgo.User)(nil)),
		"VoiceStateUpdate":                        reflect.ValueOf((*discordgo.VoiceStateUpdate)(nil)),

		"ApplicationCommandOptionBoolean": reflect.ValueOf(discordgo.ApplicationCommandOptionBoolean),
		"ApplicationCommandOptionChannel": reflect.ValueOf(discordgo.ApplicationCommandOptionChannel),
		"ApplicationCommandOptionInteger": reflect.ValueOf(discordgo.ApplicationCommandOptionInteger),
		"ApplicationCommandOptionRole":    reflect.ValueOf(discordgo.ApplicationCommandOptionRole),
		"ApplicationCommandOptionString":  reflect.ValueOf(discordgo.ApplicationCommandOptionString),
		"ApplicationCommandOptionUser":    reflect.ValueOf(discordgo.ApplicationCommandOptionUser),
		"MessageFlagsEphemeral":           reflect.ValueOf(discordgo.MessageFlagsEphemeral),

		"PermissionAdministrator":  reflect.ValueOf(int64(discordgo.PermissionAdministrator)),
		"PermissionBanMembers":     reflect.ValueOf(int64(discordgo.PermissionBanMembers)),
		"PermissionKickMembers":    reflect.ValueOf(int64(discordgo.PermissionKickMembers)),
		"PermissionManageGuild":    reflect.ValueOf(int64(discordgo.PermissionManageGuild)),
		"PermissionManageMessages": reflect.ValueOf(int64(discordgo.PermissionManageMessages)),
	},
}
