package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/errors"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// User-facing replies
const (
	FailureReply  = "❌ Ocurrió un error al ejecutar este comando. Inténtalo de nuevo más tarde."
	UnknownReply  = "❌ Este comando no existe o ya no está disponible."
	CooldownReply = "⏳ Espera un momento antes de volver a usar este comando."
	VoiceReply    = "🔊 Necesitas estar en un canal de voz para usar este comando."
)

func (c *ExtendedClient) onInteraction(s *discordgo.Session, payload interface{}) {
	i, ok := payload.(*discordgo.InteractionCreate)
	if !ok || i.Interaction == nil {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		c.autocomplete(s, i)
	case discordgo.InteractionApplicationCommand:
		c.dispatchCommand(s, i)
	}
}

// resolve looks the root command up. Private commands only resolve inside the configured guild.
func (c *ExtendedClient) resolve(name, guildID string) (*Command, bool) {
	if cmd, ok := c.Commands.Resolve(name, ScopeGlobal); ok {
		return cmd, true
	}
	if guildID != "" && guildID == c.Config.GuildID {
		return c.Commands.Resolve(name, ScopeGuild)
	}
	return nil, false
}

// resolveInteraction returns the command an interaction targets and its full name
func (c *ExtendedClient) resolveInteraction(i *discordgo.InteractionCreate) (*Command, string) {
	data := i.ApplicationCommandData()
	root, ok := c.resolve(data.Name, i.GuildID)
	if !ok {
		return nil, data.Name
	}

	path := subcommandPath(data.Options)
	name := strings.Join(append([]string{root.Name}, path...), ".")
	return root.Find(path), name
}

func (c *ExtendedClient) newCommandContext(s *discordgo.Session, i *discordgo.InteractionCreate, name string) *CommandContext {
	return &CommandContext{
		Session:     s,
		Interaction: i,
		Client:      c,
		Responder:   c.gateway,
		Name:        name,
	}
}

func (c *ExtendedClient) autocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cmd, name := c.resolveInteraction(i)
	if cmd == nil || cmd.AutoComplete == nil {
		return
	}
	defer errors.RecoverMiddleware()()
	cmd.AutoComplete(c.newCommandContext(s, i, name))
}

func (c *ExtendedClient) dispatchCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cmd, name := c.resolveInteraction(i)
	ctx := c.newCommandContext(s, i, name)

	if cmd == nil || cmd.Run == nil {
		logger.Warn("Command not found: "+name, "Client")
		ctx.ReplyEphemeral(UnknownReply)
		return
	}

	if cmd.InVoiceChannel && ctx.VoiceChannelID() == "" {
		ctx.ReplyEphemeral(VoiceReply)
		return
	}

	if cmd.Cooldown {
		user := ctx.User()
		if user != nil && !c.Cooldowns.TryAcquire(CooldownKey(user.ID, name)) {
			ctx.ReplyEphemeral(CooldownReply)
			return
		}
	}

	if err := runCommand(ctx, cmd); err != nil {
		logger.Error(err.Error(), "Client")
		errors.Record(err)
		c.replyFailure(ctx)
	}
}

func runCommand(ctx *CommandContext, cmd *Command) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &errors.HandlerExecutionError{Kind: KindCommand.String(), Name: ctx.Name, Panic: rec}
		}
	}()

	if runErr := cmd.Run(ctx); runErr != nil {
		return &errors.HandlerExecutionError{Kind: KindCommand.String(), Name: ctx.Name, Err: runErr}
	}
	return nil
}

// replyFailure tells the user the command failed. The first response may
// already be spent, in which case a follow-up is sent.
func (c *ExtendedClient) replyFailure(ctx *CommandContext) {
	if err := ctx.ReplyEphemeral(FailureReply); err == nil {
		return
	}
	if err := ctx.Followup(FailureReply); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo notificar el error de /%s: %v", ctx.Name, err), "Client")
	}
}
