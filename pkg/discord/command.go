package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/errors"
)

// Responder answers interactions. *discordgo.Session implements it.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// CommandContext is the dispatch context handed to every command
type CommandContext struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Client      *ExtendedClient
	Responder   Responder

	// Name is the resolved path, "giveaway.start" for subcommands
	Name string
}

// Command represents a Discord slash command
type Command struct {
	Name            string
	Description     string
	Category        string
	Aliases         []string
	Scope           Scope
	Cooldown        bool
	Options         []*discordgo.ApplicationCommandOption
	Subcommands     []*Command
	UserPermissions int64
	InVoiceChannel  bool
	Source          string
	Run             CommandRunFunc
	AutoComplete    AutoCompleteFunc
}

// CommandRunFunc is the function type for command execution
type CommandRunFunc func(ctx *CommandContext) error

// AutoCompleteFunc is the function type for autocomplete handling
type AutoCompleteFunc func(ctx *CommandContext)

// NewCommand creates a new Command with required fields
func NewCommand(name, description, category string, run CommandRunFunc) *Command {
	return &Command{
		Name:        name,
		Description: description,
		Category:    category,
		Run:         run,
	}
}

// NewGroup creates a command whose behavior lives in its subcommands
func NewGroup(name, description, category string, subcommands ...*Command) *Command {
	return &Command{
		Name:        name,
		Description: description,
		Category:    category,
		Subcommands: subcommands,
	}
}

// ModuleName implements Module
func (c *Command) ModuleName() string {
	if c == nil {
		return ""
	}
	return c.Name
}

// ModuleKind implements Module
func (c *Command) ModuleKind() Kind { return KindCommand }

// Validate checks the exported shape of the command
func (c *Command) Validate() error {
	if c == nil {
		return errors.ErrMissingDescriptor
	}
	if c.Name == "" {
		return errors.ErrMissingName
	}
	if len(c.Subcommands) == 0 {
		if c.Run == nil {
			return errors.ErrMissingRun
		}
		return nil
	}
	for _, sub := range c.Subcommands {
		if err := sub.Validate(); err != nil {
			return fmt.Errorf("subcommand %q: %w", sub.ModuleName(), err)
		}
	}
	return nil
}

// WithOptions sets the command options
func (c *Command) WithOptions(opts ...*discordgo.ApplicationCommandOption) *Command {
	c.Options = opts
	return c
}

// WithAliases sets alternative names, each published as its own slash command
func (c *Command) WithAliases(aliases ...string) *Command {
	c.Aliases = aliases
	return c
}

// WithUserPermissions sets required user permissions
func (c *Command) WithUserPermissions(perms int64) *Command {
	c.UserPermissions = perms
	return c
}

// AsPrivate restricts the command to the configured guild
func (c *Command) AsPrivate() *Command {
	c.Scope = ScopeGuild
	return c
}

// WithCooldown rate limits the command per user
func (c *Command) WithCooldown() *Command {
	c.Cooldown = true
	return c
}

// RequiresVoice marks the command as requiring the user to be in a voice channel
func (c *Command) RequiresVoice() *Command {
	c.InVoiceChannel = true
	return c
}

// WithAutoComplete sets the autocomplete handler
func (c *Command) WithAutoComplete(fn AutoCompleteFunc) *Command {
	c.AutoComplete = fn
	return c
}

// Find walks the subcommand path, returning nil when a segment is unknown
func (c *Command) Find(path []string) *Command {
	cur := c
	for _, name := range path {
		var next *Command
		for _, sub := range cur.Subcommands {
			if sub.Name == name {
				next = sub
				break
			}
		}
		if next == nil {
			if len(cur.Subcommands) == 0 {
				return cur
			}
			return nil
		}
		cur = next
	}
	return cur
}

// ToApplicationCommand converts the command to a Discord application command
func (c *Command) ToApplicationCommand() *discordgo.ApplicationCommand {
	appCmd := &discordgo.ApplicationCommand{
		Name:        c.Name,
		Description: c.Description,
		Options:     c.applicationOptions(),
	}
	if c.UserPermissions != 0 {
		perms := c.UserPermissions
		appCmd.DefaultMemberPermissions = &perms
	}
	return appCmd
}

func (c *Command) applicationOptions() []*discordgo.ApplicationCommandOption {
	if len(c.Subcommands) == 0 {
		return c.Options
	}

	options := make([]*discordgo.ApplicationCommandOption, 0, len(c.Subcommands))
	for _, sub := range c.Subcommands {
		opt := &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        sub.Name,
			Description: sub.Description,
			Options:     sub.Options,
		}
		if len(sub.Subcommands) > 0 {
			opt.Type = discordgo.ApplicationCommandOptionSubCommandGroup
			opt.Options = sub.applicationOptions()
		}
		options = append(options, opt)
	}
	return options
}

// ApplicationCommands returns the descriptor for the command and one per alias
func (c *Command) ApplicationCommands() []*discordgo.ApplicationCommand {
	cmds := []*discordgo.ApplicationCommand{c.ToApplicationCommand()}
	for _, alias := range c.Aliases {
		if alias == c.Name {
			continue
		}
		appCmd := c.ToApplicationCommand()
		appCmd.Name = alias
		appCmd.Description = truncate(fmt.Sprintf("Alias de /%s. %s", c.Name, c.Description), 100)
		cmds = append(cmds, appCmd)
	}
	return cmds
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (ctx *CommandContext) responder() Responder {
	if ctx.Responder != nil {
		return ctx.Responder
	}
	return ctx.Session
}

// Reply sends a reply to the interaction
func (ctx *CommandContext) Reply(content string) error {
	return ctx.respond(&discordgo.InteractionResponseData{Content: content})
}

// ReplyEmbed sends an embed reply to the interaction
func (ctx *CommandContext) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.respond(&discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}})
}

// ReplyEphemeral sends an ephemeral reply visible only to the user
func (ctx *CommandContext) ReplyEphemeral(content string) error {
	return ctx.respond(&discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// ReplyEphemeralEmbed sends an ephemeral embed reply visible only to the user
func (ctx *CommandContext) ReplyEphemeralEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.respond(&discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func (ctx *CommandContext) respond(data *discordgo.InteractionResponseData) error {
	return ctx.responder().InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// Defer defers the interaction response
func (ctx *CommandContext) Defer() error {
	return ctx.responder().InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// EditReply edits the original interaction response
func (ctx *CommandContext) EditReply(content string) error {
	_, err := ctx.responder().InteractionResponseEdit(ctx.Interaction.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	return err
}

// EditReplyEmbed edits the original interaction response with an embed
func (ctx *CommandContext) EditReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := ctx.responder().InteractionResponseEdit(ctx.Interaction.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	return err
}

// Followup sends an ephemeral follow-up message, usable after the first response
func (ctx *CommandContext) Followup(content string) error {
	_, err := ctx.responder().FollowupMessageCreate(ctx.Interaction.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}

// GetOption retrieves an option value by name
func (ctx *CommandContext) GetOption(name string) *discordgo.ApplicationCommandInteractionDataOption {
	options := ctx.Interaction.ApplicationCommandData().Options
	return findOption(options, name)
}

// findOption recursively finds an option by name
func findOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Name == name {
			return opt
		}
		if len(opt.Options) > 0 {
			if found := findOption(opt.Options, name); found != nil {
				return found
			}
		}
	}
	return nil
}

// subcommandPath extracts the subcommand group and subcommand names of an interaction
func subcommandPath(options []*discordgo.ApplicationCommandInteractionDataOption) []string {
	var path []string
	for len(options) > 0 {
		opt := options[0]
		if opt.Type != discordgo.ApplicationCommandOptionSubCommandGroup && opt.Type != discordgo.ApplicationCommandOptionSubCommand {
			break
		}
		path = append(path, opt.Name)
		options = opt.Options
	}
	return path
}

// GetStringOption retrieves a string option value
func (ctx *CommandContext) GetStringOption(name string) string {
	opt := ctx.GetOption(name)
	if opt == nil {
		return ""
	}
	return opt.StringValue()
}

// GetIntOption retrieves an integer option value
func (ctx *CommandContext) GetIntOption(name string) int64 {
	opt := ctx.GetOption(name)
	if opt == nil {
		return 0
	}
	return opt.IntValue()
}

// GetBoolOption retrieves a boolean option value
func (ctx *CommandContext) GetBoolOption(name string) bool {
	opt := ctx.GetOption(name)
	if opt == nil {
		return false
	}
	return opt.BoolValue()
}

// GetUserOption retrieves a user option value
func (ctx *CommandContext) GetUserOption(name string) *discordgo.User {
	opt := ctx.GetOption(name)
	if opt == nil {
		return nil
	}
	return opt.UserValue(ctx.Session)
}

// GetChannelOption retrieves a channel option value
func (ctx *CommandContext) GetChannelOption(name string) *discordgo.Channel {
	opt := ctx.GetOption(name)
	if opt == nil {
		return nil
	}
	return opt.ChannelValue(ctx.Session)
}

// Guild returns the guild where the interaction occurred
func (ctx *CommandContext) Guild() *discordgo.Guild {
	if ctx.Interaction.GuildID == "" || ctx.Session == nil || ctx.Session.State == nil {
		return nil
	}
	guild, _ := ctx.Session.State.Guild(ctx.Interaction.GuildID)
	return guild
}

// Channel returns the channel where the interaction occurred
func (ctx *CommandContext) Channel() *discordgo.Channel {
	if ctx.Session == nil || ctx.Session.State == nil {
		return nil
	}
	channel, _ := ctx.Session.State.Channel(ctx.Interaction.ChannelID)
	return channel
}

// User returns the user who triggered the interaction
func (ctx *CommandContext) User() *discordgo.User {
	if ctx.Interaction.Member != nil {
		return ctx.Interaction.Member.User
	}
	return ctx.Interaction.User
}

// Member returns the guild member who triggered the interaction
func (ctx *CommandContext) Member() *discordgo.Member {
	return ctx.Interaction.Member
}

// VoiceChannelID returns the voice channel the user is connected to, or ""
func (ctx *CommandContext) VoiceChannelID() string {
	if ctx.Session == nil || ctx.Session.State == nil || ctx.Interaction.GuildID == "" {
		return ""
	}
	user := ctx.User()
	if user == nil {
		return ""
	}
	vs, err := ctx.Session.State.VoiceState(ctx.Interaction.GuildID, user.ID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}
