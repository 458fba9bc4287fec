package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/errors"
)

func noop(ctx *CommandContext) error { return nil }

func TestCommandCreation(t *testing.T) {
	cmd := NewCommand("test", "Test command", "test", noop)

	if cmd.Name != "test" {
		t.Errorf("Name = %v, want %v", cmd.Name, "test")
	}
	if cmd.Description != "Test command" {
		t.Errorf("Description = %v, want %v", cmd.Description, "Test command")
	}
	if cmd.Category != "test" {
		t.Errorf("Category = %v, want %v", cmd.Category, "test")
	}
	if cmd.Scope != ScopeGlobal {
		t.Errorf("Scope = %v, want %v", cmd.Scope, ScopeGlobal)
	}
	if cmd.Run == nil {
		t.Error("Run function is nil")
	}
}

func TestCommandBuilders(t *testing.T) {
	option := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "query",
		Description: "Song to search",
		Required:    true,
	}

	cmd := NewCommand("play", "Play a song", "music", noop).
		WithOptions(option).
		WithAliases("p").
		WithUserPermissions(discordgo.PermissionManageMessages).
		WithCooldown().
		RequiresVoice().
		AsPrivate()

	if len(cmd.Options) != 1 || cmd.Options[0].Name != "query" {
		t.Errorf("Options = %v, want one option named query", cmd.Options)
	}
	if len(cmd.Aliases) != 1 || cmd.Aliases[0] != "p" {
		t.Errorf("Aliases = %v, want [p]", cmd.Aliases)
	}
	if !cmd.Cooldown {
		t.Error("Cooldown should be true")
	}
	if !cmd.InVoiceChannel {
		t.Error("InVoiceChannel should be true")
	}
	if cmd.Scope != ScopeGuild {
		t.Errorf("Scope = %v, want %v", cmd.Scope, ScopeGuild)
	}

	app := cmd.ToApplicationCommand()
	if app.DefaultMemberPermissions == nil || *app.DefaultMemberPermissions != discordgo.PermissionManageMessages {
		t.Errorf("DefaultMemberPermissions = %v, want %v", app.DefaultMemberPermissions, discordgo.PermissionManageMessages)
	}
}

func TestCommandValidate(t *testing.T) {
	var nilCmd *Command

	tests := []struct {
		name string
		cmd  *Command
		want error
	}{
		{"valid", NewCommand("ping", "Pong", "util", noop), nil},
		{"nil", nilCmd, errors.ErrMissingDescriptor},
		{"no name", &Command{Run: noop}, errors.ErrMissingName},
		{"no run", &Command{Name: "ping"}, errors.ErrMissingRun},
		{"group", NewGroup("giveaway", "Sorteos", "fun", NewCommand("start", "Start", "fun", noop)), nil},
		{"bad sub", NewGroup("giveaway", "Sorteos", "fun", &Command{Name: "start"}), errors.ErrMissingRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.want == nil && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApplicationCommandsIncludeAliases(t *testing.T) {
	cmd := NewCommand("play", "Reproduce una canción", "music", noop).WithAliases("p", "play")

	apps := cmd.ApplicationCommands()
	if len(apps) != 2 {
		t.Fatalf("len(ApplicationCommands()) = %d, want 2", len(apps))
	}
	if apps[0].Name != "play" || apps[1].Name != "p" {
		t.Errorf("names = [%s %s], want [play p]", apps[0].Name, apps[1].Name)
	}
	if len([]rune(apps[1].Description)) > 100 {
		t.Errorf("alias description has %d runes, want at most 100", len([]rune(apps[1].Description)))
	}
}

func TestGroupOptions(t *testing.T) {
	start := NewCommand("start", "Inicia un sorteo", "fun", noop)
	end := NewCommand("end", "Termina un sorteo", "fun", noop)
	group := NewGroup("giveaway", "Sorteos", "fun", start, end)

	app := group.ToApplicationCommand()
	if len(app.Options) != 2 {
		t.Fatalf("len(Options) = %d, want 2", len(app.Options))
	}
	for _, opt := range app.Options {
		if opt.Type != discordgo.ApplicationCommandOptionSubCommand {
			t.Errorf("option %s type = %v, want subcommand", opt.Name, opt.Type)
		}
	}

	if got := group.Find([]string{"end"}); got != end {
		t.Errorf("Find(end) = %v, want the end subcommand", got)
	}
	if got := group.Find([]string{"missing"}); got != nil {
		t.Errorf("Find(missing) = %v, want nil", got)
	}
	if got := start.Find(nil); got != start {
		t.Errorf("Find(nil) on a leaf = %v, want the leaf", got)
	}
}

func TestSubcommandPath(t *testing.T) {
	opts := []*discordgo.ApplicationCommandInteractionDataOption{{
		Name: "start",
		Type: discordgo.ApplicationCommandOptionSubCommand,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name:  "prize",
			Type:  discordgo.ApplicationCommandOptionString,
			Value: "Nitro",
		}},
	}}

	path := subcommandPath(opts)
	if len(path) != 1 || path[0] != "start" {
		t.Errorf("subcommandPath() = %v, want [start]", path)
	}

	if found := findOption(opts, "prize"); found == nil || found.StringValue() != "Nitro" {
		t.Errorf("findOption(prize) = %v, want Nitro", found)
	}
}

func TestEventOn(t *testing.T) {
	var got string
	ev := On("greet", func(ctx *EventContext, m *discordgo.MessageCreate) error {
		got = m.Content
		return nil
	})

	if ev.Event != "MessageCreate" {
		t.Errorf("Event = %q, want %q", ev.Event, "MessageCreate")
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	msg := &discordgo.MessageCreate{Message: &discordgo.Message{Content: "hola"}}
	if err := ev.Run(&EventContext{}, msg); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if got != "hola" {
		t.Errorf("handler saw %q, want %q", got, "hola")
	}

	if err := ev.Run(&EventContext{}, &discordgo.Ready{}); err == nil {
		t.Error("Run() with a foreign payload should fail")
	}
}

func TestEventName(t *testing.T) {
	tests := []struct {
		payload interface{}
		want    string
	}{
		{&discordgo.Ready{}, "Ready"},
		{&discordgo.InteractionCreate{}, "InteractionCreate"},
		{discordgo.VoiceStateUpdate{}, "VoiceStateUpdate"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := EventName(tt.payload); got != tt.want {
			t.Errorf("EventName(%T) = %q, want %q", tt.payload, got, tt.want)
		}
	}
}

func TestStaticSource(t *testing.T) {
	src := &StaticSource{
		Name: "builtin",
		Commands: []*Command{
			NewCommand("ping", "Pong", "util", noop),
			{Name: "broken", Category: "util"},
		},
		Events: []*Event{{Name: "noevent", Run: func(*EventContext, interface{}) error { return nil }}},
	}

	cmds := src.Discover(KindCommand)
	if len(cmds) != 2 {
		t.Fatalf("len(Discover(command)) = %d, want 2", len(cmds))
	}
	if cmds[0].Err != nil || cmds[0].Module.ModuleName() != "ping" {
		t.Errorf("first result = %+v, want ping", cmds[0])
	}
	var loadErr *errors.LoadError
	if !errors.As(cmds[1].Err, &loadErr) || !errors.Is(loadErr, errors.ErrMissingRun) {
		t.Errorf("second result error = %v, want LoadError(ErrMissingRun)", cmds[1].Err)
	}
	if cmds[0].Source != "builtin:util/ping" {
		t.Errorf("Source = %q, want %q", cmds[0].Source, "builtin:util/ping")
	}

	evs := src.Discover(KindEvent)
	if len(evs) != 1 || !errors.Is(evs[0].Err, errors.ErrMissingEvent) {
		t.Errorf("Discover(event) = %+v, want one ErrMissingEvent", evs)
	}
}
