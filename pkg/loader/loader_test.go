package loader

import (
	"testing"
	"testing/fstest"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/errors"
)

const pingScript = `package ping

import "github.com/PancyStudios/ApexieGo/pkg/discord"

var Command = &discord.Command{
	Name:        "ping",
	Description: "Responde con pong",
	Aliases:     []string{"latencia"},
	Run: func(ctx *discord.CommandContext) error {
		return ctx.Reply("pong")
	},
}
`

const pongScript = `package pong

import "github.com/PancyStudios/ApexieGo/pkg/discord"

var Command = discord.NewCommand("ping", "Otro ping", "", func(ctx *discord.CommandContext) error {
	return nil
})
`

const evalScript = `package eval

import "github.com/PancyStudios/ApexieGo/pkg/discord"

var Command = discord.NewCommand("eval", "Evalúa código", "dev", func(ctx *discord.CommandContext) error {
	return nil
}).AsPrivate()
`

const noNameScript = `package noname

import "github.com/PancyStudios/ApexieGo/pkg/discord"

var Command = &discord.Command{Description: "sin nombre"}
`

const brokenScript = `package broken

var Command = &discord.Command{
`

const greetScript = `package greet

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

var Event = &discord.Event{
	Name:  "greet",
	Event: "MessageCreate",
	Run: func(ctx *discord.EventContext, payload interface{}) error {
		m := payload.(*discordgo.MessageCreate)
		if m.Content == "" {
			return fmt.Errorf("empty message")
		}
		return nil
	},
}
`

const emptyEventScript = `package helper

func Helper() string { return "not a module" }
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"Commands/util/ping.go":     {Data: []byte(pingScript)},
		"Commands/util/pong.go":     {Data: []byte(pongScript)},
		"Commands/util/noname.go":   {Data: []byte(noNameScript)},
		"Commands/util/README.md":   {Data: []byte("# utils")},
		"Commands/dev/eval.go":      {Data: []byte(evalScript)},
		"Commands/broken/broken.go": {Data: []byte(brokenScript)},
		"Commands/stray.go":         {Data: []byte(pingScript)},
		"Events/greet.go":           {Data: []byte(greetScript)},
		"Events/helper.go":          {Data: []byte(emptyEventScript)},
		"Events/greet_test.go":      {Data: []byte("package greet")},
	}
}

func TestDiscoverCommands(t *testing.T) {
	results := New(testFS()).Discover(discord.KindCommand)

	wantSources := []string{
		"Commands/broken/broken.go",
		"Commands/dev/eval.go",
		"Commands/util/noname.go",
		"Commands/util/ping.go",
		"Commands/util/pong.go",
	}
	if len(results) != len(wantSources) {
		t.Fatalf("len(results) = %d, want %d: %+v", len(results), len(wantSources), results)
	}
	for i, want := range wantSources {
		if results[i].Source != want {
			t.Errorf("results[%d].Source = %q, want %q", i, results[i].Source, want)
		}
	}

	var loadErr *errors.LoadError
	if !errors.As(results[0].Err, &loadErr) {
		t.Errorf("broken.go error = %v, want LoadError", results[0].Err)
	}
	if !errors.Is(results[2].Err, errors.ErrMissingName) {
		t.Errorf("noname.go error = %v, want ErrMissingName", results[2].Err)
	}

	eval, ok := results[1].Module.(*discord.Command)
	if !ok || eval.Scope != discord.ScopeGuild || eval.Category != "dev" {
		t.Errorf("eval = %+v, want a private dev command", results[1].Module)
	}

	ping, ok := results[3].Module.(*discord.Command)
	if !ok {
		t.Fatalf("ping.go module = %T, want *discord.Command", results[3].Module)
	}
	if ping.Name != "ping" || len(ping.Aliases) != 1 || ping.Aliases[0] != "latencia" {
		t.Errorf("ping = %+v, want ping with alias latencia", ping)
	}
	if ping.Category != "util" {
		t.Errorf("Category = %q, want util from the directory", ping.Category)
	}
	if ping.Source != "Commands/util/ping.go" {
		t.Errorf("Source = %q, want the file path", ping.Source)
	}
}

type recordingResponder struct {
	discord.Responder
	content string
}

func (r *recordingResponder) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	r.content = resp.Data.Content
	return nil
}

func TestScriptCommandRuns(t *testing.T) {
	results := New(testFS()).Discover(discord.KindCommand)
	ping := results[3].Module.(*discord.Command)

	responder := &recordingResponder{}
	ctx := &discord.CommandContext{
		Interaction: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}},
		Responder:   responder,
	}
	if err := ping.Run(ctx); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if responder.content != "pong" {
		t.Errorf("reply = %q, want pong", responder.content)
	}
}

func TestDuplicateScriptsFirstWins(t *testing.T) {
	registry := discord.NewCommandRegistry()
	var duplicates int
	for _, res := range New(testFS()).Discover(discord.KindCommand) {
		if res.Err != nil {
			continue
		}
		if err := registry.Register(res.Module.(*discord.Command)); err != nil {
			duplicates++
		}
	}

	if duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", duplicates)
	}
	got, ok := registry.Resolve("ping", discord.ScopeGlobal)
	if !ok || got.Source != "Commands/util/ping.go" {
		t.Errorf("Resolve(ping) = %+v, want the module from ping.go", got)
	}
}

func TestDiscoverEvents(t *testing.T) {
	results := New(testFS()).Discover(discord.KindEvent)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2: %+v", len(results), results)
	}

	greet, ok := results[0].Module.(*discord.Event)
	if !ok || greet.Name != "greet" || greet.Event != "MessageCreate" {
		t.Fatalf("greet = %+v, want greet on MessageCreate", results[0].Module)
	}
	if err := greet.Run(&discord.EventContext{}, &discordgo.MessageCreate{Message: &discordgo.Message{Content: "hola"}}); err != nil {
		t.Errorf("Run(hola) = %v, want nil", err)
	}
	if err := greet.Run(&discord.EventContext{}, &discordgo.MessageCreate{Message: &discordgo.Message{}}); err == nil {
		t.Error("Run(empty) = nil, want error")
	}

	if !errors.Is(results[1].Err, errors.ErrMissingDescriptor) {
		t.Errorf("helper.go error = %v, want ErrMissingDescriptor", results[1].Err)
	}

	registry := discord.NewEventRegistry()
	for _, res := range results {
		if res.Err == nil {
			registry.Register(res.Module.(*discord.Event))
		}
	}
	if registry.Size() != 1 {
		t.Errorf("registry.Size() = %d, want 1", registry.Size())
	}
}

func TestDiscoverMissingDirectories(t *testing.T) {
	l := New(fstest.MapFS{})
	if got := l.Discover(discord.KindCommand); len(got) != 0 {
		t.Errorf("Discover(command) = %v, want none", got)
	}
	if got := l.Discover(discord.KindEvent); len(got) != 0 {
		t.Errorf("Discover(event) = %v, want none", got)
	}
}
