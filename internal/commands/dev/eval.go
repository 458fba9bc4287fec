package dev

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/PancyStudios/ApexieGo/pkg/config"
	"github.com/PancyStudios/ApexieGo/pkg/database"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

const evalPackage = "github.com/PancyStudios/ApexieGo/internal/commands/dev"

// createEvalCommand creates the /dev eval command
func createEvalCommand() *discord.Command {
	return discord.NewCommand(
		"eval",
		"Evalúa código Go y muestra estructuras internas (Peligroso)",
		"dev",
		evalHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "codigo",
			Description: "Código o expresión Go a evaluar",
			Required:    true,
		},
	)
}

func evalHandler(ctx *discord.CommandContext) error {
	if !ctx.Client.Config.IsOwner(ctx.User().ID) {
		return ctx.ReplyEphemeral(denied)
	}
	start := time.Now()

	// compiling the snippet may take longer than the response window
	if err := ctx.Defer(); err != nil {
		return err
	}

	output := Evaluate(stripCodeBlock(ctx.GetStringOption("codigo")), map[string]reflect.Value{
		"Ctx":     reflect.ValueOf(ctx),
		"Bot":     reflect.ValueOf(ctx.Client),
		"Session": reflect.ValueOf(ctx.Session),
		"DB":      reflect.ValueOf(database.Get()),
		"Config":  reflect.ValueOf(config.Get()),
	})

	logger.Debug(fmt.Sprintf("Eval completado en %s", time.Since(start)), "DevEval")
	return ctx.EditReply(output)
}

// stripCodeBlock removes a surrounding markdown code fence
func stripCodeBlock(code string) string {
	code = strings.TrimSpace(code)
	code = strings.TrimPrefix(code, "```go")
	code = strings.TrimPrefix(code, "```")
	code = strings.TrimSuffix(code, "```")
	return strings.TrimSpace(code)
}

// Evaluate runs code in a fresh interpreter where exports are dot-imported,
// and renders the result or the error for a Discord message
func Evaluate(code string, exports map[string]reflect.Value) string {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Sprintf("❌ Error cargando stdlib: %v", err)
	}
	if err := i.Use(interp.Exports{evalPackage + "/dev": exports}); err != nil {
		return fmt.Sprintf("❌ Error registrando variables: %v", err)
	}
	if _, err := i.Eval(`import . "` + evalPackage + `"`); err != nil {
		return fmt.Sprintf("❌ Error importando variables: %v", err)
	}

	res, err := i.Eval(code)
	if err != nil {
		return fmt.Sprintf("❌ **Error de Ejecución:**\n```go\n%v\n```", err)
	}

	resStr := "nil"
	if res.IsValid() && res.CanInterface() {
		resStr = fmt.Sprintf("%#v", res.Interface())
	}
	if len(resStr) > 1900 {
		resStr = resStr[:1900] + "... (truncado)"
	}
	return fmt.Sprintf("✅ **Resultado:**\n```go\n%s\n```", resStr)
}
