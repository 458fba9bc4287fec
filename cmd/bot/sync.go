package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Publish the slash commands once and exit",
	RunE:  syncCommands,
}

func syncCommands(cmd *cobra.Command, _ []string) error {
	cfg, err := boot()
	if err != nil {
		return err
	}
	defer logger.Get().Close()

	cmds, evs := discord.NewCommandRegistry(), discord.NewEventRegistry()
	for _, err := range discord.LoadModules(sources(cfg), cmds, evs) {
		logger.Warn(err.Error(), "Sync")
	}

	gw, err := discord.DiscordDialer(cfg.BotToken)
	if err != nil {
		return err
	}
	session, ok := gw.(*discordgo.Session)
	if !ok {
		return fmt.Errorf("unexpected gateway %T", gw)
	}
	me, err := session.User("@me")
	if err != nil {
		return fmt.Errorf("resolving application id: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	if err := discord.NewPublisher(session).Sync(ctx, me.ID, cmds, cfg); err != nil {
		return err
	}
	logger.Success(fmt.Sprintf("%d comandos sincronizados como %s", cmds.Size(), me.Username), "Sync")
	return nil
}
