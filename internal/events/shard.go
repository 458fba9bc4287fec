package events

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

func shardEvents() []*discord.Event {
	return []*discord.Event{
		discord.On("shard-disconnect", onShardDisconnect),
		discord.On("shard-resumed", onShardResumed),
	}
}

func shardID(ctx *discord.EventContext) int {
	if ctx.Session == nil {
		return 0
	}
	return ctx.Session.ShardID
}

func onShardDisconnect(ctx *discord.EventContext, _ *discordgo.Disconnect) error {
	logger.Info(fmt.Sprintf("🔌 Shard %d desconectado.", shardID(ctx)), "Shard")
	return nil
}

func onShardResumed(ctx *discord.EventContext, _ *discordgo.Resumed) error {
	logger.Success(fmt.Sprintf("✅ Shard %d reanudado.", shardID(ctx)), "Shard")
	return nil
}
