package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			logger.Error(msg, "DiscordGo")
		case discordgo.LogWarning:
			logger.Warn(msg, "DiscordGo")
		case discordgo.LogInformational:
			logger.Info(msg, "DiscordGo")
		default:
			logger.Debug(msg, "DiscordGo")
		}
	}
}

// Gateway is the connection collaborator: subscribe, open, close and the
// remote command API. *discordgo.Session implements it.
type Gateway interface {
	Subscriber
	CommandAPI
	Responder
	Open() error
	Close() error
}

// Dialer builds a fresh gateway for each lifecycle attempt
type Dialer func(token string) (Gateway, error)

// DiscordDialer opens real discordgo sessions
func DiscordDialer(token string) (Gateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	session.ShardCount = 1
	session.SyncEvents = false
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning

	return session, nil
}

// Store is the persistence collaborator
type Store interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// Plugin decorates the client's event bus with a feature subsystem.
// Attach runs once per client instance, Detach when that instance is torn down.
type Plugin interface {
	Name() string
	Attach(c *ExtendedClient) error
	Detach() error
}
