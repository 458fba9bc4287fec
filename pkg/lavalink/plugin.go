package lavalink

import (
	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/config"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/mqtt"
)

// Plugin wires a Lavalink client into the lifetime of a bot client
type Plugin struct {
	Nodes  []NodeConfig
	Colors config.Palette
	// MQTT receives the music state when set
	MQTT *mqtt.MqttCommunicator

	client *LavalinkClient
}

// NewPlugin creates the music plugin
func NewPlugin(nodes []NodeConfig, colors config.Palette, comm *mqtt.MqttCommunicator) *Plugin {
	return &Plugin{Nodes: nodes, Colors: colors, MQTT: comm}
}

func (p *Plugin) Name() string { return "music" }

// Client returns the Lavalink client of the current attachment
func (p *Plugin) Client() *LavalinkClient { return p.client }

// Attach builds a fresh Lavalink client and subscribes it to the voice events
func (p *Plugin) Attach(c *discord.ExtendedClient) error {
	announcer := &Announcer{Colors: p.Colors}
	lc := NewLavalinkClient(p.Nodes, announcer)
	lc.mqtt = p.MQTT
	if s := c.Session(); s != nil {
		announcer.Messenger = s
		lc.voice = s
	}
	p.client = lc
	setGlobal(lc)

	c.On("Ready", func(s *discordgo.Session, payload interface{}) {
		if r, ok := payload.(*discordgo.Ready); ok && r.User != nil {
			lc.Connect(r.User.ID)
		}
	})
	c.On("VoiceStateUpdate", func(s *discordgo.Session, payload interface{}) {
		v, ok := payload.(*discordgo.VoiceStateUpdate)
		if !ok || v.VoiceState == nil {
			return
		}
		lc.HandleVoiceState(c.AppID(), v.VoiceState, cachedGuild(s, v.GuildID))
	})
	c.On("VoiceServerUpdate", func(s *discordgo.Session, payload interface{}) {
		if v, ok := payload.(*discordgo.VoiceServerUpdate); ok {
			lc.HandleVoiceServer(v)
		}
	})
	return nil
}

// Detach closes the nodes of the current attachment
func (p *Plugin) Detach() error {
	if p.client != nil {
		p.client.Disconnect()
		if Get() == p.client {
			setGlobal(nil)
		}
		p.client = nil
	}
	return nil
}

func cachedGuild(s *discordgo.Session, guildID string) *discordgo.Guild {
	if s == nil || s.State == nil {
		return nil
	}
	g, err := s.State.Guild(guildID)
	if err != nil {
		return nil
	}
	return g
}
