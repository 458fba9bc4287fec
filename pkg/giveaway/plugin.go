package giveaway

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// Plugin runs a giveaway manager for each client instance
type Plugin struct {
	Storage Storage
	// Messenger overrides the client session, used by tests
	Messenger Messenger

	manager *Manager
}

// NewPlugin creates the giveaway plugin storing its data at path
func NewPlugin(path string) *Plugin {
	return &Plugin{Storage: NewFileStorage(path)}
}

func (p *Plugin) Name() string { return "giveaways" }

// Manager returns the manager of the current attachment
func (p *Plugin) Manager() *Manager { return p.manager }

// Attach creates the manager and restores the stored giveaways once the gateway is ready
func (p *Plugin) Attach(c *discord.ExtendedClient) error {
	messenger := p.Messenger
	if messenger == nil {
		if s := c.Session(); s != nil {
			messenger = s
		}
	}
	if messenger == nil {
		return errors.New("no messenger available")
	}

	m := NewManager(p.Storage, messenger)
	p.manager = m
	setGlobal(m)

	var once sync.Once
	c.On("Ready", func(_ *discordgo.Session, _ interface{}) {
		once.Do(func() {
			if err := m.Restore(); err != nil {
				logger.Error(fmt.Sprintf("Error al restaurar sorteos: %v", err), "Giveaways")
			}
		})
	})
	return nil
}

// Detach cancels the timers of the current attachment
func (p *Plugin) Detach() error {
	if p.manager == nil {
		return nil
	}
	p.manager.Stop()
	if Get() == p.manager {
		setGlobal(nil)
	}
	p.manager = nil
	return nil
}
