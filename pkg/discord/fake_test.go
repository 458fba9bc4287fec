package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
)

type overwrite struct {
	appID   string
	guildID string
	names   []string
}

// fakeGateway records every call and delivers emitted events synchronously
type fakeGateway struct {
	mu       sync.Mutex
	handlers []*fakeHandler
	log      []string

	openErr      error
	overwriteErr error
	respondErr   error

	opened     bool
	closed     bool
	overwrites []overwrite
	responses  []*discordgo.InteractionResponse
	followups  []*discordgo.WebhookParams
}

type fakeHandler struct {
	fn      func(*discordgo.Session, interface{})
	removed bool
}

func (g *fakeGateway) AddHandler(handler interface{}) func() {
	fn, ok := handler.(func(*discordgo.Session, interface{}))
	if !ok {
		panic("fakeGateway only supports catch-all handlers")
	}
	h := &fakeHandler{fn: fn}

	g.mu.Lock()
	g.handlers = append(g.handlers, h)
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		h.removed = true
		g.mu.Unlock()
	}
}

func (g *fakeGateway) Emit(payload interface{}) {
	g.mu.Lock()
	var active []*fakeHandler
	for _, h := range g.handlers {
		if !h.removed {
			active = append(active, h)
		}
	}
	g.mu.Unlock()

	for _, h := range active {
		h.fn(nil, payload)
	}
}

func (g *fakeGateway) activeHandlers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, h := range g.handlers {
		if !h.removed {
			n++
		}
	}
	return n
}

func (g *fakeGateway) Open() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log = append(g.log, "open")
	if g.openErr != nil {
		return g.openErr
	}
	g.opened = true
	return nil
}

func (g *fakeGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log = append(g.log, "close")
	g.closed = true
	return nil
}

func (g *fakeGateway) ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log = append(g.log, "publish:"+guildID)
	if g.overwriteErr != nil {
		return nil, g.overwriteErr
	}
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name)
	}
	g.overwrites = append(g.overwrites, overwrite{appID: appID, guildID: guildID, names: names})
	return commands, nil
}

func (g *fakeGateway) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.respondErr != nil {
		return g.respondErr
	}
	g.responses = append(g.responses, resp)
	return nil
}

func (g *fakeGateway) InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

func (g *fakeGateway) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.followups = append(g.followups, data)
	return &discordgo.Message{}, nil
}

func (g *fakeGateway) publishes() []overwrite {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]overwrite(nil), g.overwrites...)
}

func (g *fakeGateway) lastResponse() *discordgo.InteractionResponseData {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.responses) == 0 {
		return nil
	}
	return g.responses[len(g.responses)-1].Data
}

// fakeDialer hands out a new fakeGateway per dial
type fakeDialer struct {
	mu       sync.Mutex
	gateways []*fakeGateway
	prepare  func(*fakeGateway)
}

func (d *fakeDialer) Dial(token string) (Gateway, error) {
	gw := &fakeGateway{}
	if d.prepare != nil {
		d.prepare(gw)
	}
	d.mu.Lock()
	d.gateways = append(d.gateways, gw)
	d.mu.Unlock()
	return gw, nil
}

func (d *fakeDialer) last() *fakeGateway {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gateways[len(d.gateways)-1]
}

type fakeStore struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	connectErr  error
}

func (s *fakeStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	return s.connectErr
}

func (s *fakeStore) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
	return nil
}

type fakePlugin struct {
	attached int
	detached int
	seen     []string
}

func (p *fakePlugin) Name() string { return "fake" }

func (p *fakePlugin) Attach(c *ExtendedClient) error {
	p.attached++
	c.On("GuildCreate", func(s *discordgo.Session, payload interface{}) {
		p.seen = append(p.seen, payload.(*discordgo.GuildCreate).ID)
	})
	return nil
}

func (p *fakePlugin) Detach() error {
	p.detached++
	return nil
}

func slash(name, guildID, userID string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: guildID,
		Member:  &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data:    discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
	}}
}

func ready(appID string) *discordgo.Ready {
	return &discordgo.Ready{User: &discordgo.User{ID: appID, Username: "Apexie"}}
}
