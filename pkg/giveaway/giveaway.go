// Package giveaway runs reaction giveaways: a message collects 🎉 reactions
// until its end time, then random winners are drawn among the participants.
package giveaway

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// Default look of a giveaway
const (
	Reaction      = "🎉"
	EmbedColor    = 0x5865F2
	EmbedColorEnd = 0x992D22
)

var (
	ErrNotFound     = errors.New("giveaway not found")
	ErrAlreadyEnded = errors.New("giveaway already ended")
	ErrNotEnded     = errors.New("giveaway has not ended yet")
	ErrInvalid      = errors.New("a giveaway needs a prize, a duration and at least one winner")
)

// Giveaway is one stored giveaway
type Giveaway struct {
	MessageID   string   `json:"messageId"`
	ChannelID   string   `json:"channelId"`
	GuildID     string   `json:"guildId"`
	Prize       string   `json:"prize"`
	WinnerCount int      `json:"winnerCount"`
	HostedBy    string   `json:"hostedBy"`
	StartAt     int64    `json:"startAt"`
	EndAt       int64    `json:"endAt"`
	Ended       bool     `json:"ended"`
	WinnerIDs   []string `json:"winnerIds,omitempty"`
}

// Remaining returns the time left until the end, zero once due
func (g *Giveaway) Remaining(now time.Time) time.Duration {
	d := time.UnixMilli(g.EndAt).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Messenger is the Discord API used by the manager. *discordgo.Session implements it.
type Messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.User, error)
}

// StartOptions describe a new giveaway
type StartOptions struct {
	ChannelID string
	GuildID   string
	Prize     string
	Winners   int
	Duration  time.Duration
	HostedBy  string
}

// Manager owns the running giveaways and their end timers
type Manager struct {
	storage   Storage
	messenger Messenger
	// BotsCanWin lets bot accounts be drawn
	BotsCanWin bool

	mu        sync.Mutex
	giveaways map[string]*Giveaway
	timers    map[string]*time.Timer
	now       func() time.Time
}

var (
	manager   *Manager
	managerMu sync.RWMutex
)

// Get returns the global manager, nil when giveaways are disabled
func Get() *Manager {
	managerMu.RLock()
	defer managerMu.RUnlock()
	return manager
}

func setGlobal(m *Manager) {
	managerMu.Lock()
	defer managerMu.Unlock()
	manager = m
}

// NewManager creates a manager over storage
func NewManager(storage Storage, messenger Messenger) *Manager {
	return &Manager{
		storage:   storage,
		messenger: messenger,
		giveaways: make(map[string]*Giveaway),
		timers:    make(map[string]*time.Timer),
		now:       time.Now,
	}
}

// Restore loads the stored giveaways, ends the overdue ones and schedules the rest
func (m *Manager) Restore() error {
	stored, err := m.storage.Load()
	if err != nil {
		return fmt.Errorf("load giveaways: %w", err)
	}

	var overdue []string
	m.mu.Lock()
	for _, g := range stored {
		m.giveaways[g.MessageID] = g
		if g.Ended {
			continue
		}
		if g.Remaining(m.now()) == 0 {
			overdue = append(overdue, g.MessageID)
			continue
		}
		m.schedule(g)
	}
	m.mu.Unlock()

	for _, id := range overdue {
		if _, err := m.End(id); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo finalizar el sorteo %s: %v", id, err), "Giveaways")
		}
	}
	logger.Info(fmt.Sprintf("%d sorteos restaurados", len(stored)), "Giveaways")
	return nil
}

// endRetry is how long a giveaway whose draw failed waits before the next try
var endRetry = time.Minute

// schedule arms the end timer of g. The caller holds m.mu.
func (m *Manager) schedule(g *Giveaway) {
	m.scheduleIn(g.MessageID, g.Remaining(m.now()))
}

// scheduleIn arms the end timer of id to fire after d. The caller holds m.mu.
func (m *Manager) scheduleIn(id string, d time.Duration) {
	if t, ok := m.timers[id]; ok {
		t.Stop()
	}
	m.timers[id] = time.AfterFunc(d, func() {
		if _, err := m.End(id); err != nil && !errors.Is(err, ErrAlreadyEnded) {
			logger.Error(fmt.Sprintf("Error al finalizar el sorteo %s: %v", id, err), "Giveaways")
		}
	})
}

// Stop cancels every pending timer. Stored giveaways resume on the next Restore.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
}

// Start posts the giveaway message, reacts to it and schedules its end
func (m *Manager) Start(opts StartOptions) (*Giveaway, error) {
	if opts.Prize == "" || opts.Duration <= 0 || opts.Winners < 1 {
		return nil, ErrInvalid
	}

	now := m.now()
	g := &Giveaway{
		ChannelID:   opts.ChannelID,
		GuildID:     opts.GuildID,
		Prize:       opts.Prize,
		WinnerCount: opts.Winners,
		HostedBy:    opts.HostedBy,
		StartAt:     now.UnixMilli(),
		EndAt:       now.Add(opts.Duration).UnixMilli(),
	}

	msg, err := m.messenger.ChannelMessageSendEmbed(opts.ChannelID, runningEmbed(g))
	if err != nil {
		return nil, fmt.Errorf("send giveaway message: %w", err)
	}
	g.MessageID = msg.ID
	if err := m.messenger.MessageReactionAdd(opts.ChannelID, msg.ID, Reaction); err != nil {
		logger.Warn("No se pudo reaccionar al sorteo: "+err.Error(), "Giveaways")
	}

	m.mu.Lock()
	m.giveaways[g.MessageID] = g
	m.schedule(g)
	m.mu.Unlock()

	if err := m.save(); err != nil {
		return g, err
	}
	logger.Info(fmt.Sprintf("Sorteo iniciado: %s (%s)", g.Prize, g.MessageID), "Giveaways")
	return g, nil
}

// End draws the winners now and announces them
func (m *Manager) End(messageID string) (*Giveaway, error) {
	m.mu.Lock()
	g, ok := m.giveaways[messageID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if g.Ended {
		m.mu.Unlock()
		return g, ErrAlreadyEnded
	}
	g.Ended = true
	if t, ok := m.timers[messageID]; ok {
		t.Stop()
		delete(m.timers, messageID)
	}
	m.mu.Unlock()

	winners, err := m.draw(g, g.WinnerCount, nil)
	if err != nil {
		// still open, try again later
		m.mu.Lock()
		g.Ended = false
		m.scheduleIn(messageID, max(g.Remaining(m.now()), endRetry))
		m.mu.Unlock()
		return g, err
	}

	m.mu.Lock()
	g.WinnerIDs = winners
	m.mu.Unlock()

	if _, err := m.messenger.ChannelMessageEditEmbed(g.ChannelID, g.MessageID, endedEmbed(g)); err != nil {
		logger.Warn("No se pudo editar el sorteo: "+err.Error(), "Giveaways")
	}
	m.announce(g, winners, false)
	return g, m.save()
}

// Reroll draws new winners for an ended giveaway, skipping the previous ones
// while enough participants remain
func (m *Manager) Reroll(messageID string, count int) ([]string, error) {
	m.mu.Lock()
	g, ok := m.giveaways[messageID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if !g.Ended {
		m.mu.Unlock()
		return nil, ErrNotEnded
	}
	if count < 1 {
		count = g.WinnerCount
	}
	previous := append([]string(nil), g.WinnerIDs...)
	m.mu.Unlock()

	winners, err := m.draw(g, count, previous)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	g.WinnerIDs = winners
	m.mu.Unlock()

	m.announce(g, winners, true)
	return winners, m.save()
}

// List returns the giveaways of a guild, newest first
func (m *Manager) List(guildID string, includeEnded bool) []*Giveaway {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Giveaway
	for _, g := range m.giveaways {
		if g.GuildID != guildID || (g.Ended && !includeEnded) {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt > out[j].StartAt })
	return out
}

// Pending returns the number of armed timers
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// participants pages through the 🎉 reactions of the giveaway message
func (m *Manager) participants(g *Giveaway) ([]*discordgo.User, error) {
	var users []*discordgo.User
	after := ""
	for {
		page, err := m.messenger.MessageReactions(g.ChannelID, g.MessageID, Reaction, 100, "", after)
		if err != nil {
			return nil, err
		}
		users = append(users, page...)
		if len(page) < 100 {
			return users, nil
		}
		after = page[len(page)-1].ID
	}
}

// draw picks count distinct winners. Previous winners are only drawn again
// when there are not enough new participants.
func (m *Manager) draw(g *Giveaway, count int, previous []string) ([]string, error) {
	users, err := m.participants(g)
	if err != nil {
		return nil, fmt.Errorf("fetch participants: %w", err)
	}

	skip := make(map[string]bool, len(previous))
	for _, id := range previous {
		skip[id] = true
	}

	var fresh, repeat []string
	seen := make(map[string]bool)
	for _, u := range users {
		if u == nil || seen[u.ID] || (u.Bot && !m.BotsCanWin) {
			continue
		}
		seen[u.ID] = true
		if skip[u.ID] {
			repeat = append(repeat, u.ID)
		} else {
			fresh = append(fresh, u.ID)
		}
	}

	rand.Shuffle(len(fresh), func(i, j int) { fresh[i], fresh[j] = fresh[j], fresh[i] })
	winners := fresh
	if len(winners) < count {
		rand.Shuffle(len(repeat), func(i, j int) { repeat[i], repeat[j] = repeat[j], repeat[i] })
		winners = append(winners, repeat...)
	}
	if len(winners) > count {
		winners = winners[:count]
	}
	return winners, nil
}

func (m *Manager) announce(g *Giveaway, winners []string, reroll bool) {
	var content string
	switch {
	case len(winners) == 0:
		content = "No valid participations, no winners can be chosen!"
	case reroll:
		content = fmt.Sprintf("🎉 New winner(s): %s! Congratulations, you won **%s**!", mentions(winners), g.Prize)
	default:
		content = fmt.Sprintf("Congratulations, %s! You won **%s**!", mentions(winners), g.Prize)
	}
	if _, err := m.messenger.ChannelMessageSend(g.ChannelID, content); err != nil {
		logger.Warn("No se pudo anunciar el sorteo: "+err.Error(), "Giveaways")
	}
}

func (m *Manager) save() error {
	m.mu.Lock()
	list := make([]*Giveaway, 0, len(m.giveaways))
	for _, g := range m.giveaways {
		cp := *g
		list = append(list, &cp)
	}
	m.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].StartAt < list[j].StartAt })
	if err := m.storage.Save(list); err != nil {
		return fmt.Errorf("save giveaways: %w", err)
	}
	return nil
}

func mentions(ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "<@" + id + ">"
	}
	return strings.Join(parts, ", ")
}

func runningEmbed(g *Giveaway) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       g.Prize,
		Color:       EmbedColor,
		Description: fmt.Sprintf("React with %s to participate!\nEnds: <t:%d:R>\nHosted by: <@%s>", Reaction, g.EndAt/1000, g.HostedBy),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d winner(s)", g.WinnerCount)},
		Timestamp:   time.UnixMilli(g.EndAt).Format(time.RFC3339),
	}
}

func endedEmbed(g *Giveaway) *discordgo.MessageEmbed {
	winners := "No valid participations"
	if len(g.WinnerIDs) > 0 {
		winners = mentions(g.WinnerIDs)
	}
	return &discordgo.MessageEmbed{
		Title:       g.Prize,
		Color:       EmbedColorEnd,
		Description: fmt.Sprintf("Winner(s): %s\nHosted by: <@%s>", winners, g.HostedBy),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Ended at"},
		Timestamp:   time.UnixMilli(g.EndAt).Format(time.RFC3339),
	}
}
