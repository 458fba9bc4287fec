// Package lavalink provides the music plugin: a Lavalink v4 client with
// per-guild queues, repeat modes, autoplay and audio filters.
package lavalink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/PancyStudios/ApexieGo/pkg/logger"
	"github.com/PancyStudios/ApexieGo/pkg/mqtt"
)

var (
	ErrNoNodes    = errors.New("no available Lavalink nodes")
	ErrNoResults  = errors.New("no results")
	ErrNoPlayer   = errors.New("nothing is playing in this guild")
	ErrNotInVoice = errors.New("bot is not in a voice channel")
)

// Voice joins and leaves voice channels. *discordgo.Session implements it.
type Voice interface {
	ChannelVoiceJoinManual(gID, cID string, mute, deaf bool) error
}

// MusicState represents the current music state for MQTT publishing
type MusicState struct {
	GuildID      string        `json:"guildId"`
	IsPlaying    bool          `json:"isPlaying"`
	IsPaused     bool          `json:"isPaused"`
	CurrentTrack *TrackState   `json:"currentTrack"`
	Progress     float64       `json:"progress"`
	Volume       int           `json:"volume"`
	Repeat       string        `json:"repeat"`
	Autoplay     bool          `json:"autoplay"`
	Queue        []*TrackState `json:"queue"`
	Timestamp    int64         `json:"timestamp"`
}

// TrackState represents a track in the music state
type TrackState struct {
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	URL       string  `json:"url,omitempty"`
}

// LavalinkClient manages the Lavalink nodes and the guild players
type LavalinkClient struct {
	nodes    []*Node
	listener Listener
	voice    Voice
	mqtt     *mqtt.MqttCommunicator

	// DefaultPlatform prefixes plain search queries
	DefaultPlatform string

	mu       sync.RWMutex
	players  map[string]*Player
	userID   string
	progress chan struct{}
}

var (
	lavalinkClient *LavalinkClient
	clientMu       sync.RWMutex
)

// Get returns the global Lavalink client, nil when music is disabled
func Get() *LavalinkClient {
	clientMu.RLock()
	defer clientMu.RUnlock()
	return lavalinkClient
}

func setGlobal(c *LavalinkClient) {
	clientMu.Lock()
	defer clientMu.Unlock()
	lavalinkClient = c
}

// NewLavalinkClient creates a client for the given nodes
func NewLavalinkClient(configs []NodeConfig, listener Listener) *LavalinkClient {
	c := &LavalinkClient{
		listener:        listener,
		DefaultPlatform: "ytsearch",
		players:         make(map[string]*Player),
	}
	for _, cfg := range configs {
		c.nodes = append(c.nodes, newNode(cfg, c))
	}
	return c
}

// Connect opens every node as userID and starts publishing progress
func (c *LavalinkClient) Connect(userID string) {
	c.mu.Lock()
	c.userID = userID
	if c.progress == nil && c.mqtt != nil {
		c.progress = make(chan struct{})
		go c.publishProgress(c.progress)
	}
	c.mu.Unlock()

	for _, node := range c.nodes {
		go node.run(userID)
	}
}

// Disconnect closes every node and forgets the players
func (c *LavalinkClient) Disconnect() {
	for _, node := range c.nodes {
		node.close()
	}

	c.mu.Lock()
	if c.progress != nil {
		close(c.progress)
		c.progress = nil
	}
	c.players = make(map[string]*Player)
	c.mu.Unlock()

	logger.System("Lavalink client desconectado", "Lavalink")
}

func (c *LavalinkClient) node() (*Node, error) {
	for _, n := range c.nodes {
		if n.Available() {
			return n, nil
		}
	}
	return nil, ErrNoNodes
}

// Player returns the player of a guild, nil if there is none
func (c *LavalinkClient) Player(guildID string) *Player {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.players[guildID]
}

// GetPlayer gets or creates the player of a guild
func (c *LavalinkClient) GetPlayer(guildID string) *Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.players[guildID]; ok {
		return p
	}
	p := newPlayer(guildID)
	c.players[guildID] = p
	return p
}

func (c *LavalinkClient) removePlayer(guildID string) {
	c.mu.Lock()
	delete(c.players, guildID)
	c.mu.Unlock()
}

func (c *LavalinkClient) updatePosition(guildID string, position int64) {
	if p := c.Player(guildID); p != nil {
		p.mu.Lock()
		p.Position = position
		p.mu.Unlock()
	}
}

// identifier turns a user query into a loadtracks identifier
func (c *LavalinkClient) identifier(query string) string {
	if u, err := url.Parse(query); err == nil && u.Scheme != "" && u.Host != "" {
		return query
	}
	return c.DefaultPlatform + ":" + query
}

// Search loads the tracks for a query or URL
func (c *LavalinkClient) Search(ctx context.Context, query string) ([]*Track, string, error) {
	node, err := c.node()
	if err != nil {
		return nil, "", err
	}
	res, err := node.loadTracks(ctx, c.identifier(query))
	if err != nil {
		return nil, "", err
	}
	return res.Tracks()
}

// Play searches query and queues the result, joining the voice channel when
// the player is new
func (c *LavalinkClient) Play(ctx context.Context, guildID, voiceChannelID, textChannelID, query, requester string) error {
	p := c.GetPlayer(guildID)
	p.mu.Lock()
	p.TextChannelID = textChannelID
	join := p.VoiceChannelID != voiceChannelID
	p.VoiceChannelID = voiceChannelID
	p.mu.Unlock()

	tracks, playlist, err := c.Search(ctx, query)
	if err != nil {
		c.listener.Error(p, err)
		return err
	}
	if len(tracks) == 0 {
		c.listener.SearchNoResult(p, query)
		return ErrNoResults
	}
	if playlist == "" {
		tracks = tracks[:1]
	}
	for _, t := range tracks {
		t.Requester = requester
	}

	if join && c.voice != nil {
		if err := c.voice.ChannelVoiceJoinManual(guildID, voiceChannelID, false, true); err != nil {
			return fmt.Errorf("join voice channel: %w", err)
		}
	}

	start := p.enqueue(tracks...)
	switch {
	case playlist != "":
		c.listener.AddList(p, playlist, tracks)
	case !start:
		c.listener.AddSong(p, tracks[0])
	}
	if start {
		return c.playCurrent(ctx, p)
	}
	return nil
}

func (c *LavalinkClient) playCurrent(ctx context.Context, p *Player) error {
	p.mu.RLock()
	track := p.Current
	volume := p.Volume
	p.mu.RUnlock()
	if track == nil {
		return ErrNoPlayer
	}

	node, err := c.node()
	if err != nil {
		return err
	}
	encoded := track.Encoded
	return node.updatePlayer(ctx, p.GuildID, PlayerUpdate{
		Track:  &UpdateTrack{Encoded: &encoded},
		Volume: &volume,
	})
}

// update sends a player change to the node
func (c *LavalinkClient) update(ctx context.Context, guildID string, u PlayerUpdate) error {
	node, err := c.node()
	if err != nil {
		return err
	}
	return node.updatePlayer(ctx, guildID, u)
}

func (c *LavalinkClient) active(guildID string) (*Player, error) {
	p := c.Player(guildID)
	if p == nil {
		return nil, ErrNoPlayer
	}
	p.mu.RLock()
	playing := p.Current != nil
	p.mu.RUnlock()
	if !playing {
		return nil, ErrNoPlayer
	}
	return p, nil
}

// Pause pauses or resumes playback
func (c *LavalinkClient) Pause(ctx context.Context, guildID string, pause bool) error {
	p, err := c.active(guildID)
	if err != nil {
		return err
	}
	if err := c.update(ctx, guildID, PlayerUpdate{Paused: &pause}); err != nil {
		return err
	}
	p.mu.Lock()
	p.Paused = pause
	p.mu.Unlock()
	return nil
}

// Skip plays the next track, stopping when the queue is empty
func (c *LavalinkClient) Skip(ctx context.Context, guildID string) (*Track, error) {
	p, err := c.active(guildID)
	if err != nil {
		return nil, err
	}
	next := p.advance(true)
	if next == nil {
		return nil, c.Stop(ctx, guildID)
	}
	return next, c.playCurrent(ctx, p)
}

// Stop clears the queue, stops the track and leaves the voice channel
func (c *LavalinkClient) Stop(ctx context.Context, guildID string) error {
	p := c.Player(guildID)
	if p == nil {
		return ErrNoPlayer
	}
	p.clear()
	c.removePlayer(guildID)
	c.publishMusicEvent(p, "stopped")

	if c.voice != nil {
		if err := c.voice.ChannelVoiceJoinManual(guildID, "", false, true); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo salir del canal de voz en %s: %v", guildID, err), "Lavalink")
		}
	}

	node, err := c.node()
	if err != nil {
		return nil
	}
	return node.destroyPlayer(ctx, guildID)
}

// SetVolume sets the player volume, clamped to the Lavalink range
func (c *LavalinkClient) SetVolume(ctx context.Context, guildID string, volume int) (int, error) {
	volume = min(max(volume, MinVolume), MaxVolume)
	p, err := c.active(guildID)
	if err != nil {
		return 0, err
	}
	if err := c.update(ctx, guildID, PlayerUpdate{Volume: &volume}); err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.Volume = volume
	p.mu.Unlock()
	return volume, nil
}

// SetRepeat changes the repeat mode
func (c *LavalinkClient) SetRepeat(guildID string, mode RepeatMode) error {
	p, err := c.active(guildID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.Repeat = mode
	p.mu.Unlock()
	return nil
}

// ToggleAutoplay flips autoplay and returns the new value
func (c *LavalinkClient) ToggleAutoplay(guildID string) (bool, error) {
	p, err := c.active(guildID)
	if err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Autoplay = !p.Autoplay
	return p.Autoplay, nil
}

// ToggleFilter enables or disables a filter preset, "off" clears them all
func (c *LavalinkClient) ToggleFilter(ctx context.Context, guildID, name string) ([]string, error) {
	p, err := c.active(guildID)
	if err != nil {
		return nil, err
	}

	var names []string
	if name == "off" {
		p.mu.Lock()
		p.Filters = nil
		p.mu.Unlock()
	} else {
		if !IsFilter(name) {
			return nil, fmt.Errorf("unknown filter %q", name)
		}
		names = p.toggleFilter(name)
	}

	filters := buildFilters(names)
	return names, c.update(ctx, guildID, PlayerUpdate{Filters: &filters})
}

// handleEvent reacts to player events sent by a node
func (c *LavalinkClient) handleEvent(n *Node, msg *wsMessage) {
	p := c.Player(msg.GuildID)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch msg.Type {
	case "TrackStartEvent":
		p.mu.Lock()
		p.Playing = true
		track := p.Current
		p.mu.Unlock()
		if track != nil {
			logger.Info(fmt.Sprintf("Reproduciendo: %s en guild %s", track.Info.Title, msg.GuildID), "Lavalink")
			c.listener.PlaySong(p, track)
		}
		c.publishMusicEvent(p, "playing")

	case "TrackEndEvent":
		if msg.Reason != "finished" && msg.Reason != "loadFailed" {
			return
		}
		c.next(ctx, p)

	case "TrackExceptionEvent":
		c.listener.Error(p, msg.Exception)

	case "TrackStuckEvent":
		logger.Warn(fmt.Sprintf("Pista atascada en guild %s", msg.GuildID), "Lavalink")
		if _, err := c.Skip(ctx, msg.GuildID); err != nil {
			c.listener.Error(p, err)
		}

	case "WebSocketClosedEvent":
		logger.Warn(fmt.Sprintf("Conexión de voz cerrada en guild %s", msg.GuildID), "Lavalink")
	}
}

// next continues after a finished track: repeat, queue, autoplay or finish
func (c *LavalinkClient) next(ctx context.Context, p *Player) {
	p.mu.RLock()
	last := p.Current
	autoplay := p.Autoplay
	p.mu.RUnlock()

	if p.advance(false) != nil {
		if err := c.playCurrent(ctx, p); err != nil {
			c.listener.Error(p, err)
		}
		return
	}

	if autoplay && last != nil {
		if related := c.related(ctx, last); related != nil {
			p.enqueue(related)
			if err := c.playCurrent(ctx, p); err != nil {
				c.listener.Error(p, err)
			}
			return
		}
	}

	logger.Info(fmt.Sprintf("Cola finalizada en guild %s", p.GuildID), "Lavalink")
	c.publishMusicEvent(p, "stopped")
	c.listener.Finish(p)
}

// related finds a track by the same author that is not last
func (c *LavalinkClient) related(ctx context.Context, last *Track) *Track {
	tracks, _, err := c.Search(ctx, last.Info.Author)
	if err != nil {
		return nil
	}
	for _, t := range tracks {
		if t.Info.Identifier != last.Info.Identifier {
			return t
		}
	}
	return nil
}

// State builds the MQTT snapshot of a player
func (p *Player) State() MusicState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state := MusicState{
		GuildID:   p.GuildID,
		IsPlaying: p.Playing,
		IsPaused:  p.Paused,
		Progress:  float64(p.Position) / 1000,
		Volume:    p.Volume,
		Repeat:    p.Repeat.String(),
		Autoplay:  p.Autoplay,
		Timestamp: time.Now().UnixMilli(),
	}
	if t := p.Current; t != nil {
		state.CurrentTrack = &TrackState{
			Title:     t.Info.Title,
			Artist:    t.Info.Author,
			Duration:  float64(t.Info.Length) / 1000,
			Thumbnail: t.Info.ArtworkURL,
			URL:       t.Info.URI,
		}
	}
	for _, t := range p.Queue {
		state.Queue = append(state.Queue, &TrackState{
			Title:    t.Info.Title,
			Artist:   t.Info.Author,
			Duration: float64(t.Info.Length) / 1000,
		})
	}
	return state
}

// publishMusicEvent publishes a music event via MQTT
func (c *LavalinkClient) publishMusicEvent(p *Player, event string) {
	if c.mqtt == nil || !c.mqtt.IsConnected() {
		return
	}
	if err := c.mqtt.Publish(c.mqtt.Topic("music", p.GuildID, event), p.State()); err != nil {
		logger.Debug(fmt.Sprintf("No se pudo publicar %s: %v", event, err), "Lavalink")
	}
}

// publishProgress reports every playing player until stop is closed
func (c *LavalinkClient) publishProgress(stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.RLock()
			players := make([]*Player, 0, len(c.players))
			for _, p := range c.players {
				players = append(players, p)
			}
			c.mu.RUnlock()

			for _, p := range players {
				p.mu.RLock()
				playing := p.Playing && !p.Paused
				p.mu.RUnlock()
				if playing {
					c.publishMusicEvent(p, "progress")
				}
			}
		}
	}
}
