package lavalink

import (
	"fmt"
	"strings"
	"sync"
)

// RepeatMode controls what happens when a track ends
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatSong
	RepeatQueue
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatSong:
		return "This Song"
	case RepeatQueue:
		return "All Queue"
	default:
		return "Off"
	}
}

// Volume bounds accepted by Lavalink
const (
	MinVolume = 0
	MaxVolume = 1000
)

// TrackInfo contains information about a track
type TrackInfo struct {
	Identifier string `json:"identifier"`
	IsSeekable bool   `json:"isSeekable"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	Position   int64  `json:"position"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
	ArtworkURL string `json:"artworkUrl"`
	SourceName string `json:"sourceName"`
}

// Track represents a playable track
type Track struct {
	Encoded string    `json:"encoded"`
	Info    TrackInfo `json:"info"`
	// Requester is the mention of the user who queued the track
	Requester string `json:"-"`
}

// FormattedDuration renders the track length as m:ss or h:mm:ss
func (t *Track) FormattedDuration() string {
	if t.Info.IsStream {
		return "Live"
	}
	total := t.Info.Length / 1000
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

type voiceState struct {
	sessionID string
	token     string
	endpoint  string
}

func (v voiceState) complete() bool {
	return v.sessionID != "" && v.token != "" && v.endpoint != ""
}

// Player is the music queue of one guild
type Player struct {
	GuildID        string
	TextChannelID  string
	VoiceChannelID string
	Current        *Track
	Queue          []*Track
	Volume         int
	Playing        bool
	Paused         bool
	Repeat         RepeatMode
	Autoplay       bool
	Filters        []string
	Position       int64

	voice voiceState
	mu    sync.RWMutex
}

func newPlayer(guildID string) *Player {
	return &Player{GuildID: guildID, Volume: 100}
}

// enqueue appends tracks. It reports whether playback must start, which is
// the case when nothing was playing.
func (p *Player) enqueue(tracks ...*Track) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(tracks) == 0 {
		return false
	}
	if p.Current == nil {
		p.Current = tracks[0]
		p.Playing = true
		p.Queue = append(p.Queue, tracks[1:]...)
		return true
	}
	p.Queue = append(p.Queue, tracks...)
	return false
}

// advance moves to the next track following the repeat mode. A skip never
// replays the current song. It returns nil once the queue is exhausted.
func (p *Player) advance(skip bool) *Track {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.Current
	if prev != nil && p.Repeat == RepeatSong && !skip {
		return prev
	}
	if prev != nil && p.Repeat == RepeatQueue {
		p.Queue = append(p.Queue, prev)
	}
	if len(p.Queue) == 0 {
		p.Current = nil
		p.Playing = false
		p.Position = 0
		return nil
	}
	p.Current = p.Queue[0]
	p.Queue = p.Queue[1:]
	p.Position = 0
	return p.Current
}

// clear drops the queue and the current track
func (p *Player) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Current = nil
	p.Queue = nil
	p.Playing = false
	p.Paused = false
	p.Position = 0
}

// toggleFilter enables name, or disables it when already active
func (p *Player) toggleFilter(name string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, f := range p.Filters {
		if f == name {
			p.Filters = append(p.Filters[:i:i], p.Filters[i+1:]...)
			return append([]string(nil), p.Filters...)
		}
	}
	p.Filters = append(p.Filters, name)
	return append([]string(nil), p.Filters...)
}

// NowPlaying returns the current track and the queued ones
func (p *Player) NowPlaying() (*Track, []*Track) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Current, append([]*Track(nil), p.Queue...)
}

// Status renders the one-line player summary shown in music embeds
func (p *Player) Status() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	filter := strings.Join(p.Filters, ", ")
	if filter == "" {
		filter = "Off"
	}
	autoplay := "Off"
	if p.Autoplay {
		autoplay = "On"
	}
	return fmt.Sprintf("Volume: `%d%%` | Filter: `%s` | Loop: `%s` | Autoplay: `%s`",
		p.Volume, filter, p.Repeat, autoplay)
}
