package lavalink

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
)

func track(id, title string, ms int64) *Track {
	return &Track{Encoded: "enc-" + id, Info: TrackInfo{Identifier: id, Title: title, Author: "artist", Length: ms}}
}

func TestFormattedDuration(t *testing.T) {
	tests := []struct {
		ms     int64
		stream bool
		want   string
	}{
		{ms: 0, want: "0:00"},
		{ms: 65_000, want: "1:05"},
		{ms: 3_725_000, want: "1:02:05"},
		{ms: 1000, stream: true, want: "Live"},
	}
	for _, tt := range tests {
		tr := &Track{Info: TrackInfo{Length: tt.ms, IsStream: tt.stream}}
		if got := tr.FormattedDuration(); got != tt.want {
			t.Errorf("FormattedDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestPlayerStatus(t *testing.T) {
	p := newPlayer("g")
	want := "Volume: `100%` | Filter: `Off` | Loop: `Off` | Autoplay: `Off`"
	if got := p.Status(); got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}

	p.Volume = 50
	p.Repeat = RepeatQueue
	p.Autoplay = true
	p.toggleFilter("nightcore")
	p.toggleFilter("8d")
	want = "Volume: `50%` | Filter: `nightcore, 8d` | Loop: `All Queue` | Autoplay: `On`"
	if got := p.Status(); got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}
}

func TestEnqueueStartsOnlyWhenIdle(t *testing.T) {
	p := newPlayer("g")
	if !p.enqueue(track("a", "A", 1000), track("b", "B", 1000)) {
		t.Fatal("enqueue on an idle player should start playback")
	}
	if p.Current.Info.Identifier != "a" || len(p.Queue) != 1 {
		t.Errorf("current = %s, queue = %d, want a and 1", p.Current.Info.Identifier, len(p.Queue))
	}
	if p.enqueue(track("c", "C", 1000)) {
		t.Error("enqueue while playing should not restart playback")
	}
	if p.enqueue() {
		t.Error("enqueue without tracks should be a no-op")
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name   string
		repeat RepeatMode
		skip   bool
		want   []string
	}{
		{name: "off", repeat: RepeatOff, want: []string{"b", "c", ""}},
		{name: "song", repeat: RepeatSong, want: []string{"a", "a", "a"}},
		{name: "song skipped", repeat: RepeatSong, skip: true, want: []string{"b", "c", ""}},
		{name: "queue", repeat: RepeatQueue, want: []string{"b", "c", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlayer("g")
			p.Repeat = tt.repeat
			p.enqueue(track("a", "A", 1), track("b", "B", 1), track("c", "C", 1))
			for i, want := range tt.want {
				got := ""
				if next := p.advance(tt.skip); next != nil {
					got = next.Info.Identifier
				}
				if got != want {
					t.Errorf("advance #%d = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestToggleFilter(t *testing.T) {
	p := newPlayer("g")
	if got := p.toggleFilter("bassboost"); len(got) != 1 {
		t.Fatalf("filters = %v, want [bassboost]", got)
	}
	p.toggleFilter("karaoke")
	got := p.toggleFilter("bassboost")
	if len(got) != 1 || got[0] != "karaoke" {
		t.Errorf("filters = %v, want [karaoke]", got)
	}
}

func TestBuildFilters(t *testing.T) {
	f := buildFilters([]string{"nightcore", "vaporwave", "8d", "unknown"})
	if f.Timescale == nil || f.Timescale.Speed != 0.8 {
		t.Errorf("timescale = %+v, want the vaporwave preset", f.Timescale)
	}
	if f.Rotation == nil {
		t.Error("rotation should be set by 8d")
	}
	if f.Equalizer != nil || f.Karaoke != nil {
		t.Error("unrequested filters should stay empty")
	}

	data, err := json.Marshal(buildFilters(nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("empty filters = %s, want {}", data)
	}
	if !IsFilter("8d") || IsFilter("off") {
		t.Error("IsFilter does not match the presets")
	}
	if names := FilterNames(); len(names) != len(presets) || names[0] != "8d" {
		t.Errorf("FilterNames() = %v", names)
	}
}

func TestParseNodes(t *testing.T) {
	nodes, err := ParseNodes("lava.local:2333, wss://secure.example:443,,", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(nodes))
	}
	if nodes[0].Host != "lava.local" || nodes[0].Port != 2333 || nodes[0].Secure {
		t.Errorf("nodes[0] = %+v", nodes[0])
	}
	if !nodes[1].Secure || nodes[1].Password != "pw" {
		t.Errorf("nodes[1] = %+v", nodes[1])
	}
	urls := []struct {
		node   NodeConfig
		scheme string
		want   string
	}{
		{nodes[0], "http", "http://lava.local:2333"},
		{nodes[1], "ws", "wss://secure.example:443"},
	}
	for _, u := range urls {
		if got := newNode(u.node, nil).baseURL(u.scheme); got != u.want {
			t.Errorf("baseURL(%q) = %q, want %q", u.scheme, got, u.want)
		}
	}

	for _, bad := range []string{"no-port", "host:abc"} {
		if _, err := ParseNodes(bad, ""); err == nil {
			t.Errorf("ParseNodes(%q) should fail", bad)
		}
	}
}

func TestLoadResultTracks(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		count    int
		playlist string
		err      bool
	}{
		{name: "track", body: `{"loadType":"track","data":{"encoded":"x","info":{"title":"A"}}}`, count: 1},
		{name: "search", body: `{"loadType":"search","data":[{"encoded":"x"},{"encoded":"y"}]}`, count: 2},
		{name: "playlist", body: `{"loadType":"playlist","data":{"info":{"name":"Mix"},"tracks":[{"encoded":"x"}]}}`, count: 1, playlist: "Mix"},
		{name: "empty", body: `{"loadType":"empty","data":{}}`},
		{name: "error", body: `{"loadType":"error","data":{"message":"boom","severity":"fault"}}`, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res LoadResult
			if err := json.Unmarshal([]byte(tt.body), &res); err != nil {
				t.Fatal(err)
			}
			tracks, playlist, err := res.Tracks()
			if (err != nil) != tt.err {
				t.Fatalf("err = %v, want error %v", err, tt.err)
			}
			if len(tracks) != tt.count || playlist != tt.playlist {
				t.Errorf("Tracks() = %d, %q, want %d, %q", len(tracks), playlist, tt.count, tt.playlist)
			}
		})
	}
}

func TestHumansIn(t *testing.T) {
	guild := &discordgo.Guild{VoiceStates: []*discordgo.VoiceState{
		{UserID: "bot", ChannelID: "vc"},
		{UserID: "other-bot", ChannelID: "vc", Member: &discordgo.Member{User: &discordgo.User{Bot: true}}},
		{UserID: "u1", ChannelID: "vc"},
		{UserID: "u2", ChannelID: "elsewhere"},
	}}
	if got := humansIn(guild, "vc", "bot"); got != 1 {
		t.Errorf("humansIn = %d, want 1", got)
	}
	if got := humansIn(nil, "vc", "bot"); got != 0 {
		t.Errorf("humansIn(nil) = %d, want 0", got)
	}
}

// recorder is a Listener that keeps the name of every event it received
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.events, ",")
}

func (r *recorder) PlaySong(*Player, *Track) { r.add("play") }
func (r *recorder) AddSong(*Player, *Track) { r.add("add") }
func (r *recorder) AddList(*Player, string, []*Track) { r.add("list") }
func (r *recorder) Finish(*Player) { r.add("finish") }
func (r *recorder) Empty(*Player) { r.add("empty") }
func (r *recorder) Error(*Player, error) { r.add("error") }
func (r *recorder) SearchNoResult(*Player, string) { r.add("noresult") }

type fakeVoice struct {
	mu    sync.Mutex
	joins []string
}

func (v *fakeVoice) ChannelVoiceJoinManual(gID, cID string, mute, deaf bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.joins = append(v.joins, cID)
	return nil
}

// fakeLavalink answers the REST calls the client makes
type fakeLavalink struct {
	mu      sync.Mutex
	calls   []string
	bodies  []PlayerUpdate
	results map[string]string
}

func (f *fakeLavalink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	if r.Header.Get("Authorization") != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch r.Method {
	case http.MethodGet:
		body, ok := f.results[r.URL.Query().Get("identifier")]
		if !ok {
			body = `{"loadType":"empty","data":{}}`
		}
		_, _ = io.WriteString(w, body)
	case http.MethodPatch:
		var u PlayerUpdate
		_ = json.NewDecoder(r.Body).Decode(&u)
		f.bodies = append(f.bodies, u)
		_, _ = io.WriteString(w, "{}")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func newTestClient(t *testing.T, f *fakeLavalink) (*LavalinkClient, *recorder, *fakeVoice) {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	host, portStr, _ := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	port, _ := strconv.Atoi(portStr)

	rec := &recorder{}
	voice := &fakeVoice{}
	c := NewLavalinkClient([]NodeConfig{{Name: "test", Host: host, Port: port, Password: "secret"}}, rec)
	c.voice = voice
	n := c.nodes[0]
	n.connected = true
	n.sessionID = "s1"
	return c, rec, voice
}

func TestPlayQueuesAndStarts(t *testing.T) {
	f := &fakeLavalink{results: map[string]string{
		"ytsearch:first":  `{"loadType":"search","data":[{"encoded":"e1","info":{"identifier":"1","title":"First"}},{"encoded":"e9"}]}`,
		"ytsearch:second": `{"loadType":"search","data":[{"encoded":"e2","info":{"identifier":"2","title":"Second"}}]}`,
	}}
	c, rec, voice := newTestClient(t, f)
	ctx := context.Background()

	if err := c.Play(ctx, "g1", "vc", "tc", "first", "<@u>"); err != nil {
		t.Fatalf("Play() = %v", err)
	}
	if err := c.Play(ctx, "g1", "vc", "tc", "second", "<@u>"); err != nil {
		t.Fatalf("Play() = %v", err)
	}

	p := c.Player("g1")
	current, queue := p.NowPlaying()
	if current.Encoded != "e1" || len(queue) != 1 || queue[0].Encoded != "e2" {
		t.Errorf("current = %v, queue = %d", current.Encoded, len(queue))
	}
	if current.Requester != "<@u>" {
		t.Errorf("requester = %q", current.Requester)
	}
	if len(voice.joins) != 1 || voice.joins[0] != "vc" {
		t.Errorf("joins = %v, want one join to vc", voice.joins)
	}
	if got := rec.list(); got != "add" {
		t.Errorf("events = %q, want add", got)
	}
	if len(f.bodies) != 1 || f.bodies[0].Track == nil || *f.bodies[0].Track.Encoded != "e1" {
		t.Errorf("player updates = %+v, want one track update for e1", f.bodies)
	}
	if f.calls[len(f.calls)-1] != "GET /v4/loadtracks" {
		t.Errorf("last call = %s", f.calls[len(f.calls)-1])
	}
}

func TestPlayNoResults(t *testing.T) {
	c, rec, _ := newTestClient(t, &fakeLavalink{})
	err := c.Play(context.Background(), "g1", "vc", "tc", "nothing", "<@u>")
	if err != ErrNoResults {
		t.Errorf("Play() = %v, want ErrNoResults", err)
	}
	if got := rec.list(); got != "noresult" {
		t.Errorf("events = %q, want noresult", got)
	}
}

func TestPlayerControls(t *testing.T) {
	f := &fakeLavalink{results: map[string]string{
		"https://example.com/list": `{"loadType":"playlist","data":{"info":{"name":"Mix"},"tracks":[{"encoded":"e1"},{"encoded":"e2"}]}}`,
	}}
	c, rec, voice := newTestClient(t, f)
	ctx := context.Background()

	if err := c.Play(ctx, "g1", "vc", "tc", "https://example.com/list", "<@u>"); err != nil {
		t.Fatalf("Play() = %v", err)
	}
	if got := rec.list(); got != "list" {
		t.Errorf("events = %q, want list", got)
	}

	if v, err := c.SetVolume(ctx, "g1", 5000); err != nil || v != MaxVolume {
		t.Errorf("SetVolume() = %d, %v, want %d", v, err, MaxVolume)
	}
	if err := c.Pause(ctx, "g1", true); err != nil || !c.Player("g1").Paused {
		t.Errorf("Pause() = %v", err)
	}
	if names, err := c.ToggleFilter(ctx, "g1", "nightcore"); err != nil || len(names) != 1 {
		t.Errorf("ToggleFilter() = %v, %v", names, err)
	}
	if _, err := c.ToggleFilter(ctx, "g1", "robot"); err == nil {
		t.Error("unknown filter should fail")
	}
	if on, err := c.ToggleAutoplay("g1"); err != nil || !on {
		t.Errorf("ToggleAutoplay() = %v, %v", on, err)
	}

	next, err := c.Skip(ctx, "g1")
	if err != nil || next == nil || next.Encoded != "e2" {
		t.Fatalf("Skip() = %v, %v, want e2", next, err)
	}
	if _, err := c.Skip(ctx, "g1"); err != nil {
		t.Fatalf("Skip() on the last track = %v", err)
	}
	if c.Player("g1") != nil {
		t.Error("skipping the last track should stop the player")
	}
	if last := voice.joins[len(voice.joins)-1]; last != "" {
		t.Errorf("last voice join = %q, want a leave", last)
	}
	if err := c.Pause(ctx, "g1", false); err != ErrNoPlayer {
		t.Errorf("Pause() without player = %v, want ErrNoPlayer", err)
	}
}

func TestTrackEndPlaysNext(t *testing.T) {
	f := &fakeLavalink{}
	c, rec, _ := newTestClient(t, f)
	p := c.GetPlayer("g1")
	p.enqueue(track("a", "A", 1), track("b", "B", 1))

	c.handleEvent(c.nodes[0], &wsMessage{Op: "event", Type: "TrackEndEvent", GuildID: "g1", Reason: "replaced"})
	if cur, _ := p.NowPlaying(); cur.Info.Identifier != "a" {
		t.Error("a replaced track should not advance the queue")
	}

	c.handleEvent(c.nodes[0], &wsMessage{Op: "event", Type: "TrackEndEvent", GuildID: "g1", Reason: "finished"})
	if cur, _ := p.NowPlaying(); cur == nil || cur.Info.Identifier != "b" {
		t.Errorf("current = %v, want b", cur)
	}
	c.handleEvent(c.nodes[0], &wsMessage{Op: "event", Type: "TrackStartEvent", GuildID: "g1"})
	c.handleEvent(c.nodes[0], &wsMessage{Op: "event", Type: "TrackEndEvent", GuildID: "g1", Reason: "finished"})

	if got := rec.list(); got != "play,finish" {
		t.Errorf("events = %q, want play,finish", got)
	}
}

func TestVoiceStateLeavesWhenAlone(t *testing.T) {
	c, rec, voice := newTestClient(t, &fakeLavalink{})
	p := c.GetPlayer("g1")
	p.VoiceChannelID = "vc"
	p.enqueue(track("a", "A", 1))

	guild := &discordgo.Guild{ID: "g1", VoiceStates: []*discordgo.VoiceState{
		{UserID: "bot", ChannelID: "vc"},
		{UserID: "u1", ChannelID: "vc"},
	}}
	c.HandleVoiceState("bot", &discordgo.VoiceState{GuildID: "g1", UserID: "u2", ChannelID: "vc"}, guild)
	if c.Player("g1") == nil {
		t.Fatal("player should stay while a listener remains")
	}

	guild.VoiceStates = guild.VoiceStates[:1]
	c.HandleVoiceState("bot", &discordgo.VoiceState{GuildID: "g1", UserID: "u1"}, guild)
	if c.Player("g1") != nil {
		t.Error("player should stop when the bot is alone")
	}
	if got := rec.list(); got != "empty" {
		t.Errorf("events = %q, want empty", got)
	}
	if len(voice.joins) != 1 || voice.joins[0] != "" {
		t.Errorf("joins = %v, want one leave", voice.joins)
	}
}

func TestVoiceHandshakeIsForwarded(t *testing.T) {
	f := &fakeLavalink{}
	c, _, _ := newTestClient(t, f)
	c.GetPlayer("g1")

	c.HandleVoiceState("bot", &discordgo.VoiceState{GuildID: "g1", UserID: "bot", ChannelID: "vc", SessionID: "sess"}, nil)
	if len(f.bodies) != 0 {
		t.Fatal("voice update sent before the server update")
	}
	c.HandleVoiceServer(&discordgo.VoiceServerUpdate{GuildID: "g1", Token: "tok", Endpoint: "ep"})
	if len(f.bodies) != 1 || f.bodies[0].Voice == nil {
		t.Fatalf("bodies = %+v, want one voice update", f.bodies)
	}
	if v := f.bodies[0].Voice; v.SessionID != "sess" || v.Token != "tok" || v.Endpoint != "ep" {
		t.Errorf("voice = %+v", v)
	}
}

func TestNoNodes(t *testing.T) {
	c := NewLavalinkClient(nil, &recorder{})
	if _, _, err := c.Search(context.Background(), "x"); err != ErrNoNodes {
		t.Errorf("Search() = %v, want ErrNoNodes", err)
	}
}
