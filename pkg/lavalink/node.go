package lavalink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// NodeConfig holds configuration for a Lavalink node
type NodeConfig struct {
	Name     string
	Host     string
	Port     int
	Password string
	Secure   bool
}

// ParseNodes reads a comma separated list of host:port addresses sharing one password
func ParseNodes(servers, password string) ([]NodeConfig, error) {
	var nodes []NodeConfig
	for i, addr := range strings.Split(servers, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		secure := strings.HasPrefix(addr, "wss://") || strings.HasPrefix(addr, "https://")
		if idx := strings.Index(addr, "://"); idx >= 0 {
			addr = addr[idx+3:]
		}

		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("lavalink node %q: %w", addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("lavalink node %q: invalid port", addr)
		}
		nodes = append(nodes, NodeConfig{
			Name:     fmt.Sprintf("node-%d", i+1),
			Host:     host,
			Port:     port,
			Password: password,
			Secure:   secure,
		})
	}
	return nodes, nil
}

// Node is one Lavalink server: a websocket for events and REST for control
type Node struct {
	config NodeConfig
	client *LavalinkClient
	http   *http.Client

	mu        sync.RWMutex
	conn      *websocket.Conn
	sessionID string
	connected bool
	stop      chan struct{}
}

func newNode(config NodeConfig, client *LavalinkClient) *Node {
	return &Node{
		config: config,
		client: client,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Node) baseURL(scheme string) string {
	if n.config.Secure {
		scheme += "s"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, n.config.Host, n.config.Port)
}

// Available reports whether the node has a session
func (n *Node) Available() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.connected && n.sessionID != ""
}

// run keeps the websocket connected until close is called
func (n *Node) run(userID string) {
	n.mu.Lock()
	if n.stop != nil {
		n.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	n.stop = stop
	n.mu.Unlock()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = time.Minute

	for {
		if err := n.dial(userID); err != nil {
			logger.Error(fmt.Sprintf("Error al conectar con Lavalink %s: %v", n.config.Name, err), "Lavalink")
		} else {
			b.Reset()
			n.readMessages()
		}

		select {
		case <-stop:
			return
		case <-time.After(b.NextBackOff()):
		}
	}
}

func (n *Node) dial(userID string) error {
	headers := http.Header{}
	headers.Set("Authorization", n.config.Password)
	headers.Set("User-Id", userID)
	headers.Set("Client-Name", "Apexie/1.0")

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(n.baseURL("ws")+"/v4/websocket", headers)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.conn = conn
	n.connected = true
	n.mu.Unlock()
	return nil
}

// readMessages reads until the connection drops
func (n *Node) readMessages() {
	n.mu.RLock()
	conn := n.conn
	n.mu.RUnlock()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			n.mu.Lock()
			n.connected = false
			n.sessionID = ""
			n.mu.Unlock()
			_ = conn.Close()
			logger.Warn(fmt.Sprintf("Desconectado de Lavalink %s: %v", n.config.Name, err), "Lavalink")
			return
		}
		n.handleMessage(message)
	}
}

// wsMessage is any message received on the websocket
type wsMessage struct {
	Op        string       `json:"op"`
	SessionID string       `json:"sessionId"`
	GuildID   string       `json:"guildId"`
	Type      string       `json:"type"`
	Reason    string       `json:"reason"`
	Track     *Track       `json:"track"`
	State     *playerState `json:"state"`
	Exception *Exception   `json:"exception"`
}

type playerState struct {
	Time      int64 `json:"time"`
	Position  int64 `json:"position"`
	Connected bool  `json:"connected"`
	Ping      int   `json:"ping"`
}

// Exception is an error reported by Lavalink
type Exception struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

func (e *Exception) Error() string {
	if e == nil {
		return "unknown lavalink exception"
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Severity)
}

func (n *Node) handleMessage(data []byte) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	switch msg.Op {
	case "ready":
		n.mu.Lock()
		n.sessionID = msg.SessionID
		n.mu.Unlock()
		logger.Success(fmt.Sprintf("Conectado con Lavalink server: %s", n.config.Name), "Lavalink")
	case "playerUpdate":
		if msg.State != nil {
			n.client.updatePosition(msg.GuildID, msg.State.Position)
		}
	case "event":
		n.client.handleEvent(n, &msg)
	}
}

// close stops the reconnect loop and the websocket
func (n *Node) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stop != nil {
		close(n.stop)
		n.stop = nil
	}
	if n.conn != nil {
		_ = n.conn.Close()
	}
	n.connected = false
	n.sessionID = ""
}

func (n *Node) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, n.baseURL("http")+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", n.config.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("lavalink %s %s: %d %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// LoadResult is the response of /v4/loadtracks
type LoadResult struct {
	LoadType string          `json:"loadType"`
	Data     json.RawMessage `json:"data"`
}

// Playlist is the data of a playlist load result
type Playlist struct {
	Info struct {
		Name          string `json:"name"`
		SelectedTrack int    `json:"selectedTrack"`
	} `json:"info"`
	Tracks []*Track `json:"tracks"`
}

// Tracks decodes the tracks of any load type
func (r *LoadResult) Tracks() ([]*Track, string, error) {
	switch r.LoadType {
	case "track":
		var t Track
		if err := json.Unmarshal(r.Data, &t); err != nil {
			return nil, "", err
		}
		return []*Track{&t}, "", nil
	case "search":
		var tracks []*Track
		if err := json.Unmarshal(r.Data, &tracks); err != nil {
			return nil, "", err
		}
		return tracks, "", nil
	case "playlist":
		var p Playlist
		if err := json.Unmarshal(r.Data, &p); err != nil {
			return nil, "", err
		}
		return p.Tracks, p.Info.Name, nil
	case "error":
		var e Exception
		_ = json.Unmarshal(r.Data, &e)
		return nil, "", &e
	default:
		return nil, "", nil
	}
}

func (n *Node) loadTracks(ctx context.Context, identifier string) (*LoadResult, error) {
	var res LoadResult
	err := n.do(ctx, http.MethodGet, "/v4/loadtracks?identifier="+url.QueryEscape(identifier), nil, &res)
	return &res, err
}

// UpdateTrack selects the track to play. A nil Encoded stops playback.
type UpdateTrack struct {
	Encoded *string `json:"encoded"`
}

// VoiceUpdate forwards the Discord voice connection to Lavalink
type VoiceUpdate struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

// PlayerUpdate is the body of a player PATCH, nil fields are left unchanged
type PlayerUpdate struct {
	Track   *UpdateTrack `json:"track,omitempty"`
	Paused  *bool        `json:"paused,omitempty"`
	Volume  *int         `json:"volume,omitempty"`
	Filters *Filters     `json:"filters,omitempty"`
	Voice   *VoiceUpdate `json:"voice,omitempty"`
}

func (n *Node) session() (string, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.connected || n.sessionID == "" {
		return "", fmt.Errorf("node %s has no session", n.config.Name)
	}
	return n.sessionID, nil
}

func (n *Node) updatePlayer(ctx context.Context, guildID string, update PlayerUpdate) error {
	sid, err := n.session()
	if err != nil {
		return err
	}
	return n.do(ctx, http.MethodPatch, fmt.Sprintf("/v4/sessions/%s/players/%s", sid, guildID), update, nil)
}

func (n *Node) destroyPlayer(ctx context.Context, guildID string) error {
	sid, err := n.session()
	if err != nil {
		return err
	}
	return n.do(ctx, http.MethodDelete, fmt.Sprintf("/v4/sessions/%s/players/%s", sid, guildID), nil, nil)
}
