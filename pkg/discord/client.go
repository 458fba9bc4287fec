// Package discord provides the bot's module registries and the client that owns their lifecycle.
// It wraps discordgo with command and event dispatch, remote command publishing and restart control.
package discord

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/PancyStudios/ApexieGo/pkg/config"
	"github.com/PancyStudios/ApexieGo/pkg/errors"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// State is a step of the client lifecycle
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateLoading
	StateReady
	StateShuttingDown
	StateRestarting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting_down"
	case StateRestarting:
		return "restarting"
	default:
		return "unknown"
	}
}

// ErrNotIdle is returned when Start is called on a client that already started
var ErrNotIdle = errors.New("client is not idle")

// Options carry the collaborators of a client. They are reused across restarts.
type Options struct {
	Dialer  Dialer
	Sources []ModuleSource
	Store   Store
	Plugins []Plugin

	// Reload re-reads the configuration on restart. Nil keeps the current one.
	Reload func() (*config.Config, error)
	// Rebuild derives the sources and plugins from a reloaded configuration.
	// Nil reuses Sources and Plugins as they are.
	Rebuild func(cfg *config.Config) ([]ModuleSource, []Plugin)
	// Exit terminates the process: 0 after Shutdown, 1 when a restart
	// cannot reconnect
	Exit func(code int)
	// OnState observes lifecycle transitions
	OnState func(State)
}

// ExtendedClient owns the gateway connection, the registries and the plugins
type ExtendedClient struct {
	Config    *config.Config
	Commands  *CommandRegistry
	Events    *EventRegistry
	Cooldowns *ExecutionCooldown
	Publisher *Publisher
	StartTime time.Time

	opts      Options
	newBack   func() backoff.BackOff
	gateway   Gateway
	state     atomic.Int32
	readyOnce sync.Once
	ready     chan struct{}

	mu          sync.Mutex
	appID       string
	removers    []func()
	attached    []Plugin
	diagnostics []error
}

var (
	client   *ExtendedClient
	clientMu sync.RWMutex
)

// Init creates the process-wide client
func Init(cfg *config.Config, opts Options) *ExtendedClient {
	clientMu.Lock()
	defer clientMu.Unlock()
	if client == nil {
		client = New(cfg, opts)
	}
	return client
}

// Get returns the process-wide client, the newest one after a restart
func Get() *ExtendedClient {
	clientMu.RLock()
	defer clientMu.RUnlock()
	return client
}

func setGlobal(c *ExtendedClient) {
	clientMu.Lock()
	defer clientMu.Unlock()
	client = c
}

// New creates an idle client with empty registries
func New(cfg *config.Config, opts Options) *ExtendedClient {
	if opts.Dialer == nil {
		opts.Dialer = DiscordDialer
	}
	window := cfg.CooldownWindow
	if window <= 0 {
		window = 3 * time.Second
	}
	return &ExtendedClient{
		Config:    cfg,
		Commands:  NewCommandRegistry(),
		Events:    NewEventRegistry(),
		Cooldowns: NewExecutionCooldown(window),
		opts:      opts,
		ready:     make(chan struct{}),
		newBack: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 2 * time.Second
			return b
		},
	}
}

// State returns the current lifecycle state
func (c *ExtendedClient) State() State {
	return State(c.state.Load())
}

func (c *ExtendedClient) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev == s {
		return
	}
	logger.Debug(fmt.Sprintf("Estado: %s -> %s", prev, s), "Client")
	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}

// Ready is closed once the gateway signals readiness and commands were published
func (c *ExtendedClient) Ready() <-chan struct{} {
	return c.ready
}

// IsReady returns true if the bot is ready
func (c *ExtendedClient) IsReady() bool {
	return c.State() == StateReady
}

// Gateway returns the current gateway connection
func (c *ExtendedClient) Gateway() Gateway {
	return c.gateway
}

// Session returns the underlying discordgo session, nil for other gateways
func (c *ExtendedClient) Session() *discordgo.Session {
	s, _ := c.gateway.(*discordgo.Session)
	return s
}

// Start loads the modules, connects the persistence layer concurrently,
// subscribes the handlers and opens the gateway
func (c *ExtendedClient) Start(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return ErrNotIdle
	}
	if c.opts.OnState != nil {
		c.opts.OnState(StateConnecting)
	}

	gw, err := c.opts.Dialer(c.Config.BotToken)
	if err != nil {
		c.setState(StateIdle)
		return &errors.ConnectionError{Err: err}
	}
	c.gateway = gw
	c.Publisher = NewPublisher(gw)

	c.setState(StateLoading)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.loadModules()
		return nil
	})
	if c.opts.Store != nil {
		g.Go(func() error {
			if err := c.opts.Store.Connect(gctx); err != nil {
				c.diagnose(fmt.Errorf("persistence connect: %w", err))
				logger.Error("No se pudo conectar a la base de datos: "+err.Error(), "Client")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.On("Ready", c.onReady)
	c.On("InteractionCreate", c.onInteraction)
	if err := c.Events.Bind(gw, c.eventContext); err != nil {
		return err
	}

	for _, p := range c.opts.Plugins {
		if err := p.Attach(c); err != nil {
			c.diagnose(fmt.Errorf("plugin %s: %w", p.Name(), err))
			logger.Error(fmt.Sprintf("Plugin %s no se pudo iniciar: %v", p.Name(), err), "Client")
			continue
		}
		c.mu.Lock()
		c.attached = append(c.attached, p)
		c.mu.Unlock()
	}

	c.StartTime = time.Now()
	if err := gw.Open(); err != nil {
		c.teardown()
		c.setState(StateIdle)
		return &errors.ConnectionError{Err: err}
	}
	return nil
}

// loadModules folds every source's results into the registries
func (c *ExtendedClient) loadModules() {
	logger.System("Iniciando carga de módulos...", "Client")

	for _, err := range LoadModules(c.opts.Sources, c.Commands, c.Events) {
		c.diagnose(err)
		logger.Warn(err.Error(), "Loader")
	}

	logger.System(fmt.Sprintf("Carga finalizada: %d comandos, %d eventos", c.Commands.Size(), c.Events.Size()), "Client")
}

// LoadModules discovers the modules of every source into the given
// registries and returns the load failures. Duplicates stay in the
// registries' own diagnostics.
func LoadModules(sources []ModuleSource, commands *CommandRegistry, events *EventRegistry) []error {
	var failures []error
	for _, src := range sources {
		for _, res := range src.Discover(KindCommand) {
			if res.Err != nil {
				failures = append(failures, res.Err)
				continue
			}
			if cmd, ok := res.Module.(*Command); ok {
				_ = commands.Register(cmd)
			}
		}
		for _, res := range src.Discover(KindEvent) {
			if res.Err != nil {
				failures = append(failures, res.Err)
				continue
			}
			if ev, ok := res.Module.(*Event); ok {
				_ = events.Register(ev)
			}
		}
	}
	return failures
}

// On subscribes fn to one event type for the lifetime of this client
func (c *ExtendedClient) On(eventType string, fn func(s *discordgo.Session, payload interface{})) {
	remove := c.gateway.AddHandler(func(s *discordgo.Session, payload interface{}) {
		if EventName(payload) != eventType {
			return
		}
		defer errors.RecoverMiddleware()()
		fn(s, payload)
	})

	c.mu.Lock()
	c.removers = append(c.removers, remove)
	c.mu.Unlock()
}

func (c *ExtendedClient) eventContext(s *discordgo.Session) *EventContext {
	return &EventContext{Session: s, Client: c}
}

func (c *ExtendedClient) onReady(s *discordgo.Session, payload interface{}) {
	r, ok := payload.(*discordgo.Ready)
	if !ok {
		return
	}

	c.readyOnce.Do(func() {
		if r.User != nil {
			c.mu.Lock()
			c.appID = r.User.ID
			c.mu.Unlock()
			logger.Success("Bot conectado como: "+r.User.Username, "Client")
		}
		c.setState(StateReady)

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := c.Publisher.Sync(ctx, c.AppID(), c.Commands, c.Config); err != nil {
			c.diagnose(err)
			logger.Error(err.Error(), "Publisher")
		}
		close(c.ready)
	})
}

// AppID returns the application id learned from the ready event
func (c *ExtendedClient) AppID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appID
}

func (c *ExtendedClient) diagnose(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics = append(c.diagnostics, err)
}

// Diagnostics returns load errors, duplicates and startup failures of this instance
func (c *ExtendedClient) Diagnostics() []error {
	c.mu.Lock()
	diags := append([]error(nil), c.diagnostics...)
	c.mu.Unlock()

	diags = append(diags, c.Commands.Diagnostics()...)
	return append(diags, c.Events.Diagnostics()...)
}

// teardown drops every subscription, detaches plugins and closes the gateway
func (c *ExtendedClient) teardown() {
	c.Events.Unbind()

	c.mu.Lock()
	removers := c.removers
	attached := c.attached
	c.removers = nil
	c.attached = nil
	c.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
	for i := len(attached) - 1; i >= 0; i-- {
		if err := attached[i].Detach(); err != nil {
			logger.Warn(fmt.Sprintf("Plugin %s: %v", attached[i].Name(), err), "Client")
		}
	}
	c.Cooldowns.Reset()

	if c.gateway != nil {
		if err := c.gateway.Close(); err != nil {
			logger.Warn("Error cerrando la sesión: "+err.Error(), "Client")
		}
	}
}

func (c *ExtendedClient) disconnectStore(ctx context.Context) {
	if c.opts.Store == nil {
		return
	}
	if err := c.opts.Store.Disconnect(ctx); err != nil {
		logger.Warn("Error desconectando la base de datos: "+err.Error(), "Client")
	}
}

// Stop disconnects persistence and tears the session down without exiting
func (c *ExtendedClient) Stop(ctx context.Context) {
	c.setState(StateShuttingDown)
	logger.System("Apagando...", "Client")

	c.disconnectStore(ctx)
	c.teardown()
}

// Shutdown stops the client and exits with code 0
func (c *ExtendedClient) Shutdown(ctx context.Context) {
	c.Stop(ctx)

	logger.System("Proceso finalizado", "Client")
	if c.opts.Exit != nil {
		c.opts.Exit(0)
	}
}

// restartTries bounds the reconnect attempts of a restart
const restartTries = 3

// Restart tears this instance down and starts a brand-new client with
// fresh registries. The returned client replaces the process-wide one.
// Connection errors are retried up to restartTries times. The old session
// is already gone at that point, so any failure exits with code 1.
func (c *ExtendedClient) Restart(ctx context.Context) (*ExtendedClient, error) {
	if s := c.State(); s == StateShuttingDown || s == StateRestarting {
		return nil, fmt.Errorf("cannot restart while %s", s)
	}
	c.setState(StateRestarting)
	logger.System("Reiniciando...", "Client")

	c.disconnectStore(ctx)
	c.teardown()

	cfg := c.Config
	if c.opts.Reload != nil {
		reloaded, err := c.opts.Reload()
		if err != nil {
			logger.Warn("No se pudo recargar la configuración: "+err.Error(), "Client")
		} else {
			cfg = reloaded
		}
	}
	opts := c.opts
	if opts.Rebuild != nil {
		opts.Sources, opts.Plugins = opts.Rebuild(cfg)
	}

	next, err := backoff.Retry(ctx, func() (*ExtendedClient, error) {
		// each attempt gets fresh registries so nothing is registered twice
		attempt := New(cfg, opts)
		attempt.newBack = c.newBack
		if err := attempt.Start(ctx); err != nil {
			if IsConnectionError(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return attempt, nil
	},
		backoff.WithBackOff(c.newBack()),
		backoff.WithMaxTries(restartTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn(fmt.Sprintf("Reconexión fallida, reintentando en %v: %v", wait, err), "Client")
		}),
	)
	if err != nil {
		logger.Critical(fmt.Sprintf("No se pudo reiniciar: %v", err), "Client")
		if c.opts.Exit != nil {
			c.opts.Exit(1)
		}
		return nil, err
	}

	if Get() == c {
		setGlobal(next)
	}
	return next, nil
}

// Uptime returns the time since the gateway was opened
func (c *ExtendedClient) Uptime() time.Duration {
	if c.StartTime.IsZero() {
		return 0
	}
	return time.Since(c.StartTime)
}

// GuildCount returns the number of guilds the bot is in
func (c *ExtendedClient) GuildCount() int {
	s := c.Session()
	if s == nil || s.State == nil {
		return 0
	}
	s.State.RLock()
	defer s.State.RUnlock()
	return len(s.State.Guilds)
}

// IsConnectionError reports whether err ended a lifecycle attempt
func IsConnectionError(err error) bool {
	var connErr *errors.ConnectionError
	return stderrors.As(err, &connErr)
}
