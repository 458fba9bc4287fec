package discord

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v5"

	"github.com/PancyStudios/ApexieGo/pkg/config"
	"github.com/PancyStudios/ApexieGo/pkg/errors"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// CommandAPI replaces the remote command catalog of one scope.
// *discordgo.Session implements it.
type CommandAPI interface {
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Target is the remote scope a command set is published to
type Target struct {
	GuildID string
}

// GlobalTarget publishes to every guild
var GlobalTarget = Target{}

// Global reports whether t is the global scope
func (t Target) Global() bool { return t.GuildID == "" }

func (t Target) String() string {
	if t.Global() {
		return "global"
	}
	return "guild " + t.GuildID
}

// SelectTarget picks the guild scope when a guild is configured and the
// deployment mode is dev or debug, the global scope otherwise
func SelectTarget(cfg *config.Config) Target {
	if cfg.GuildID != "" && (cfg.IsDevelopment() || cfg.IsDebug()) {
		return Target{GuildID: cfg.GuildID}
	}
	return GlobalTarget
}

// Publisher syncs command sets to the remote platform
type Publisher struct {
	api      CommandAPI
	maxTries uint
	newBack  func() backoff.BackOff
}

// NewPublisher creates a Publisher retrying transient failures a few times
func NewPublisher(api CommandAPI) *Publisher {
	return &Publisher{
		api:      api,
		maxTries: 3,
		newBack: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			return b
		},
	}
}

// Publish replaces the full command set of target with cmds
func (p *Publisher) Publish(ctx context.Context, appID string, cmds []*Command, target Target) error {
	payload := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, cmd := range cmds {
		payload = append(payload, cmd.ApplicationCommands()...)
	}

	_, err := backoff.Retry(ctx, func() ([]*discordgo.ApplicationCommand, error) {
		created, err := p.api.ApplicationCommandBulkOverwrite(appID, target.GuildID, payload)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return created, err
	},
		backoff.WithBackOff(p.newBack()),
		backoff.WithMaxTries(p.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn(fmt.Sprintf("Publicación a %s falló, reintentando en %v: %v", target, next, err), "Publisher")
		}),
	)
	if err != nil {
		return &errors.RemoteSyncError{Scope: target.String(), Count: len(payload), Err: err}
	}

	logger.Success(fmt.Sprintf("%d comandos publicados en %s", len(payload), target), "Publisher")
	return nil
}

// Sync publishes the registry according to cfg. When the target is a guild,
// global and private commands share one payload since each publish replaces
// the whole scope. Otherwise private commands go to the configured guild.
func (p *Publisher) Sync(ctx context.Context, appID string, registry *CommandRegistry, cfg *config.Config) error {
	target := SelectTarget(cfg)
	global := registry.Commands(ScopeGlobal)
	private := registry.Commands(ScopeGuild)

	if !target.Global() {
		return p.Publish(ctx, appID, append(global, private...), target)
	}

	var errs []error
	if err := p.Publish(ctx, appID, global, target); err != nil {
		errs = append(errs, err)
	}
	if cfg.GuildID != "" {
		if err := p.Publish(ctx, appID, private, Target{GuildID: cfg.GuildID}); err != nil {
			errs = append(errs, err)
		}
	} else if len(private) > 0 {
		logger.Warn(fmt.Sprintf("%d comandos privados sin guildId configurado, no se publican", len(private)), "Publisher")
	}
	return stderrors.Join(errs...)
}

func retryable(err error) bool {
	var restErr *discordgo.RESTError
	if !stderrors.As(err, &restErr) || restErr.Response == nil {
		return true
	}
	code := restErr.Response.StatusCode
	return code == http.StatusTooManyRequests || code >= 500
}
