package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PancyStudios/ApexieGo/pkg/config"
	"github.com/PancyStudios/ApexieGo/pkg/database"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/errors"
	"github.com/PancyStudios/ApexieGo/pkg/giveaway"
	"github.com/PancyStudios/ApexieGo/pkg/lavalink"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
	"github.com/PancyStudios/ApexieGo/pkg/mqtt"
	"github.com/PancyStudios/ApexieGo/pkg/web"
)

func runBot(_ *cobra.Command, _ []string) error {
	cfg, err := boot()
	if err != nil {
		return err
	}

	var (
		server *web.Server
		comm   *mqtt.MqttCommunicator
	)
	// release runs on every way out, os.Exit included. The anti-crash path
	// only closes services because the handler logs afterwards.
	closeServices := releaser(
		func() {
			if server == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				logger.Warn(fmt.Sprintf("Error deteniendo el servidor web: %v", err), "Main")
			}
		},
		func() {
			if comm != nil {
				comm.Destroy()
			}
		},
	)
	release := releaser(closeServices, func() { logger.Get().Close() })
	defer release()

	logger.System("Iniciando Apexie...", "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", currentDir()), "Main")

	// the handler still logs and then exits with code 1 once this returns
	errors.Init(cfg.ErrorWebhook, func() {
		if c := discord.Get(); c != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			c.Stop(ctx)
		}
		closeServices()
	})

	db := database.Init(cfg.MongoDBURL, cfg.DBName)
	database.InitGlobalDataManagers(db)

	mqttClientID := "apexie"
	if !cfg.IsProd() {
		mqttClientID = "apexie_canary"
	}
	comm = mqtt.Init(mqtt.Options{
		Host:     cfg.MQTTHost,
		Port:     cfg.MQTTPort,
		Username: cfg.MQTTUser,
		Password: cfg.MQTTPassword,
		ClientID: mqttClientID,
		Prefix:   cfg.MQTTPrefix,
	})

	bridge := mqtt.NewBridge(comm, mqtt.Control{
		Restart: func(ctx context.Context) error {
			c := discord.Get()
			if c == nil {
				return fmt.Errorf("client not started")
			}
			_, err := c.Restart(ctx)
			return err
		},
		Shutdown: func(ctx context.Context) {
			if c := discord.Get(); c != nil {
				c.Shutdown(ctx)
			}
		},
		Status: status,
	})
	if err := bridge.Start(); err != nil {
		logger.Warn(err.Error(), "Main")
	}

	server, err = web.Init(web.Options{
		WebhookURL:   cfg.LogsWebServerHook,
		AllowedHosts: cfg.AllowedHosts,
		RateLimit:    cfg.RateLimit,
		Burst:        cfg.RateLimitBurst,
	})
	if err != nil {
		return err
	}
	server.StartAsync(cfg.Port)

	client := discord.Init(cfg, discord.Options{
		Sources: sources(cfg),
		Store:   db,
		Plugins: plugins(cfg, comm),
		Reload:  reloadConfig,
		Rebuild: func(c *config.Config) ([]discord.ModuleSource, []discord.Plugin) {
			return sources(c), plugins(c, comm)
		},
		Exit: func(code int) {
			release()
			os.Exit(code)
		},
		OnState: func(s discord.State) { bridge.PublishState(s.String()) },
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err = client.Start(ctx)
	cancel()
	if err != nil {
		logger.Critical(fmt.Sprintf("Error iniciando el cliente de Discord: %v", err), "Main")
		return err
	}

	logger.Success("Apexie iniciado correctamente!", "Main")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando Apexie...", "Main")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	discord.Get().Shutdown(shutdownCtx)
	return nil
}

// releaser returns a func that runs fns in order the first time it is called
func releaser(fns ...func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			for _, fn := range fns {
				fn()
			}
		})
	}
}

// plugins builds the enabled feature subsystems
func plugins(cfg *config.Config, comm *mqtt.MqttCommunicator) []discord.Plugin {
	var list []discord.Plugin
	if cfg.MusicEnabled {
		nodes, err := lavalink.ParseNodes(cfg.LinkServer, cfg.LinkPassword)
		if err != nil {
			logger.Error(fmt.Sprintf("Nodos de Lavalink inválidos: %v", err), "Main")
		} else {
			list = append(list, lavalink.NewPlugin(nodes, cfg.Colors, comm))
		}
	}
	if cfg.GiveawaysEnabled {
		list = append(list, giveaway.NewPlugin(cfg.GiveawaysStorage))
	}
	return list
}

// status answers remote status requests
func status() map[string]interface{} {
	c := discord.Get()
	if c == nil {
		return map[string]interface{}{"state": discord.StateIdle.String()}
	}
	return map[string]interface{}{
		"state":    c.State().String(),
		"uptime":   c.Uptime().String(),
		"guilds":   c.GuildCount(),
		"commands": c.Commands.Size(),
		"events":   c.Events.Size(),
	}
}

func currentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
