package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PancyStudios/ApexieGo/pkg/config"
	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server) {
	api := s.Group("/api")
	{
		api.GET("/status", s.statusHandler)
		api.GET("/health", healthHandler)
		api.GET("/bot", s.botInfoHandler)
		api.GET("/modules", s.modulesHandler)
	}
}

// statusHandler returns the bot lifecycle state and the database status
func (s *Server) statusHandler(c *gin.Context) {
	dbStatus, dbOnline := "🔴 | Desconectado", false
	if db := s.database(); db != nil {
		dbStatus, dbOnline = db.Status(c.Request.Context())
	}

	state := discord.StateIdle
	var uptime time.Duration
	if client := s.client(); client != nil {
		state = client.State()
		uptime = client.Uptime()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": config.Version,
		"database": gin.H{
			"status":   dbStatus,
			"isOnline": dbOnline,
		},
		"bot": gin.H{
			"state":    state.String(),
			"isOnline": state == discord.StateReady,
			"uptime":   uptime.Round(time.Second).String(),
		},
	})
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Apexie is running",
	})
}

// botInfoHandler returns information about the bot user
func (s *Server) botInfoHandler(c *gin.Context) {
	client := s.client()
	if client == nil || !client.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Bot Offline",
			"message": "El bot no está disponible en este momento.",
		})
		return
	}

	info := gin.H{
		"appId":   client.AppID(),
		"guilds":  client.GuildCount(),
		"isReady": true,
	}
	if session := client.Session(); session != nil && session.State != nil && session.State.User != nil {
		user := session.State.User
		info["id"] = user.ID
		info["username"] = user.Username
		info["avatar"] = user.Avatar
	}
	c.JSON(http.StatusOK, info)
}

type commandInfo struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Scope    string   `json:"scope"`
	Aliases  []string `json:"aliases,omitempty"`
	Source   string   `json:"source,omitempty"`
}

type eventInfo struct {
	Event    string   `json:"event"`
	Handlers []string `json:"handlers"`
}

// modulesHandler lists the registered modules and the load diagnostics
func (s *Server) modulesHandler(c *gin.Context) {
	client := s.client()
	if client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Bot Offline",
			"message": "El bot no está disponible en este momento.",
		})
		return
	}

	commands := make([]commandInfo, 0, client.Commands.Size())
	for _, cmd := range client.Commands.All() {
		commands = append(commands, commandInfo{
			Name:     cmd.Name,
			Category: cmd.Category,
			Scope:    cmd.Scope.String(),
			Aliases:  cmd.Aliases,
			Source:   cmd.Source,
		})
	}

	events := make([]eventInfo, 0)
	for _, eventType := range client.Events.Types() {
		info := eventInfo{Event: eventType}
		for _, ev := range client.Events.Handlers(eventType) {
			info.Handlers = append(info.Handlers, ev.Name)
		}
		events = append(events, info)
	}

	diagnostics := make([]string, 0)
	for _, err := range client.Diagnostics() {
		diagnostics = append(diagnostics, err.Error())
	}

	c.JSON(http.StatusOK, gin.H{
		"state":       client.State().String(),
		"commands":    commands,
		"events":      events,
		"diagnostics": diagnostics,
	})
}
