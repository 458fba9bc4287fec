// Package config provides configuration management for the bot.
// It loads environment variables once at startup and makes them available throughout the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

// Deployment modes
const (
	ModeDevelopment = "dev"
	ModeDebug       = "debug"
	ModeProduction  = "production"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken string   `env:"botToken"`
	GuildID  string   `env:"guildId"`
	Owners   []string `env:"owners" envSeparator:","`

	// Environment
	Environment string `env:"environment" envDefault:"production"`

	// Modules
	ModulesPath    string        `env:"modulesPath" envDefault:"./modules"`
	CooldownWindow time.Duration `env:"cooldownWindow" envDefault:"3s"`

	// MongoDB
	MongoDBURL string `env:"mongodbUrl" envDefault:"mongodb://localhost:27017"`
	DBName     string `env:"dbName" envDefault:"Apexie"`

	// MQTT
	MQTTHost     string `env:"MQTT_Host" envDefault:"localhost"`
	MQTTPort     string `env:"MQTT_Port" envDefault:"1883"`
	MQTTUser     string `env:"MQTT_User"`
	MQTTPassword string `env:"MQTT_Password"`
	MQTTPrefix   string `env:"MQTT_Prefix" envDefault:"apexie"`

	// Web Server
	Port           string  `env:"PORT" envDefault:"3000"`
	AllowedHosts   string  `env:"webAllowedHosts"`
	RateLimit      float64 `env:"webRateLimit" envDefault:"5"`
	RateLimitBurst int     `env:"webRateBurst" envDefault:"10"`

	// Webhooks
	ErrorWebhook      string `env:"errorWebhook"`
	LogsWebhook       string `env:"logsWebhook"`
	LogsWebServerHook string `env:"logsWebServerWebhook"`

	// Lavalink
	MusicEnabled bool   `env:"musicEnabled" envDefault:"true"`
	LinkServer   string `env:"linkserver" envDefault:"localhost:2333"`
	LinkPassword string `env:"linkpassword"`

	// Giveaways
	GiveawaysEnabled bool   `env:"giveawaysEnabled" envDefault:"true"`
	GiveawaysStorage string `env:"giveawaysStorage" envDefault:"./giveaways.json"`

	// Palette file
	ConfigFile string `env:"configFile" envDefault:"./config.json"`
	Colors     Palette
}

// Palette is the embed color set read from the optional JSON config file
type Palette struct {
	Default Color `json:"default"`
	Error   Color `json:"error"`
	Success Color `json:"success"`
	Fun     Color `json:"fun"`
	Music   Color `json:"music"`
}

// Color accepts either a number or a "#RRGGBB" string in JSON
type Color int

// UnmarshalJSON implements json.Unmarshaler
func (c *Color) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Color(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("color must be a number or a hex string: %w", err)
	}
	v, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", s, err)
	}
	*c = Color(v)
	return nil
}

// DefaultPalette mirrors the platform's brand colors
func DefaultPalette() Palette {
	return Palette{
		Default: 0x5865F2,
		Error:   0xED4245,
		Success: 0x57F287,
		Fun:     0xEB459E,
		Music:   0x1DB954,
	}
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

// cfg holds the global configuration instance
var (
	cfg    *Config
	cfgErr error
	cfgMu  sync.RWMutex
)

// reset forgets the loaded configuration so the next Load reads it again
func reset() {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	cfg = nil
	cfgErr = nil
}

// loadConfig reads a fresh configuration from .env, the environment and the palette file
func loadConfig() (*Config, error) {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	c := &Config{}
	if err := env.Parse(c); err != nil {
		return c, fmt.Errorf("parse environment: %w", err)
	}

	c.Colors = DefaultPalette()
	if err := c.loadPalette(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) loadPalette() error {
	if c.ConfigFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", c.ConfigFile, err)
	}
	return c.parsePalette(data)
}

func (c *Config) parsePalette(data []byte) error {
	var file struct {
		Colors Palette `json:"colors"`
	}
	file.Colors = c.Colors
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", c.ConfigFile, err)
	}
	c.Colors = file.Colors
	return nil
}

// Load initializes the configuration from environment variables.
// The configuration is read once; later calls return the same instance.
func Load() (*Config, error) {
	cfgMu.RLock()
	c, err := cfg, cfgErr
	cfgMu.RUnlock()
	if c != nil {
		return c, err
	}

	cfgMu.Lock()
	defer cfgMu.Unlock()
	if cfg == nil {
		cfg, cfgErr = loadConfig()
	}
	return cfg, cfgErr
}

// Reload reads the configuration again and swaps it in. Callers holding
// the previous *Config keep a consistent snapshot.
// Only an explicit restart calls this.
func Reload() (*Config, error) {
	c, err := loadConfig()
	cfgMu.Lock()
	cfg, cfgErr = c, err
	cfgMu.Unlock()
	return c, err
}

// Get returns the current configuration
func Get() *Config {
	c, _ := Load()
	return c
}

// IsOwner reports whether userID may run the developer commands
func (c *Config) IsOwner(userID string) bool {
	for _, id := range c.Owners {
		if id == userID {
			return true
		}
	}
	return false
}

// IsDevelopment returns true if the environment is "dev"
func (c *Config) IsDevelopment() bool {
	return c.Environment == ModeDevelopment
}

// IsDebug returns true if the environment is "debug"
func (c *Config) IsDebug() bool {
	return c.Environment == ModeDebug
}

// IsProd returns true for every mode that is neither dev nor debug
func (c *Config) IsProd() bool {
	return !c.IsDevelopment() && !c.IsDebug()
}
