package models

// GuildConfig holds the per-guild settings of the bot
type GuildConfig struct {
	GuildID         string `bson:"guildId" json:"guildId"`
	LevelingEnabled bool   `bson:"levelingEnabled" json:"levelingEnabled"`
	// LevelUpChannel receives level-up announcements, empty means the message channel
	LevelUpChannel string `bson:"levelUpChannel,omitempty" json:"levelUpChannel,omitempty"`
	WelcomeChannel string `bson:"welcomeChannel,omitempty" json:"welcomeChannel,omitempty"`
}

// DefaultGuildConfig returns the settings of a guild without a document
func DefaultGuildConfig(guildID string) *GuildConfig {
	return &GuildConfig{GuildID: guildID, LevelingEnabled: true}
}
