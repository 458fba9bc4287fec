package models

// Level is the experience document of a member in a guild
type Level struct {
	GuildID  string `bson:"guildId" json:"guildId"`
	UserID   string `bson:"userId" json:"userId"`
	XP       int64  `bson:"xp" json:"xp"`
	Level    int    `bson:"level" json:"level"`
	Messages int64  `bson:"messages" json:"messages"`
	// LastXP is the unix time in seconds of the last awarded message
	LastXP int64 `bson:"lastXp" json:"lastXp"`
}
