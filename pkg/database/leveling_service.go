package database

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/PancyStudios/ApexieGo/pkg/models"
)

// XPWindow is the minimum time between two messages that award experience
const XPWindow = time.Minute

var ErrLevelManagerNotInitialized = errors.New("level data manager not initialized")

// global DataManagers for shared collections
var (
	GlobalLevelDM       *DataManager[models.Level]
	GlobalGuildConfigDM *DataManager[models.GuildConfig]
)

// InitGlobalDataManagers initializes shared DataManager instances
func InitGlobalDataManagers(db *Database) {
	GlobalLevelDM = NewDataManager[models.Level]("levels", db)
	GlobalGuildConfigDM = NewDataManager[models.GuildConfig]("guilds", db)
}

var xpGain = func() int64 {
	return 15 + rand.Int64N(11)
}

// XPForLevel returns the experience needed to go from level to level+1
func XPForLevel(level int) int64 {
	l := int64(level)
	return 5*l*l + 50*l + 100
}

// LevelFromXP converts total experience into a level and the progress inside it
func LevelFromXP(total int64) (level int, progress int64) {
	for total >= XPForLevel(level) {
		total -= XPForLevel(level)
		level++
	}
	return level, total
}

func levelQuery(guildID, userID string) bson.M {
	return bson.M{"guildId": guildID, "userId": userID}
}

// GetLevel returns the experience document of a member, nil if none
func GetLevel(ctx context.Context, guildID, userID string) (*models.Level, error) {
	if GlobalLevelDM == nil {
		return nil, ErrLevelManagerNotInitialized
	}
	return GlobalLevelDM.Get(ctx, levelQuery(guildID, userID))
}

// xpLocks serialize the read-modify-write of a member's experience
var xpLocks [64]sync.Mutex

func xpLock(guildID, userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(guildID))
	h.Write([]byte{0})
	h.Write([]byte(userID))
	return &xpLocks[h.Sum32()%uint32(len(xpLocks))]
}

// AwardMessageXP grants experience for a message unless the member is inside
// XPWindow. It reports whether the member reached a new level.
func AwardMessageXP(ctx context.Context, guildID, userID string, now time.Time) (*models.Level, bool, error) {
	lock := xpLock(guildID, userID)
	lock.Lock()
	defer lock.Unlock()

	record, err := GetLevel(ctx, guildID, userID)
	if err != nil {
		return nil, false, err
	}
	if record == nil {
		record = &models.Level{GuildID: guildID, UserID: userID}
	}

	if record.LastXP > 0 && now.Sub(time.Unix(record.LastXP, 0)) < XPWindow {
		return record, false, nil
	}

	updated := *record
	updated.XP += xpGain()
	updated.Messages++
	updated.LastXP = now.Unix()
	updated.Level, _ = LevelFromXP(updated.XP)

	saved, err := GlobalLevelDM.Set(ctx, levelQuery(guildID, userID), &updated)
	if saved == nil {
		saved = &updated
	}
	return saved, saved.Level > record.Level, err
}

// Leaderboard returns the members of a guild with the most experience
func Leaderboard(ctx context.Context, guildID string, limit int64) ([]*models.Level, error) {
	if GlobalLevelDM == nil {
		return nil, ErrLevelManagerNotInitialized
	}
	return GlobalLevelDM.Find(ctx, bson.M{"guildId": guildID}, bson.D{{Key: "xp", Value: -1}}, limit)
}

// Rank returns the 1-based position of a member in the guild leaderboard
func Rank(ctx context.Context, guildID string, record *models.Level) (int, error) {
	if GlobalLevelDM == nil {
		return 0, ErrLevelManagerNotInitialized
	}
	col := GlobalLevelDM.collection()
	if col == nil {
		return 0, ErrOffline
	}
	ahead, err := col.CountDocuments(ctx, bson.M{"guildId": guildID, "xp": bson.M{"$gt": record.XP}})
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

// GetGuildConfig returns the settings of a guild, defaults when it has none
// or the database is unreachable
func GetGuildConfig(ctx context.Context, guildID string) *models.GuildConfig {
	if GlobalGuildConfigDM == nil {
		return models.DefaultGuildConfig(guildID)
	}
	cfg, err := GlobalGuildConfigDM.Get(ctx, bson.M{"guildId": guildID})
	if err != nil || cfg == nil {
		return models.DefaultGuildConfig(guildID)
	}
	return cfg
}

// SetGuildConfig stores the settings of a guild
func SetGuildConfig(ctx context.Context, cfg *models.GuildConfig) (*models.GuildConfig, error) {
	if GlobalGuildConfigDM == nil {
		return nil, ErrLevelManagerNotInitialized
	}
	return GlobalGuildConfigDM.Set(ctx, bson.M{"guildId": cfg.GuildID}, cfg)
}
