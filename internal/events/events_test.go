package events

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/PancyStudios/ApexieGo/pkg/database"
	"github.com/PancyStudios/ApexieGo/pkg/models"
)

type fakeSender struct {
	channels []string
	messages []string
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channels = append(f.channels, channelID)
	f.messages = append(f.messages, content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func TestAllValidate(t *testing.T) {
	seen := map[string]bool{}
	for _, ev := range All() {
		if err := ev.Validate(); err != nil {
			t.Errorf("%s: Validate() = %v", ev.Name, err)
		}
		if seen[ev.Name] {
			t.Errorf("duplicate event module %q", ev.Name)
		}
		seen[ev.Name] = true
	}

	want := map[string]string{
		"ready-presence":   "Ready",
		"guild-join":       "GuildCreate",
		"member-welcome":   "GuildMemberAdd",
		"message-leveling": "MessageCreate",
		"voice-log":        "VoiceStateUpdate",
		"shard-resumed":    "Resumed",
	}
	for _, ev := range All() {
		if typ, ok := want[ev.Name]; ok && ev.Event != typ {
			t.Errorf("%s.Event = %q, want %q", ev.Name, ev.Event, typ)
		}
	}
}

func TestIsNewJoin(t *testing.T) {
	now := time.Now()
	tests := []struct {
		joined time.Time
		want   bool
	}{
		{time.Time{}, false},
		{now.Add(-2 * time.Second), true},
		{now.Add(-time.Minute), false},
	}
	for _, tt := range tests {
		if got := isNewJoin(tt.joined, now); got != tt.want {
			t.Errorf("isNewJoin(%v) = %v, want %v", tt.joined, got, tt.want)
		}
	}
}

func TestWelcomeChannel(t *testing.T) {
	guild := &discordgo.Guild{SystemChannelID: "system"}
	tests := []struct {
		configured string
		guild      *discordgo.Guild
		want       string
	}{
		{"welcome", guild, "welcome"},
		{"", guild, "system"},
		{"", nil, ""},
	}
	for _, tt := range tests {
		if got := welcomeChannel(tt.configured, tt.guild); got != tt.want {
			t.Errorf("welcomeChannel(%q) = %q, want %q", tt.configured, got, tt.want)
		}
	}
}

func TestVoiceChange(t *testing.T) {
	tests := []struct {
		name   string
		now    discordgo.VoiceState
		before *discordgo.VoiceState
		want   string
	}{
		{"join", discordgo.VoiceState{ChannelID: "a"}, nil, "🎤 se unió a <#a>"},
		{"leave", discordgo.VoiceState{}, &discordgo.VoiceState{ChannelID: "a"}, "🔇 salió del canal de voz"},
		{"move", discordgo.VoiceState{ChannelID: "b"}, &discordgo.VoiceState{ChannelID: "a"}, "🔄 <#a> → <#b>"},
		{"mute", discordgo.VoiceState{ChannelID: "a", Mute: true}, &discordgo.VoiceState{ChannelID: "a"}, "🔇 fue silenciado"},
		{"undeaf", discordgo.VoiceState{ChannelID: "a"}, &discordgo.VoiceState{ChannelID: "a", Deaf: true}, "🔊 dejó de estar ensordecido"},
		{"nothing", discordgo.VoiceState{ChannelID: "a"}, &discordgo.VoiceState{ChannelID: "a"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			v := &discordgo.VoiceStateUpdate{VoiceState: &now, BeforeUpdate: tt.before}
			if got := voiceChange(v); got != tt.want {
				t.Errorf("voiceChange() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMentionsUser(t *testing.T) {
	m := &discordgo.Message{Mentions: []*discordgo.User{{ID: "a"}, {ID: "bot"}}}
	if !mentionsUser(m, "bot") {
		t.Error("mentionsUser(bot) = false, want true")
	}
	if mentionsUser(m, "c") {
		t.Error("mentionsUser(c) = true, want false")
	}
}

func message(guildID, userID string, bot bool) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "chat",
		GuildID:   guildID,
		Author:    &discordgo.User{ID: userID, Bot: bot},
	}}
}

func TestAwardXP(t *testing.T) {
	database.InitGlobalDataManagers(database.NewDatabase("", "Apexie"))
	defer func() { database.GlobalLevelDM, database.GlobalGuildConfigDM = nil, nil }()

	ctx := context.Background()
	seed := func(guildID, userID string) {
		record := &models.Level{GuildID: guildID, UserID: userID, XP: 99}
		if _, err := database.GlobalLevelDM.Set(ctx, bson.M{"guildId": guildID, "userId": userID}, record); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	seed("g", "u")
	seed("quiet", "u")
	seed("routed", "u")
	_, _ = database.SetGuildConfig(ctx, &models.GuildConfig{GuildID: "quiet", LevelingEnabled: false})
	_, _ = database.SetGuildConfig(ctx, &models.GuildConfig{GuildID: "routed", LevelingEnabled: true, LevelUpChannel: "levels"})

	now := time.Unix(1_700_000_000, 0)
	tests := []struct {
		name    string
		msg     *discordgo.MessageCreate
		channel string
	}{
		{"bot", message("g", "u", true), ""},
		{"dm", message("", "u", false), ""},
		{"disabled", message("quiet", "u", false), ""},
		{"level up", message("g", "u", false), "chat"},
		{"inside window", message("g", "u", false), ""},
		{"level up channel", message("routed", "u", false), "levels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send := &fakeSender{}
			if err := awardXP(ctx, send, tt.msg, now); err != nil {
				t.Fatalf("awardXP() = %v", err)
			}
			if tt.channel == "" {
				if len(send.messages) != 0 {
					t.Errorf("announced %v, want nothing", send.messages)
				}
				return
			}
			if len(send.channels) != 1 || send.channels[0] != tt.channel {
				t.Fatalf("channels = %v, want [%s]", send.channels, tt.channel)
			}
			if !strings.Contains(send.messages[0], "<@u>") || !strings.Contains(send.messages[0], "**1**") {
				t.Errorf("message = %q", send.messages[0])
			}
		})
	}
}
