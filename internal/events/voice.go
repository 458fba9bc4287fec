package events

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

func voiceEvents() []*discord.Event {
	return []*discord.Event{
		discord.On("voice-log", onVoiceStateUpdate),
	}
}

// voiceChange describes a voice state transition, empty when nothing relevant changed
func voiceChange(v *discordgo.VoiceStateUpdate) string {
	before := v.BeforeUpdate
	switch {
	case v.ChannelID != "" && (before == nil || before.ChannelID == ""):
		return fmt.Sprintf("🎤 se unió a <#%s>", v.ChannelID)
	case v.ChannelID == "" && before != nil && before.ChannelID != "":
		return "🔇 salió del canal de voz"
	case before != nil && v.ChannelID != before.ChannelID:
		return fmt.Sprintf("🔄 <#%s> → <#%s>", before.ChannelID, v.ChannelID)
	case before == nil:
		return ""
	case v.Mute != before.Mute:
		if v.Mute {
			return "🔇 fue silenciado"
		}
		return "🔊 fue desilenciado"
	case v.Deaf != before.Deaf:
		if v.Deaf {
			return "🔇 fue ensordecido"
		}
		return "🔊 dejó de estar ensordecido"
	}
	return ""
}

// onVoiceStateUpdate is called when a user's voice state changes
func onVoiceStateUpdate(_ *discord.EventContext, v *discordgo.VoiceStateUpdate) error {
	if v.VoiceState == nil {
		return nil
	}
	change := voiceChange(v)
	if change == "" {
		return nil
	}

	name := v.UserID
	if v.Member != nil && v.Member.User != nil {
		name = v.Member.User.Username
	}
	logger.Debug(fmt.Sprintf("%s: %s", name, change), "Voice")
	return nil
}
