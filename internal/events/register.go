// Package events provides the built-in event modules.
// Events are organized by category (guild, member, message, voice, etc.)
package events

import (
	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

// All returns every built-in event module
func All() []*discord.Event {
	var events []*discord.Event
	events = append(events, readyEvents()...)
	events = append(events, guildEvents()...)
	events = append(events, memberEvents()...)
	events = append(events, messageEvents()...)
	events = append(events, voiceEvents()...)
	events = append(events, shardEvents()...)
	return events
}
