package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/config"
)

const embedFooter = "Apexie"

// NewEmbed builds an embed with the bot's footer and timestamp
func NewEmbed(color config.Color, title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       int(color),
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: embedFooter},
	}
}

// ErrorEmbed builds an embed in the palette's error color
func ErrorEmbed(description string) *discordgo.MessageEmbed {
	return NewEmbed(config.Get().Colors.Error, "Error", description)
}

// Field builds an embed field
func Field(name, value string, inline bool) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline}
}
