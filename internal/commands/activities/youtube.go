// Package activities provides commands that launch embedded voice channel activities.
package activities

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

// YouTubeApplicationID is the embedded application behind YouTube Together
const YouTubeApplicationID = "880218394199220334"

const youtubeThumbnail = "https://upload.wikimedia.org/wikipedia/commons/thumb/0/09/YouTube_full-color_icon_%282017%29.svg/1280px-YouTube_full-color_icon_%282017%29.svg.png"

// Requester performs raw REST calls. *discordgo.Session implements it.
type Requester interface {
	RequestWithBucketID(method, urlStr string, data interface{}, bucketID string, options ...discordgo.RequestOption) ([]byte, error)
}

type activityInvite struct {
	MaxAge              int                        `json:"max_age"`
	TargetType          discordgo.InviteTargetType `json:"target_type"`
	TargetApplicationID string                     `json:"target_application_id"`
}

// CreateActivityInvite creates an invite that starts applicationID in a voice channel
func CreateActivityInvite(r Requester, channelID, applicationID string) (string, error) {
	endpoint := discordgo.EndpointChannelInvites(channelID)
	body, err := r.RequestWithBucketID("POST", endpoint, activityInvite{
		MaxAge:              86400,
		TargetType:          discordgo.InviteTargetEmbeddedApplication,
		TargetApplicationID: applicationID,
	}, endpoint)
	if err != nil {
		return "", err
	}

	var invite discordgo.Invite
	if err := json.Unmarshal(body, &invite); err != nil {
		return "", err
	}
	if invite.Code == "" {
		return "", fmt.Errorf("empty invite code")
	}
	return "https://discord.gg/" + invite.Code, nil
}

// Commands returns the activity commands
func Commands() []*discord.Command {
	return []*discord.Command{
		discord.NewCommand(
			"youtube",
			"Sends an invite to open the YouTube Together activity",
			"activities",
			youtubeHandler,
		).RequiresVoice(),
	}
}

func youtubeHandler(ctx *discord.CommandContext) error {
	if ctx.Session == nil {
		return ctx.ReplyEphemeral("Due to the slow Discord API, we can't send you the invite code")
	}
	return sendYouTubeInvite(ctx, ctx.Session, ctx.VoiceChannelID())
}

func sendYouTubeInvite(ctx *discord.CommandContext, r Requester, channelID string) error {
	if channelID == "" {
		return ctx.ReplyEphemeral("You have to be in a voice channel for this to work")
	}
	link, err := CreateActivityInvite(r, channelID, YouTubeApplicationID)
	if err != nil {
		return ctx.ReplyEphemeral("Due to the slow Discord API, we can't send you the invite code")
	}

	user := ctx.User()
	embed := discord.NewEmbed(ctx.Client.Config.Colors.Fun, "YouTube Together",
		"This feature allows you to watch YouTube along with other people in a voice chat. Click the link down below to start the fun.")
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: youtubeThumbnail}
	embed.Fields = []*discordgo.MessageEmbedField{
		discord.Field("Mobile devices?", "Discord still hasn't support for activities on mobile devices, so a workaround is to share your screen with the mobile users in your voice chat.", false),
		discord.Field("Invite link", fmt.Sprintf("Just [click me](%s)", link), false),
	}
	if user != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    "Requested by " + user.Username,
			IconURL: user.AvatarURL(""),
		}
	}
	return ctx.ReplyEmbed(embed)
}
