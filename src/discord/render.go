package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/discord-democracy/src/pollid"
	"github.com/stake-plus/discord-democracy/src/types"
)

// Embed field names. The vote button handler recovers the poll id from the
// parent message, so PollIDField is part of the wire contract.
const (
	PollIDField = "Poll Id"
	StatusField = "Status"
	UserField   = "User"
	VotesField  = "Votes"
	ResultField = "Result"
)

const (
	colorBlurple = 0x5865F2
	colorGreen   = 0x57F287
	colorRed     = 0xED4245
)

// RenderPoll builds the poll message content: an embed describing the poll
// and, while it is open, the vote buttons.
func RenderPoll(p *types.InvitePoll, counts types.VoteCount) ([]*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	color := colorBlurple
	status := "\U0001F7E2 Open"
	if p.Outcome != nil {
		status = "\U0001F534 Closed"
		switch *p.Outcome {
		case types.OutcomeAllow:
			color = colorGreen
		case types.OutcomeDeny:
			color = colorRed
		}
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   PollIDField,
			Value:  fmt.Sprintf("`%s`", encodedID(p)),
			Inline: true,
		},
		{
			Name:   StatusField,
			Value:  status,
			Inline: true,
		},
		{
			Name:   UserField,
			Value:  fmt.Sprintf("<@%s>", p.InviteeID),
			Inline: true,
		},
		{
			Name: VotesField,
			Value: fmt.Sprintf("\U0001F7E2 Yes: **%d**\n\U0001F534 No: **%d**",
				counts.Yes, counts.No),
		},
	}

	if p.Reason != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  ResultField,
			Value: p.Reason,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:  "Invite Poll",
		Color:  color,
		Fields: fields,
	}

	var components []discordgo.MessageComponent
	if p.Outcome == nil {
		components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						CustomID: VoteButtonPrefix + string(types.VoteYes),
						Label:    "Yes",
						Style:    discordgo.SuccessButton,
					},
					discordgo.Button{
						CustomID: VoteButtonPrefix + string(types.VoteNo),
						Label:    "No",
						Style:    discordgo.DangerButton,
					},
				},
			},
		}
	}

	return []*discordgo.MessageEmbed{embed}, components
}

func encodedID(p *types.InvitePoll) string {
	encoded, err := pollid.EncodeString(p.ID)
	if err != nil {
		// The id came from us; a malformed one is a programming error, but
		// rendering should not take the message down with it.
		return p.ID
	}
	return encoded
}
