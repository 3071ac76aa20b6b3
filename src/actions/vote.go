package actions

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/discord-democracy/src/discord"
	"github.com/stake-plus/discord-democracy/src/pollid"
	"github.com/stake-plus/discord-democracy/src/types"
)

// SubmitVote records a button click as a vote and refreshes the poll
// message with the new tally.
type SubmitVote struct {
	interaction *discordgo.Interaction
	pollID      string
	voterID     string
	vote        types.Vote
}

func parseSubmitVote(i *discordgo.InteractionCreate) (*SubmitVote, error) {
	customID := i.MessageComponentData().CustomID

	vote, ok := types.ParseVote(strings.TrimPrefix(customID, discord.VoteButtonPrefix))
	if !ok {
		return nil, &ParseError{
			Action:  "invite-poll-vote",
			Message: "unrecognized vote button " + customID,
		}
	}

	// The poll id travels in the parent message's embed, not in the custom
	// id, so that the button payload stays within the closed action set.
	encoded := ""
	if i.Message != nil {
		for _, embed := range i.Message.Embeds {
			for _, field := range embed.Fields {
				if field.Name == discord.PollIDField {
					encoded = field.Value
					break
				}
			}
		}
	}
	if encoded == "" {
		return nil, errParentMessage("invite-poll-vote", discord.PollIDField)
	}

	id, err := pollid.Decode(encoded)
	if err != nil {
		return nil, errMalformedPollID("invite-poll-vote", encoded, err)
	}

	voterID := ""
	if i.Member != nil && i.Member.User != nil {
		voterID = i.Member.User.ID
	} else if i.User != nil {
		voterID = i.User.ID
	}
	if voterID == "" {
		return nil, errNotInGuild("invite-poll-vote")
	}

	return &SubmitVote{
		interaction: i.Interaction,
		pollID:      id.String(),
		voterID:     voterID,
		vote:        vote,
	}, nil
}

func (a *SubmitVote) Execute(ctx context.Context, env *Env) error {
	sub, err := env.Store.SubmitVote(ctx, a.pollID, a.voterID, a.vote)
	if err != nil {
		return err
	}

	env.Events.VoteSubmitted(ctx, sub)

	p, err := env.Store.FindPoll(ctx, a.pollID)
	if err != nil {
		return err
	}

	counts, err := env.Store.CountVotes(ctx, a.pollID)
	if err != nil {
		return err
	}

	embeds, components := discord.RenderPoll(p, counts)
	return env.Gateway.Respond(a.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     embeds,
			Components: components,
		},
	})
}
