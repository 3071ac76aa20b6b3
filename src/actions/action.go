// Package actions turns inbound interactions (slash commands, button
// clicks) into executable actions over a closed set of kinds, and carries
// the client/infrastructure error split the response layer relies on.
package actions

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/discord-democracy/src/discord"
	"github.com/stake-plus/discord-democracy/src/poll"
	"github.com/stake-plus/discord-democracy/src/types"
)

// Gateway is the slice of the chat platform actions execute against.
type Gateway interface {
	IsMember(guildID, userID string) (bool, error)
	PostPollMessage(channelID string, p *types.InvitePoll, counts types.VoteCount) (string, string, error)
	Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
}

// Env holds the collaborators an action may touch, constructed once at bot
// startup and shared across dispatches.
type Env struct {
	Store        *poll.Store
	Gateway      Gateway
	Events       *poll.Publisher
	PollDuration time.Duration
}

// Action is one parsed interaction, ready to run.
type Action interface {
	Execute(ctx context.Context, env *Env) error
}

// Parse maps an interaction onto the closed set of actions this bot
// understands. Interactions that belong to someone else yield ErrUnhandled.
func Parse(i *discordgo.InteractionCreate) (Action, error) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		switch data.Name {
		case discord.CommandInvite:
			return parseCreateInvitePoll(i)
		case discord.CommandConfigure:
			return parseConfigure(i)
		default:
			return nil, errUnknownCommand(data.Name)
		}

	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		if strings.HasPrefix(data.CustomID, discord.VoteButtonPrefix) {
			return parseSubmitVote(i)
		}
		return nil, ErrUnhandled

	default:
		return nil, ErrUnhandled
	}
}

func respondEphemeral(env *Env, i *discordgo.Interaction, content string) error {
	return env.Gateway.Respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
