package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/discord-democracy/src/config"
	"github.com/stake-plus/discord-democracy/src/discord"
	"github.com/stake-plus/discord-democracy/src/poll"
	"github.com/stake-plus/discord-democracy/src/types"
)

// CreateInvitePoll opens a petition to invite a user, posts the poll message
// with its vote buttons, and confirms to the inviter with a link.
type CreateInvitePoll struct {
	interaction *discordgo.Interaction
	guildID     string
	channelID   string
	inviterID   string
	inviteeID   string
	duration    time.Duration
}

func parseCreateInvitePoll(i *discordgo.InteractionCreate) (*CreateInvitePoll, error) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return nil, errNotInGuild(discord.CommandInvite)
	}

	var inviteeID string
	duration := time.Duration(0)

	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case discord.InviteUserOption:
			if user := opt.UserValue(nil); user != nil {
				inviteeID = user.ID
			}
		case discord.InviteDurationOption:
			value := opt.StringValue()
			parsed, err := config.ParseDuration(value)
			if err != nil || parsed <= 0 {
				return nil, errInvalidOption(discord.CommandInvite, discord.InviteDurationOption, value, err)
			}
			duration = parsed
		}
	}

	if inviteeID == "" {
		return nil, errMissingOption(discord.CommandInvite, discord.InviteUserOption)
	}

	return &CreateInvitePoll{
		interaction: i.Interaction,
		guildID:     i.GuildID,
		channelID:   i.ChannelID,
		inviterID:   i.Member.User.ID,
		inviteeID:   inviteeID,
		duration:    duration,
	}, nil
}

func (a *CreateInvitePoll) Execute(ctx context.Context, env *Env) error {
	// The guild has to be configured before petitions make sense: without an
	// invite channel and quorum there is nothing to resolve against.
	if _, err := env.Store.GuildSettings(ctx, a.guildID); err != nil {
		return err
	}

	member, err := env.Gateway.IsMember(a.guildID, a.inviteeID)
	if err != nil {
		return err
	}
	if member {
		return poll.ErrAlreadyMember
	}

	duration := a.duration
	if duration == 0 {
		duration = env.PollDuration
	}

	p, err := env.Store.CreatePoll(ctx, poll.CreatePollParams{
		GuildID:   a.guildID,
		InviterID: a.inviterID,
		InviteeID: a.inviteeID,
		Duration:  duration,
	})
	if err != nil {
		return err
	}

	channelID, messageID, err := env.Gateway.PostPollMessage(a.channelID, p, types.VoteCount{})
	if err != nil {
		return err
	}

	if err := env.Store.SetPollMessage(ctx, p.ID, channelID, messageID); err != nil {
		return err
	}

	env.Events.PollCreated(ctx, p)

	link := fmt.Sprintf("https://discord.com/channels/%s/%s/%s", a.guildID, channelID, messageID)
	return respondEphemeral(env, a.interaction, link)
}
