package discord

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/discord-democracy/src/invite"
	"github.com/stake-plus/discord-democracy/src/types"
)

const memberPageSize = 1000

// Gateway wraps the discordgo session behind the narrow surfaces the poll
// engine consumes.
type Gateway struct {
	session *discordgo.Session
}

func NewGateway(session *discordgo.Session) *Gateway {
	return &Gateway{session: session}
}

// CountEligibleMembers pages through the full member list and counts the
// humans. Bots and service accounts never count toward quorum.
func (g *Gateway) CountEligibleMembers(guildID string) (int, error) {
	count := 0
	after := ""

	for {
		members, err := g.session.GuildMembers(guildID, after, memberPageSize)
		if err != nil {
			return 0, fmt.Errorf("list members of %s: %w", guildID, err)
		}
		if len(members) == 0 {
			break
		}

		for _, m := range members {
			if m.User != nil && !m.User.Bot {
				count++
			}
		}

		after = members[len(members)-1].User.ID
	}

	return count, nil
}

// IsMember reports whether the user already belongs to the guild.
func (g *Gateway) IsMember(guildID, userID string) (bool, error) {
	_, err := g.session.GuildMember(guildID, userID)
	if err == nil {
		return true, nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		if restErr.Message.Code == discordgo.ErrCodeUnknownMember ||
			restErr.Message.Code == discordgo.ErrCodeUnknownUser {
			return false, nil
		}
	}

	return false, fmt.Errorf("look up member %s in %s: %w", userID, guildID, err)
}

func (g *Gateway) GuildName(guildID string) (string, error) {
	guild, err := g.guild(guildID)
	if err != nil {
		return "", err
	}
	return guild.Name, nil
}

func (g *Gateway) GuildOwner(guildID string) (string, error) {
	guild, err := g.guild(guildID)
	if err != nil {
		return "", err
	}
	return guild.OwnerID, nil
}

func (g *Gateway) guild(guildID string) (*discordgo.Guild, error) {
	if guild, err := g.session.State.Guild(guildID); err == nil {
		return guild, nil
	}
	guild, err := g.session.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("resolve guild %s: %w", guildID, err)
	}
	return guild, nil
}

// CreateChannelInvite mints a unique, single-use invite for the channel.
func (g *Gateway) CreateChannelInvite(channelID string) (string, error) {
	inv, err := g.session.ChannelInviteCreate(channelID, discordgo.Invite{
		MaxUses: 1,
		Unique:  true,
	})
	if err != nil {
		return "", fmt.Errorf("create invite for %s: %w", channelID, err)
	}
	return "https://discord.gg/" + inv.Code, nil
}

// SendDirectMessage opens a DM channel with the user and sends the content.
// The platform's "cannot send messages to this user" error is mapped onto
// invite.ErrDMBlocked so the issuer cascade can recognize it.
func (g *Gateway) SendDirectMessage(userID, content string) error {
	channel, err := g.session.UserChannelCreate(userID)
	if err != nil {
		if isDMBlocked(err) {
			return fmt.Errorf("dm %s: %w", userID, invite.ErrDMBlocked)
		}
		return fmt.Errorf("open dm with %s: %w", userID, err)
	}

	if _, err := g.session.ChannelMessageSend(channel.ID, content); err != nil {
		if isDMBlocked(err) {
			return fmt.Errorf("dm %s: %w", userID, invite.ErrDMBlocked)
		}
		return fmt.Errorf("dm %s: %w", userID, err)
	}

	return nil
}

// PostPollMessage renders a fresh poll into the channel the petition was
// created in and returns where it landed.
func (g *Gateway) PostPollMessage(channelID string, p *types.InvitePoll, counts types.VoteCount) (string, string, error) {
	embeds, components := RenderPoll(p, counts)
	msg, err := g.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     embeds,
		Components: components,
	})
	if err != nil {
		return "", "", fmt.Errorf("post poll message: %w", err)
	}
	return msg.ChannelID, msg.ID, nil
}

// UpdatePollMessage re-renders the poll's existing message in place.
func (g *Gateway) UpdatePollMessage(p *types.InvitePoll, counts types.VoteCount) error {
	embeds, components := RenderPoll(p, counts)
	_, err := g.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    p.ChannelID,
		ID:         p.MessageID,
		Embeds:     &embeds,
		Components: &components,
	})
	if err != nil {
		return fmt.Errorf("edit poll message: %w", err)
	}
	return nil
}

// Respond sends an interaction response on behalf of an action.
func (g *Gateway) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return g.session.InteractionRespond(i, resp)
}

func isDMBlocked(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser
	}
	return false
}
