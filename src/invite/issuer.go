// Package invite mints single-use invites for allowed polls and delivers
// them privately, falling back through a cascade of recipients when direct
// messages are refused.
package invite

import (
	"errors"
	"fmt"

	"github.com/stake-plus/discord-democracy/src/types"
)

// ErrDMBlocked marks the one delivery failure the cascade recovers from: the
// recipient does not accept direct messages. The gateway maps the platform's
// error code onto it.
var ErrDMBlocked = errors.New("recipient does not accept direct messages")

// Messenger is the slice of the chat platform the issuer needs.
type Messenger interface {
	CreateChannelInvite(channelID string) (url string, err error)
	SendDirectMessage(userID, content string) error
	GuildName(guildID string) (string, error)
	GuildOwner(guildID string) (ownerID string, err error)
}

type Issuer struct {
	messenger Messenger
}

func NewIssuer(m Messenger) *Issuer {
	return &Issuer{messenger: m}
}

// Issue mints a unique single-use invite to the guild's configured channel
// and tries to deliver it: first to the invitee, then to the inviter, then
// to the guild owner. Each hop is taken only when the previous recipient
// refuses DMs. If everyone refuses, the URL is returned so the caller can
// surface it in the poll message itself. Any other delivery error is fatal
// for this attempt.
func (i *Issuer) Issue(p *types.InvitePoll, settings *types.GuildSettings) (string, error) {
	url, err := i.messenger.CreateChannelInvite(settings.InviteChannelID)
	if err != nil {
		return "", fmt.Errorf("create invite: %w", err)
	}

	guildName, err := i.messenger.GuildName(p.GuildID)
	if err != nil {
		return "", fmt.Errorf("resolve guild: %w", err)
	}

	content := fmt.Sprintf(
		"Hello! You have been invited by <@%s> to **%s**!\nAccept the following invite to join them!\n%s",
		p.InviterID, guildName, url,
	)

	recipients := []string{p.InviteeID, p.InviterID}
	if ownerID, err := i.messenger.GuildOwner(p.GuildID); err != nil {
		return "", fmt.Errorf("resolve guild owner: %w", err)
	} else if ownerID != "" {
		recipients = append(recipients, ownerID)
	}

	for _, userID := range recipients {
		err := i.messenger.SendDirectMessage(userID, content)
		if err == nil {
			return "", nil
		}
		if !errors.Is(err, ErrDMBlocked) {
			return "", fmt.Errorf("deliver invite to %s: %w", userID, err)
		}
	}

	// Nobody accepts DMs; the poll message becomes the delivery channel.
	return url, nil
}
