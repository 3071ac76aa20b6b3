package actions

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/discord-democracy/src/discord"
	"github.com/stake-plus/discord-democracy/src/types"
)

// Configure upserts the guild's invite policy. Admin only.
type Configure struct {
	interaction     *discordgo.Interaction
	guildID         string
	inviteChannelID string
	quorumFraction  float64
}

func parseConfigure(i *discordgo.InteractionCreate) (*Configure, error) {
	if i.GuildID == "" {
		return nil, errNotInGuild(discord.CommandConfigure)
	}

	if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		return nil, errInsufficientPermissions(discord.CommandConfigure)
	}

	var channelID string
	quorum := -1.0

	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case discord.ConfigureChannelOption:
			if ch := opt.ChannelValue(nil); ch != nil {
				channelID = ch.ID
			}
		case discord.ConfigureQuorumOption:
			percent := opt.IntValue()
			if percent < 0 {
				percent = 0
			}
			if percent > 100 {
				percent = 100
			}
			quorum = float64(percent) / 100.0
		}
	}

	if channelID == "" {
		return nil, errMissingOption(discord.CommandConfigure, discord.ConfigureChannelOption)
	}
	if quorum < 0 {
		return nil, errMissingOption(discord.CommandConfigure, discord.ConfigureQuorumOption)
	}

	return &Configure{
		interaction:     i.Interaction,
		guildID:         i.GuildID,
		inviteChannelID: channelID,
		quorumFraction:  quorum,
	}, nil
}

func (a *Configure) Execute(ctx context.Context, env *Env) error {
	settings := &types.GuildSettings{
		GuildID:         a.guildID,
		InviteChannelID: a.inviteChannelID,
		QuorumFraction:  a.quorumFraction,
	}

	if err := env.Store.UpsertGuildSettings(ctx, settings); err != nil {
		return err
	}

	return env.Gateway.Respond(a.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{
				{
					Title: "Settings",
					Color: 0x5865F2,
					Fields: []*discordgo.MessageEmbedField{
						{
							Name:   "Invite Channel",
							Value:  fmt.Sprintf("<#%s>", a.inviteChannelID),
							Inline: true,
						},
						{
							Name:   "Required Votes",
							Value:  fmt.Sprintf("%.0f%%", a.quorumFraction*100),
							Inline: true,
						},
					},
				},
			},
		},
	})
}
