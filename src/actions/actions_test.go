package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stake-plus/discord-democracy/src/data"
	"github.com/stake-plus/discord-democracy/src/discord"
	"github.com/stake-plus/discord-democracy/src/poll"
	"github.com/stake-plus/discord-democracy/src/pollid"
	"github.com/stake-plus/discord-democracy/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeGateway struct {
	member    bool
	memberErr error
	posted    []string
	responses []*discordgo.InteractionResponse
}

func (g *fakeGateway) IsMember(guildID, userID string) (bool, error) {
	return g.member, g.memberErr
}

func (g *fakeGateway) PostPollMessage(channelID string, p *types.InvitePoll, counts types.VoteCount) (string, string, error) {
	g.posted = append(g.posted, p.ID)
	return channelID, "msg-1", nil
}

func (g *fakeGateway) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	g.responses = append(g.responses, resp)
	return nil
}

type fixture struct {
	db      *gorm.DB
	store   *poll.Store
	gateway *fakeGateway
	env     *Env
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, data.Migrate(db))

	store := poll.NewStore(db)
	gateway := &fakeGateway{}

	return &fixture{
		db:      db,
		store:   store,
		gateway: gateway,
		env: &Env{
			Store:        store,
			Gateway:      gateway,
			Events:       poll.NewPublisher(nil),
			PollDuration: 72 * time.Hour,
		},
	}
}

func (f *fixture) configureGuild(t *testing.T, guildID string) {
	t.Helper()
	require.NoError(t, f.store.UpsertGuildSettings(context.Background(), &types.GuildSettings{
		GuildID:         guildID,
		InviteChannelID: "invite-chan",
		QuorumFraction:  0.5,
	}))
}

func commandInteraction(name, guildID string, member *discordgo.Member, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   guildID,
			ChannelID: "chan-1",
			Member:    member,
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: opts,
			},
		},
	}
}

func voteInteraction(customID, pollIDValue string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:    discordgo.InteractionMessageComponent,
			GuildID: "guild-1",
			Member:  &discordgo.Member{User: &discordgo.User{ID: "voter-1"}},
			Data:    discordgo.MessageComponentInteractionData{CustomID: customID},
			Message: &discordgo.Message{
				Embeds: []*discordgo.MessageEmbed{
					{
						Fields: []*discordgo.MessageEmbedField{
							{Name: discord.PollIDField, Value: pollIDValue},
						},
					},
				},
			},
		},
	}
}

func memberWith(userID string, perms int64) *discordgo.Member {
	return &discordgo.Member{
		User:        &discordgo.User{ID: userID},
		Permissions: perms,
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse(commandInteraction("nonsense", "guild-1", memberWith("u", 0)))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.Contains(t, UserMessage(err), "unknown command")
}

func TestParseOutsideGuild(t *testing.T) {
	_, err := Parse(commandInteraction(discord.CommandInvite, "", nil,
		&discordgo.ApplicationCommandInteractionDataOption{
			Name: discord.InviteUserOption,
			Type: discordgo.ApplicationCommandOptionUser,
			Value: "invitee",
		},
	))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
}

func TestParseInviteMissingUser(t *testing.T) {
	_, err := Parse(commandInteraction(discord.CommandInvite, "guild-1", memberWith("inviter", 0)))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.Contains(t, UserMessage(err), "missing required option")
}

func TestParseInviteBadDuration(t *testing.T) {
	_, err := Parse(commandInteraction(discord.CommandInvite, "guild-1", memberWith("inviter", 0),
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  discord.InviteUserOption,
			Type:  discordgo.ApplicationCommandOptionUser,
			Value: "invitee",
		},
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  discord.InviteDurationOption,
			Type:  discordgo.ApplicationCommandOptionString,
			Value: "soon",
		},
	))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
}

func TestCreateInvitePoll(t *testing.T) {
	f := newFixture(t)
	f.configureGuild(t, "guild-1")

	action, err := Parse(commandInteraction(discord.CommandInvite, "guild-1", memberWith("inviter", 0),
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  discord.InviteUserOption,
			Type:  discordgo.ApplicationCommandOptionUser,
			Value: "invitee",
		},
	))
	require.NoError(t, err)
	require.NoError(t, action.Execute(context.Background(), f.env))

	var p types.InvitePoll
	require.NoError(t, f.db.First(&p).Error)
	assert.Equal(t, "guild-1", p.GuildID)
	assert.Equal(t, "inviter", p.InviterID)
	assert.Equal(t, "invitee", p.InviteeID)
	assert.Equal(t, "chan-1", p.ChannelID)
	assert.Equal(t, "msg-1", p.MessageID)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), p.EndsAt, 5*time.Second)

	require.Len(t, f.gateway.responses, 1)
	resp := f.gateway.responses[0]
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Contains(t, resp.Data.Content, "https://discord.com/channels/guild-1/chan-1/msg-1")
}

func TestCreateInvitePollCustomDuration(t *testing.T) {
	f := newFixture(t)
	f.configureGuild(t, "guild-1")

	action, err := Parse(commandInteraction(discord.CommandInvite, "guild-1", memberWith("inviter", 0),
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  discord.InviteUserOption,
			Type:  discordgo.ApplicationCommandOptionUser,
			Value: "invitee",
		},
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  discord.InviteDurationOption,
			Type:  discordgo.ApplicationCommandOptionString,
			Value: "1d",
		},
	))
	require.NoError(t, err)
	require.NoError(t, action.Execute(context.Background(), f.env))

	var p types.InvitePoll
	require.NoError(t, f.db.First(&p).Error)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), p.EndsAt, 5*time.Second)
}

func TestCreateInvitePollRejectsExistingMember(t *testing.T) {
	f := newFixture(t)
	f.configureGuild(t, "guild-1")
	f.gateway.member = true

	action, err := Parse(commandInteraction(discord.CommandInvite, "guild-1", memberWith("inviter", 0),
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  discord.InviteUserOption,
			Type:  discordgo.ApplicationCommandOptionUser,
			Value: "invitee",
		},
	))
	require.NoError(t, err)

	err = action.Execute(context.Background(), f.env)
	assert.ErrorIs(t, err, poll.ErrAlreadyMember)
	assert.True(t, IsClientError(err))
}

func TestCreateInvitePollRequiresConfiguredGuild(t *testing.T) {
	f := newFixture(t)

	action, err := Parse(commandInteraction(discord.CommandInvite, "guild-1", memberWith("inviter", 0),
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  discord.InviteUserOption,
			Type:  discordgo.ApplicationCommandOptionUser,
			Value: "invitee",
		},
	))
	require.NoError(t, err)

	err = action.Execute(context.Background(), f.env)
	assert.ErrorIs(t, err, poll.ErrGuildNotConfigured)
	assert.True(t, IsClientError(err))
}

func TestParseConfigureRequiresAdmin(t *testing.T) {
	_, err := Parse(commandInteraction(discord.CommandConfigure, "guild-1", memberWith("user", 0),
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  discord.ConfigureChannelOption,
			Type:  discordgo.ApplicationCommandOptionChannel,
			Value: "chan-2",
		},
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  discord.ConfigureQuorumOption,
			Type:  discordgo.ApplicationCommandOptionInteger,
			Value: float64(80),
		},
	))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.Contains(t, UserMessage(err), "insufficient permissions")
}

func TestConfigureUpsertsSettings(t *testing.T) {
	f := newFixture(t)
	admin := memberWith("admin", discordgo.PermissionAdministrator)

	action, err := Parse(commandInteraction(discord.CommandConfigure, "guild-1", admin,
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  discord.ConfigureChannelOption,
			Type:  discordgo.ApplicationCommandOptionChannel,
			Value: "chan-2",
		},
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  discord.ConfigureQuorumOption,
			Type:  discordgo.ApplicationCommandOptionInteger,
			Value: float64(80),
		},
	))
	require.NoError(t, err)
	require.NoError(t, action.Execute(context.Background(), f.env))

	settings, err := f.store.GuildSettings(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "chan-2", settings.InviteChannelID)
	assert.Equal(t, 0.8, settings.QuorumFraction)
}

func TestParseVoteButton(t *testing.T) {
	f := newFixture(t)
	f.configureGuild(t, "guild-1")

	p, err := f.store.CreatePoll(context.Background(), poll.CreatePollParams{
		GuildID:   "guild-1",
		InviterID: "inviter",
		InviteeID: "invitee",
		Duration:  time.Hour,
	})
	require.NoError(t, err)

	encoded, err := pollid.EncodeString(p.ID)
	require.NoError(t, err)

	action, err := Parse(voteInteraction(discord.VoteButtonPrefix+"yes", "`"+encoded+"`"))
	require.NoError(t, err)
	require.NoError(t, action.Execute(context.Background(), f.env))

	counts, err := f.store.CountVotes(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.VoteCount{Yes: 1}, counts)

	require.Len(t, f.gateway.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, f.gateway.responses[0].Type)
}

func TestParseVoteButtonMalformedPollID(t *testing.T) {
	_, err := Parse(voteInteraction(discord.VoteButtonPrefix+"no", "`garbage!`"))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.Contains(t, UserMessage(err), "malformed poll id")
}

func TestVoteOnClosedPollIsClientError(t *testing.T) {
	f := newFixture(t)
	f.configureGuild(t, "guild-1")

	p, err := f.store.CreatePoll(context.Background(), poll.CreatePollParams{
		GuildID:   "guild-1",
		InviterID: "inviter",
		InviteeID: "invitee",
		Duration:  time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.ClosePoll(context.Background(), p.ID, types.OutcomeDeny, "1 users opposed"))

	encoded, err := pollid.EncodeString(p.ID)
	require.NoError(t, err)

	action, err := Parse(voteInteraction(discord.VoteButtonPrefix+"yes", encoded))
	require.NoError(t, err)

	err = action.Execute(context.Background(), f.env)
	assert.ErrorIs(t, err, poll.ErrPollNotOpen)
	assert.True(t, IsClientError(err))
}

func TestParseIgnoresForeignComponents(t *testing.T) {
	i := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionMessageComponent,
			Data: discordgo.MessageComponentInteractionData{CustomID: "someone-elses.button"},
		},
	}
	_, err := Parse(i)
	assert.ErrorIs(t, err, ErrUnhandled)
}

func TestUserMessageHidesInfrastructureErrors(t *testing.T) {
	err := errors.New("dial tcp: connection refused")
	assert.False(t, IsClientError(err))
	assert.Equal(t, "Something went wrong, please try again later.", UserMessage(err))
}
