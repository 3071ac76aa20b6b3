package discord

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandInvite    = "invite"
	CommandConfigure = "configure"

	InviteUserOption     = "user"
	InviteDurationOption = "duration"

	ConfigureChannelOption = "invite-channel"
	ConfigureQuorumOption  = "invite-poll-quorum"

	// VoteButtonPrefix namespaces the poll vote buttons; the suffix is the
	// vote value ("yes" / "no").
	VoteButtonPrefix = "democracy.invite-poll-vote."
)

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandInvite: {
		Name:        CommandInvite,
		Description: "Creates a petition to invite a new user",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        InviteUserOption,
				Description: "The user to invite",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        InviteDurationOption,
				Description: "Duration of the poll (e.g. 3d, 12h)",
			},
		},
	},
	CommandConfigure: {
		Name:        CommandConfigure,
		Description: "Configures invite polls for the current server",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        ConfigureChannelOption,
				Description: "Which channel users should be invited to",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        ConfigureQuorumOption,
				Description: "Percentage of members whose approval is required",
				MinValue:    float64Ptr(0),
				MaxValue:    100,
				Required:    true,
			},
		},
	},
}

var defaultCommandOrder = []string{
	CommandInvite,
	CommandConfigure,
}

// RegisterSlashCommands registers the requested slash commands. An empty
// guildID registers them globally. When no command names are provided, all
// known commands are registered.
func RegisterSlashCommands(s *discordgo.Session, guildID string, names ...string) error {
	if len(names) == 0 {
		names = defaultCommandOrder
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			log.Printf("discord: unknown slash command %q", name)
			continue
		}

		_, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, definition)
		if err != nil {
			if isDuplicateCommandError(err) {
				log.Printf("discord: slash command %q already registered", name)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			log.Printf("discord: failed to register command %q: %v", name, err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}

	return nil
}

// DeleteSlashCommands removes all registered slash commands.
func DeleteSlashCommands(s *discordgo.Session, guildID string) error {
	commands, err := s.ApplicationCommands(s.State.User.ID, guildID)
	if err != nil {
		return err
	}

	for _, cmd := range commands {
		if err := s.ApplicationCommandDelete(s.State.User.ID, guildID, cmd.ID); err != nil {
			return err
		}
	}

	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			msg := strings.ToLower(restErr.Message.Message)
			if strings.Contains(msg, "already exists") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}

func float64Ptr(v float64) *float64 {
	return &v
}
