package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/discord-democracy/src/actions"
	"github.com/stake-plus/discord-democracy/src/config"
	"github.com/stake-plus/discord-democracy/src/discord"
	"github.com/stake-plus/discord-democracy/src/invite"
	"github.com/stake-plus/discord-democracy/src/poll"
	"gorm.io/gorm"
)

type Bot struct {
	session   *discordgo.Session
	config    config.Config
	env       *actions.Env
	scheduler *poll.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
}

func New(cfg config.Config, db *gorm.DB, rdb *redis.Client) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	store := poll.NewStore(db)
	gateway := discord.NewGateway(session)
	events := poll.NewPublisher(rdb)
	issuer := invite.NewIssuer(gateway)

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		session: session,
		config:  cfg,
		env: &actions.Env{
			Store:        store,
			Gateway:      gateway,
			Events:       events,
			PollDuration: cfg.PollDuration,
		},
		scheduler: poll.NewScheduler(store, gateway, issuer, events, cfg.CheckInterval),
		ctx:       ctx,
		cancel:    cancel,
	}

	session.AddHandler(b.handleReady)
	session.AddHandler(b.handleInteractionCreate)

	return b, nil
}

func (b *Bot) Start() error {
	return b.session.Open()
}

func (b *Bot) Stop() {
	b.cancel()
	b.wg.Wait()
	b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("bot: logged in as %s", event.User.Username)

	if err := discord.RegisterSlashCommands(s, b.config.GuildID); err != nil {
		log.Printf("bot: failed to register slash commands: %v", err)
	}

	b.startOnce.Do(func() {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.scheduler.Run(b.ctx)
		}()
	})
}

func (b *Bot) handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	action, err := actions.Parse(i)
	if err != nil {
		if errors.Is(err, actions.ErrUnhandled) {
			return
		}
		b.respondError(i, err)
		return
	}

	if err := action.Execute(b.ctx, b.env); err != nil {
		b.respondError(i, err)
	}
}

// respondError surfaces client errors verbatim and hides everything else
// behind a generic apology, logging the details instead.
func (b *Bot) respondError(i *discordgo.InteractionCreate, err error) {
	if !actions.IsClientError(err) {
		log.Printf("bot: interaction failed: %v", err)
	}

	respErr := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: actions.UserMessage(err),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if respErr != nil {
		log.Printf("bot: failed to respond with error: %v", respErr)
	}
}
