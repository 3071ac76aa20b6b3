package poll

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/stake-plus/discord-democracy/src/types"
)

// Gateway is the slice of the chat platform the scheduler needs.
type Gateway interface {
	// CountEligibleMembers returns the number of human members of a guild.
	CountEligibleMembers(guildID string) (int, error)
	// UpdatePollMessage re-renders the poll's message to its final state.
	UpdatePollMessage(p *types.InvitePoll, counts types.VoteCount) error
}

// Issuer mints and delivers the invite for an allowed poll. A non-empty
// fallback URL means every private delivery was refused and the URL should
// become the poll's closing reason instead.
type Issuer interface {
	Issue(p *types.InvitePoll, settings *types.GuildSettings) (fallbackURL string, err error)
}

// Scheduler is the single background loop that discovers expired open polls
// and drives each one through resolution.
type Scheduler struct {
	store    *Store
	gateway  Gateway
	issuer   Issuer
	events   *Publisher
	interval time.Duration
	now      func() time.Time
}

func NewScheduler(store *Store, gateway Gateway, issuer Issuer, events *Publisher, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:    store,
		gateway:  gateway,
		issuer:   issuer,
		events:   events,
		interval: interval,
		now:      time.Now,
	}
}

// Run ticks until the context is cancelled. An in-flight sweep finishes
// before Run returns so no poll is stranded mid-transition.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("scheduler: sweeping expired polls every %v", s.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				log.Printf("scheduler: sweep failed: %v", err)
			}
		}
	}
}

// Sweep runs one tick: find every expired open poll and close each one
// independently. A failing poll is logged and retried on the next tick; it
// never stops the rest of the batch.
func (s *Scheduler) Sweep(ctx context.Context) error {
	polls, err := s.store.FindExpiredOpen(ctx, s.now())
	if err != nil {
		return err
	}

	for i := range polls {
		if err := s.closeExpired(ctx, &polls[i]); err != nil {
			log.Printf("scheduler: failed to close poll %s: %v", polls[i].ID, err)
		}
	}

	return nil
}

func (s *Scheduler) closeExpired(ctx context.Context, p *types.InvitePoll) error {
	// Re-load the poll: the expired set may be stale by the time this poll's
	// turn comes, and an already-closed poll must not be processed again.
	fresh, err := s.store.FindPoll(ctx, p.ID)
	if err != nil {
		return err
	}
	if fresh.Outcome != nil {
		return nil
	}

	settings, err := s.store.GuildSettings(ctx, p.GuildID)
	if err != nil {
		return err
	}

	eligible, err := s.gateway.CountEligibleMembers(p.GuildID)
	if err != nil {
		return err
	}

	counts, err := s.store.CountVotes(ctx, p.ID)
	if err != nil {
		return err
	}

	res := Resolve(counts, eligible, settings.QuorumFraction)
	reason := res.Reason

	if res.Outcome == types.OutcomeAllow {
		fallbackURL, err := s.issuer.Issue(fresh, settings)
		if err != nil {
			// The poll stays open and is retried next tick.
			return err
		}
		if fallbackURL != "" {
			reason = fallbackURL
		}
	}

	if err := s.store.ClosePoll(ctx, p.ID, res.Outcome, reason); err != nil {
		if errors.Is(err, ErrPollAlreadyClosed) {
			return nil
		}
		return err
	}

	log.Printf("scheduler: closed poll %s with outcome %s", p.ID, res.Outcome)
	s.events.PollClosed(ctx, fresh, res.Outcome, reason)

	fresh.Outcome = &res.Outcome
	fresh.Reason = reason

	if fresh.ChannelID == "" || fresh.MessageID == "" {
		log.Printf("scheduler: poll %s has no rendered message to update", p.ID)
		return nil
	}
	if err := s.gateway.UpdatePollMessage(fresh, counts); err != nil {
		// The poll is closed regardless; the stale message is cosmetic.
		log.Printf("scheduler: failed to update message for poll %s: %v", p.ID, err)
	}

	return nil
}
