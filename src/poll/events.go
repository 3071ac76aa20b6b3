package poll

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/discord-democracy/src/data"
	"github.com/stake-plus/discord-democracy/src/types"
)

// Publisher pushes poll lifecycle events onto the redis stream for external
// consumers. A nil client disables publishing; failures are logged and never
// affect the poll itself.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) PollCreated(ctx context.Context, poll *types.InvitePoll) {
	p.publish(ctx, map[string]interface{}{
		"event":   "poll_created",
		"poll":    poll.ID,
		"guild":   poll.GuildID,
		"inviter": poll.InviterID,
		"invitee": poll.InviteeID,
		"ends_at": poll.EndsAt.Unix(),
	})
}

func (p *Publisher) VoteSubmitted(ctx context.Context, sub *types.InvitePollVoteSubmission) {
	p.publish(ctx, map[string]interface{}{
		"event": "vote_submitted",
		"poll":  sub.PollID,
		"voter": sub.VoterID,
		"vote":  string(sub.Vote),
	})
}

func (p *Publisher) PollClosed(ctx context.Context, poll *types.InvitePoll, outcome types.PollOutcome, reason string) {
	p.publish(ctx, map[string]interface{}{
		"event":   "poll_closed",
		"poll":    poll.ID,
		"guild":   poll.GuildID,
		"outcome": string(outcome),
		"reason":  reason,
	})
}

func (p *Publisher) publish(ctx context.Context, payload map[string]interface{}) {
	if p == nil || p.rdb == nil {
		return
	}
	if err := data.PublishEvent(ctx, p.rdb, payload); err != nil {
		log.Printf("events: publish failed: %v", err)
	}
}
