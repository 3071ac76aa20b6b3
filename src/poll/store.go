package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stake-plus/discord-democracy/src/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store owns every query the poll lifecycle needs. It is handed to each
// component at construction time; nothing in this package reaches for a
// global connection.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

type CreatePollParams struct {
	GuildID   string
	InviterID string
	InviteeID string
	Duration  time.Duration
}

// CreatePoll opens a new invite poll. The rendered message is not known yet;
// SetPollMessage back-fills it once the gateway has posted it.
func (s *Store) CreatePoll(ctx context.Context, params CreatePollParams) (*types.InvitePoll, error) {
	if params.InviterID == params.InviteeID {
		return nil, ErrSelfInvite
	}
	if params.Duration <= 0 {
		return nil, ErrInvalidDuration
	}

	now := s.now()
	p := types.InvitePoll{
		ID:        uuid.NewString(),
		GuildID:   params.GuildID,
		InviterID: params.InviterID,
		InviteeID: params.InviteeID,
		EndsAt:    now.Add(params.Duration),
	}

	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create poll: %w", err)
	}

	return &p, nil
}

func (s *Store) FindPoll(ctx context.Context, id string) (*types.InvitePoll, error) {
	var p types.InvitePoll
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPollNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPollMessage records where the poll's rendered message lives.
func (s *Store) SetPollMessage(ctx context.Context, id, channelID, messageID string) error {
	res := s.db.WithContext(ctx).Model(&types.InvitePoll{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"channel_id": channelID,
			"message_id": messageID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPollNotFound
	}
	return nil
}

// FindExpiredOpen returns every poll whose deadline has passed and whose
// outcome has not been set. This is the only query the scheduler selects
// work from.
func (s *Store) FindExpiredOpen(ctx context.Context, now time.Time) ([]types.InvitePoll, error) {
	var polls []types.InvitePoll
	err := s.db.WithContext(ctx).
		Where("outcome IS NULL AND ends_at <= ?", now).
		Order("ends_at ASC").
		Find(&polls).Error
	if err != nil {
		return nil, err
	}
	return polls, nil
}

// ClosePoll performs the one-way Open -> Closed transition. The outcome
// column doubles as the guard: the conditional update only lands while it is
// still NULL, so a second close attempt fails no matter how it is reached.
func (s *Store) ClosePoll(ctx context.Context, id string, outcome types.PollOutcome, reason string) error {
	res := s.db.WithContext(ctx).Model(&types.InvitePoll{}).
		Where("id = ? AND outcome IS NULL", id).
		Updates(map[string]interface{}{
			"outcome": outcome,
			"reason":  reason,
		})
	if res.Error != nil {
		return fmt.Errorf("close poll %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var p types.InvitePoll
		err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPollNotFound
		}
		if err != nil {
			return err
		}
		return ErrPollAlreadyClosed
	}
	return nil
}

// SubmitVote records one voter's vote on an open poll. Resubmission
// overwrites the previous value for the same (poll, voter) pair.
func (s *Store) SubmitVote(ctx context.Context, pollID, voterID string, vote types.Vote) (*types.InvitePollVoteSubmission, error) {
	p, err := s.FindPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if !p.AcceptsVotes(s.now()) {
		return nil, ErrPollNotOpen
	}

	sub := types.InvitePollVoteSubmission{
		PollID:  pollID,
		VoterID: voterID,
		Vote:    vote,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}, {Name: "voter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vote", "updated_at"}),
	}).Create(&sub).Error
	if err != nil {
		return nil, fmt.Errorf("submit vote: %w", err)
	}

	return &sub, nil
}

// CountVotes aggregates the ledger rows for one poll. A poll with no votes
// yields zero counts, not an error.
func (s *Store) CountVotes(ctx context.Context, pollID string) (types.VoteCount, error) {
	var counts types.VoteCount

	rows := []struct {
		Vote types.Vote
		N    int64
	}{}
	err := s.db.WithContext(ctx).Model(&types.InvitePollVoteSubmission{}).
		Select("vote, count(*) as n").
		Where("poll_id = ?", pollID).
		Group("vote").
		Scan(&rows).Error
	if err != nil {
		return counts, fmt.Errorf("count votes: %w", err)
	}

	for _, row := range rows {
		switch row.Vote {
		case types.VoteYes:
			counts.Yes = row.N
		case types.VoteNo:
			counts.No = row.N
		}
	}

	return counts, nil
}

// UpsertGuildSettings creates or replaces a guild's policy row.
func (s *Store) UpsertGuildSettings(ctx context.Context, settings *types.GuildSettings) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"invite_channel_id", "quorum_fraction", "updated_at"}),
	}).Create(settings).Error
	if err != nil {
		return fmt.Errorf("upsert guild settings: %w", err)
	}
	return nil
}

func (s *Store) GuildSettings(ctx context.Context, guildID string) (*types.GuildSettings, error) {
	var settings types.GuildSettings
	err := s.db.WithContext(ctx).First(&settings, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGuildNotConfigured
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
