package types

import "time"

// Poll outcomes. An open poll has no outcome; the column is nullable and the
// poll's status is derived from it rather than stored separately.
type PollOutcome string

const (
	OutcomeAllow PollOutcome = "allow"
	OutcomeDeny  PollOutcome = "deny"
)

// Vote values accepted on an invite poll.
type Vote string

const (
	VoteYes Vote = "yes"
	VoteNo  Vote = "no"
)

// ParseVote maps the textual form used in button custom ids back to a Vote.
func ParseVote(s string) (Vote, bool) {
	switch Vote(s) {
	case VoteYes:
		return VoteYes, true
	case VoteNo:
		return VoteNo, true
	}
	return "", false
}

type PollStatus string

const (
	PollOpen   PollStatus = "open"
	PollClosed PollStatus = "closed"
)

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}

// Per-guild policy: where invites are minted and how much of the guild has to
// approve a petition. One row per guild, written idempotently by /configure.
type GuildSettings struct {
	GuildID         string  `gorm:"primaryKey;size:64"`
	InviteChannelID string  `gorm:"size:64;not null"`
	QuorumFraction  float64 `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// A petition to invite a user. Never deleted; closing sets the outcome once
// and the row stays as an audit record. ChannelID/MessageID are back-filled
// after the poll message has been posted.
type InvitePoll struct {
	ID        string       `gorm:"primaryKey;size:36"`
	GuildID   string       `gorm:"size:64;index;not null"`
	InviterID string       `gorm:"size:64;not null"`
	InviteeID string       `gorm:"size:64;not null"`
	ChannelID string       `gorm:"size:64"`
	MessageID string       `gorm:"size:64"`
	Outcome   *PollOutcome `gorm:"size:8"`
	Reason    string       `gorm:"size:512"`
	EndsAt    time.Time    `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status derives the poll state from the outcome column and the deadline.
func (p *InvitePoll) Status(now time.Time) PollStatus {
	if p.Outcome != nil {
		return PollClosed
	}
	if !now.Before(p.EndsAt) {
		return PollClosed
	}
	return PollOpen
}

// AcceptsVotes reports whether a vote may still be submitted.
func (p *InvitePoll) AcceptsVotes(now time.Time) bool {
	return p.Outcome == nil && now.Before(p.EndsAt)
}

// One row per (poll, voter); resubmission overwrites the vote value.
type InvitePollVoteSubmission struct {
	PollID    string `gorm:"primaryKey;size:36"`
	VoterID   string `gorm:"primaryKey;size:64"`
	Vote      Vote   `gorm:"size:8;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Aggregate vote tally for one poll. Computed from the submission rows, which
// remain the source of truth.
type VoteCount struct {
	Yes int64
	No  int64
}

func (c VoteCount) Total() int64 { return c.Yes + c.No }
