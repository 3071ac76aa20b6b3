package poll

import (
	"fmt"
	"math"

	"github.com/stake-plus/discord-democracy/src/types"
)

// Resolution is the terminal decision of a poll plus the human-readable
// reason shown in the closed poll message. Allow carries no reason.
type Resolution struct {
	Outcome types.PollOutcome
	Reason  string
}

// Resolve decides a poll from its final tally. A single opposing vote denies
// the petition regardless of approvals; otherwise the yes votes must reach
// the quorum, computed with ceiling rounding so a fractional threshold never
// under-requires.
func Resolve(counts types.VoteCount, eligibleVoters int, quorumFraction float64) Resolution {
	if counts.No > 0 {
		return Resolution{
			Outcome: types.OutcomeDeny,
			Reason:  fmt.Sprintf("%d users opposed", counts.No),
		}
	}

	required := int64(math.Ceil(float64(eligibleVoters) * quorumFraction))
	if counts.Yes < required {
		return Resolution{
			Outcome: types.OutcomeDeny,
			Reason:  fmt.Sprintf("the quorum was not reached: %d/%d users voted", counts.Yes, required),
		}
	}

	return Resolution{Outcome: types.OutcomeAllow}
}
