package poll

import "errors"

// Domain errors surfaced to the invoking user. Anything else coming out of
// the store or gateway is infrastructure failure and gets logged instead.
var (
	ErrPollNotFound       = errors.New("poll not found")
	ErrPollNotOpen        = errors.New("poll is not open")
	ErrPollAlreadyClosed  = errors.New("poll already closed")
	ErrGuildNotConfigured = errors.New("this server has not been configured yet, run /configure first")
	ErrSelfInvite         = errors.New("you cannot petition to invite yourself")
	ErrAlreadyMember      = errors.New("that user is already a member of this server")
	ErrInvalidDuration    = errors.New("poll duration must be positive")
)

// IsDomainError reports whether err is one of the user-correctable errors
// above, as opposed to an infrastructure failure.
func IsDomainError(err error) bool {
	for _, domain := range []error{
		ErrPollNotFound,
		ErrPollNotOpen,
		ErrPollAlreadyClosed,
		ErrGuildNotConfigured,
		ErrSelfInvite,
		ErrAlreadyMember,
		ErrInvalidDuration,
	} {
		if errors.Is(err, domain) {
			return true
		}
	}
	return false
}
