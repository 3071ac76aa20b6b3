package actions

import (
	"errors"
	"fmt"

	"github.com/stake-plus/discord-democracy/src/poll"
)

// ErrUnhandled marks interactions that belong to someone else (another bot's
// components, unknown interaction types). The dispatcher ignores them.
var ErrUnhandled = errors.New("interaction not handled by this bot")

// ParseError describes a failure to turn an interaction into an Action.
// Client errors carry text safe to show the invoking user verbatim;
// everything else gets a generic response and a log line.
type ParseError struct {
	Action  string
	Message string
	Client  bool
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

func errUnknownCommand(name string) *ParseError {
	return &ParseError{
		Action:  name,
		Message: fmt.Sprintf("unknown command `%s`", name),
		Client:  true,
	}
}

func errNotInGuild(action string) *ParseError {
	return &ParseError{
		Action:  action,
		Message: "this command cannot be used outside of a server",
		Client:  true,
	}
}

func errMissingOption(action, option string) *ParseError {
	return &ParseError{
		Action:  action,
		Message: fmt.Sprintf("missing required option `%s`", option),
		Client:  true,
	}
}

func errInvalidOption(action, option, value string, err error) *ParseError {
	return &ParseError{
		Action:  action,
		Message: fmt.Sprintf("invalid value `%s` for option `%s`", value, option),
		Client:  true,
		Err:     err,
	}
}

func errInsufficientPermissions(action string) *ParseError {
	return &ParseError{
		Action:  action,
		Message: "insufficient permissions",
		Client:  true,
	}
}

func errMalformedPollID(action, value string, err error) *ParseError {
	return &ParseError{
		Action:  action,
		Message: fmt.Sprintf("malformed poll id `%s`", value),
		Client:  true,
		Err:     err,
	}
}

func errParentMessage(action, field string) *ParseError {
	return &ParseError{
		Action:  action,
		Message: fmt.Sprintf("field %q not found in the poll message", field),
		Client:  false,
	}
}

// IsClientError reports whether the error text can be shown to the invoking
// user as-is, per the propagation policy: parse errors flagged as client
// errors and the poll domain errors qualify; infrastructure errors do not.
func IsClientError(err error) bool {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Client
	}
	return poll.IsDomainError(err)
}

// UserMessage returns the text to show the invoking user for err.
func UserMessage(err error) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) && parseErr.Client {
		return parseErr.Message
	}
	if poll.IsDomainError(err) {
		return err.Error()
	}
	return "Something went wrong, please try again later."
}
