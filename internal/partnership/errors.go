package partnership

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid invite code")
	ErrLookupFailure    = errors.New("partnership store unavailable")
	ErrNoSuchInviter    = errors.New("no user has this invite code")
	ErrAmbiguousCode    = errors.New("invite code matches more than one user")
	ErrAlreadyPartnered = errors.New("partnership already exists")
	ErrNotFound         = errors.New("partnership not found")
	ErrNotAuthorized    = errors.New("not authorized to act on this partnership")
	ErrNotPending       = errors.New("partnership is not pending")
	ErrPartialLink      = errors.New("partner profiles not fully linked")
)

// outcome is the metrics label for a join/accept/end result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPartialLink):
		return "partial_link"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNoSuchInviter):
		return "no_such_inviter"
	case errors.Is(err, ErrAmbiguousCode):
		return "ambiguous_code"
	case errors.Is(err, ErrAlreadyPartnered):
		return "already_partnered"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrNotPending):
		return "not_pending"
	default:
		return "lookup_failure"
	}
}
