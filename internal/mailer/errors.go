package mailer

import "errors"

// Failure kinds a provider reports for a rejected send. Anything not
// wrapping one of these is treated as unexpected.
var (
	ErrAuth      = errors.New("authentication failed")
	ErrData      = errors.New("message data rejected")
	ErrRecipient = errors.New("recipient refused")
)

// Kind returns the failure kind err wraps, or nil for unclassified errors.
func Kind(err error) error {
	for _, kind := range []error{ErrAuth, ErrData, ErrRecipient} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
