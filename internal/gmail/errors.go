package gmail

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/FarhadManiCodes/gmail-file-mailer/internal/mailer"
)

// Classify wraps err with the matching mailer failure kind. Errors that fit
// no kind are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %w", mailer.ErrAuth, err)
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch {
	case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %w", mailer.ErrAuth, err)
	case gerr.Code == http.StatusBadRequest && isRecipientError(gerr):
		return fmt.Errorf("%w: %w", mailer.ErrRecipient, err)
	case gerr.Code == http.StatusBadRequest || gerr.Code == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %w", mailer.ErrData, err)
	}
	return err
}

// isRecipientError recognizes Gmail's complaints about the To header,
// e.g. "Invalid To header".
func isRecipientError(gerr *googleapi.Error) bool {
	texts := []string{gerr.Message}
	for _, item := range gerr.Errors {
		texts = append(texts, item.Message, item.Reason)
	}
	for _, text := range texts {
		text = strings.ToLower(text)
		if strings.Contains(text, "to header") || strings.Contains(text, "recipient") {
			return true
		}
	}
	return false
}
