// Package request parses the line-oriented send request file.
//
// The on-disk layout is positional:
//
//	line 1   sender address
//	line 2   recipient address
//	line 3   subject
//	line 4   attachment path (empty for none)
//	line 5+  body, verbatim
package request

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/afero"

	"github.com/FarhadManiCodes/gmail-file-mailer/internal/utils"
)

// HeaderLines is the number of single-value lines before the body.
const HeaderLines = 4

var (
	ErrTooFewLines   = errors.New("request file has too few lines")
	ErrMissingSender = errors.New("request file has an empty sender line")
)

// ParseError reports a malformed request file.
type ParseError struct {
	Path  string
	Lines int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse request: %v (got %d lines, need at least %d)", e.Err, e.Lines, HeaderLines)
	}
	return fmt.Sprintf("parse request %s: %v (got %d lines, need at least %d)", e.Path, e.Err, e.Lines, HeaderLines)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SendRequest is one email to deliver.
type SendRequest struct {
	Sender     string
	Recipient  string
	Subject    string
	Attachment string
	Body       string

	// Raw holds the file exactly as read, for the audit copy.
	Raw []byte
}

// HasAttachment reports whether an attachment path was given.
func (r *SendRequest) HasAttachment() bool {
	return r.Attachment != ""
}

// Validate returns non-fatal problems worth showing to the user.
func (r *SendRequest) Validate() []string {
	var warnings []string
	if !utils.IsValidEmail(r.Sender) {
		warnings = append(warnings, fmt.Sprintf("sender %q does not look like an email address", r.Sender))
	}
	if !utils.IsValidEmail(r.Recipient) {
		warnings = append(warnings, fmt.Sprintf("recipient %q does not look like an email address", r.Recipient))
	}
	if r.Subject == "" {
		warnings = append(warnings, "subject is empty")
	}
	return warnings
}

// ParseFile reads and parses the request at path.
func ParseFile(fs afero.Fs, path string) (*SendRequest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read request %s: %w", path, err)
	}

	req, err := Parse(data)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return req, nil
}

// Parse splits data into the positional fields.
func Parse(data []byte) (*SendRequest, error) {
	lines := splitLines(string(data))
	if len(lines) < HeaderLines {
		return nil, &ParseError{Lines: len(lines), Err: ErrTooFewLines}
	}

	req := &SendRequest{
		Sender:     trimRight(lines[0]),
		Recipient:  trimRight(lines[1]),
		Subject:    trimRight(lines[2]),
		Attachment: trimRight(lines[3]),
		Body:       trimRight(strings.Join(lines[HeaderLines:], "")),
		Raw:        data,
	}

	if strings.TrimSpace(req.Sender) == "" {
		return nil, &ParseError{Lines: len(lines), Err: ErrMissingSender}
	}
	return req, nil
}

// splitLines keeps each line's terminator so the body is reassembled
// verbatim. A trailing newline does not produce an extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimRight(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
