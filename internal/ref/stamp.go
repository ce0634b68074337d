package ref

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StampLayout is the single canonical timestamp format used across every
// record table. The original schema stores timestamps as TEXT in exactly
// this shape; anything else is malformed.
const StampLayout = "2006-01-02 15:04:05"

// MalformedStampError reports a timestamp that does not conform to
// StampLayout. It is always recovered locally: callers skip or flag the
// offending record so one bad row cannot abort an analytics pass.
type MalformedStampError struct {
	// Text is the offending value, possibly empty.
	Text string
}

// Error implements the error interface.
func (e *MalformedStampError) Error() string {
	if e.Text == "" {
		return "malformed timestamp: empty value"
	}
	return fmt.Sprintf("malformed timestamp: %q", e.Text)
}

// IsMalformedStamp returns true if the error is a malformed-timestamp
// classification. Uses errors.As to handle wrapped errors.
func IsMalformedStamp(err error) bool {
	var me *MalformedStampError
	return errors.As(err, &me)
}

// ParseStamp parses the store's textual timestamp representation into a
// comparable time. The input must match StampLayout exactly (after
// trimming surrounding whitespace); any other shape, including an empty
// value, yields a *MalformedStampError.
//
// Stamps are interpreted in local time, matching how the desktop tool
// records them with the machine clock.
func ParseStamp(text string) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, &MalformedStampError{Text: text}
	}
	t, err := time.ParseInLocation(StampLayout, trimmed, time.Local)
	if err != nil {
		return time.Time{}, &MalformedStampError{Text: text}
	}
	return t, nil
}

// FormatStamp renders a time in the canonical layout. Inverse of ParseStamp
// for the precision the layout carries (seconds).
func FormatStamp(t time.Time) string {
	return t.Format(StampLayout)
}
