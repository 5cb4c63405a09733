package poll

import (
	"errors"
	"strings"
	"time"

	"github.com/emersion/go-imap"
)

var dateLayouts = []string{
	imap.DateLayout,
	"02-Jan-2006",
	"2006-01-02",
	"2 Jan 2006",
	"2 January 2006",
}

var errDateFormat = errors.New("expected a date like 2-Jan-2006 or 2006-01-02")

// ParseDate reads a calendar date without time. The IMAP format (2-Jan-2006) and
// ISO 8601 (2006-01-02) are accepted.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		date, err := time.Parse(layout, value)
		if err == nil {
			return date, nil
		}
	}
	return time.Time{}, &ParameterError{Name: "since-date", Value: value, err: errDateFormat}
}
