package poll

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketID(t *testing.T) {
	testData := []struct {
		subject string
		ticket  string
	}{
		{"Order #4821 shipped", "#4821"},
		{"Re: ticket #123", "#123"},
		{"#1 and #2", "#1"},
		{"no ticket here", "n/a"},
		{"hashtag #alone", "n/a"},
		{"", "n/a"},
		{"issue#77", "#77"},
	}

	for _, testItem := range testData {
		t.Run(testItem.subject, func(t *testing.T) {
			assert.Equal(t, testItem.ticket, TicketID(testItem.subject))
		})
	}
}

func TestParseDate(t *testing.T) {
	expected := time.Date(2023, time.March, 5, 0, 0, 0, 0, time.UTC)
	testData := []string{
		"5-Mar-2023",
		"05-Mar-2023",
		"2023-03-05",
		"5 Mar 2023",
		"5 March 2023",
		" 5-Mar-2023 ",
	}

	for _, testItem := range testData {
		t.Run(testItem, func(t *testing.T) {
			date, err := ParseDate(testItem)
			require.NoError(t, err)
			assert.Equal(t, expected, date)
		})
	}
}

func TestParseInvalidDate(t *testing.T) {
	testData := []string{
		"",
		"March",
		"2023-13-01",
		"5/3/2023",
		"32-Mar-2023",
	}

	for _, testItem := range testData {
		t.Run(testItem, func(t *testing.T) {
			_, err := ParseDate(testItem)
			paramErr := &ParameterError{}
			require.True(t, errors.As(err, &paramErr))
			assert.ErrorIs(t, err, errDateFormat)
		})
	}
}
