package lib

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/emersion/go-message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEmailSecondPart(t *testing.T) {
	raw := GenerateEmail(TestEmail{
		From:    "support@example.com",
		To:      "me@example.com",
		Subject: "Order #4821 shipped",
		Date:    "Wed, 11 May 2016 14:31:59 +0000",
		Body:    "Your order has shipped.",
		ID:      1,
	})

	entity, err := message.Read(bufio.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, "Order #4821 shipped", entity.Header.Get("Subject"))

	reader := entity.MultipartReader()
	require.NotNil(t, reader)

	parts := make([]string, 0, 2)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(part.Body)
		require.NoError(t, err)
		parts = append(parts, string(body))
	}
	require.Len(t, parts, 2)
	assert.Equal(t, "Your order has shipped.", parts[1])
}

func TestGenerateEmailWithoutSender(t *testing.T) {
	raw := GenerateEmail(TestEmail{To: "me@example.com", Subject: "no sender"})
	assert.NotContains(t, string(raw), "From:")
	assert.NotContains(t, string(raw), "Date:")
}

func TestFlags(t *testing.T) {
	fixtures := []struct {
		flags  []string
		unread bool
	}{
		{nil, true},
		{[]string{}, true},
		{[]string{"\\Recent"}, true},
		{[]string{"\\Seen"}, false},
		{[]string{"\\seen"}, false},
		{[]string{"\\Flagged", "\\Seen"}, false},
	}

	for _, fixture := range fixtures {
		assert.Equal(t, fixture.unread, IsUnread(fixture.flags), "%v", fixture.flags)
	}
}

func TestAccountTag(t *testing.T) {
	tag := AccountTag("mail.example.com:993", "user@example.com")
	assert.Len(t, tag, 64)
	assert.Equal(t, tag, AccountTag("mail.example.com:993", "user@example.com"))
	assert.NotEqual(t, tag, AccountTag("mail.example.com:993", "other@example.com"))
	assert.Equal(t, tag[0:16], ShortTag(tag))
	assert.Equal(t, "short", ShortTag("short"))
}
