package poll

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/creativeprojects/mailpoll/lib"
	"github.com/creativeprojects/mailpoll/mailbox"
	"github.com/creativeprojects/mailpoll/remote"
	"github.com/creativeprojects/mailpoll/remote/test"
	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadMailbox(t *testing.T, srv *test.Server, day time.Time) {
	t.Helper()

	messages := make([]test.Message, 0, 5)
	for i := 0; i < 5; i++ {
		uid := uint32(10 + i)
		var flags []string
		if i%2 == 0 {
			flags = []string{imap.SeenFlag}
		}
		messages = append(messages, test.Message{
			UID:   uid,
			Date:  day.AddDate(0, 0, i),
			Flags: flags,
			Body: lib.GenerateEmail(lib.TestEmail{
				From:    "Support Desk <support@example.com>",
				To:      "me@example.com",
				Subject: fmt.Sprintf("Ticket #%d updated", 100+i),
				Date:    day.AddDate(0, 0, i).Format("Mon, 2 Jan 2006 15:04:05 -0700"),
				Body:    fmt.Sprintf("Update number %d", i),
				ID:      uid,
			}),
		})
	}
	srv.SetMessages(t, test.Folder, messages...)
}

func serverConfig(t *testing.T, srv *test.Server) remote.Config {
	return remote.Config{
		Host:        srv.Address,
		Username:    test.Username,
		Password:    test.Password,
		NoTLS:       true,
		Timeout:     5 * time.Second,
		DebugLogger: lib.NewTestLogger(t, "client"),
	}
}

func TestCycleFetchAll(t *testing.T) {
	srv := test.NewServer(t)
	day := time.Date(2023, time.March, 10, 9, 15, 0, 0, time.FixedZone("", 3600))
	loadMailbox(t, srv, day)

	result, err := Cycle(context.Background(), serverConfig(t, srv), Request{Mode: ModeAll}, newTestSynchronizer(t, WithBatchSize(2)))
	require.NoError(t, err)

	assert.Equal(t, 5, result.Count)
	require.Equal(t, []uint32{10, 11, 12, 13, 14}, uidsOf(result.Messages))
	assert.Empty(t, result.Faults)

	first := result.Messages[0]
	assert.Equal(t, "Ticket #100 updated", first.Subject)
	assert.Equal(t, "#100", first.TicketID)
	assert.Equal(t, "Support Desk", first.SenderName)
	assert.Equal(t, "support@example.com", first.SenderAddress)
	assert.Equal(t, "Fri, 10 Mar 2023 09:15:00 +0100", first.SentDate)
	assert.Equal(t, "Update number 0", first.Body)
	assert.False(t, first.Unread)
	assert.True(t, result.Messages[1].Unread)
}

func TestCycleFetchSince(t *testing.T) {
	srv := test.NewServer(t)
	day := time.Date(2023, time.March, 10, 12, 0, 0, 0, time.UTC)
	loadMailbox(t, srv, day)

	// the memory backend leaves out the messages received on the day itself
	result, err := Cycle(context.Background(), serverConfig(t, srv), Request{Mode: ModeSince, SinceDate: "11-Mar-2023"}, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []uint32{12, 13, 14}, uidsOf(result.Messages))
	assert.Equal(t, 3, result.Count)

	result, err = Cycle(context.Background(), serverConfig(t, srv), Request{Mode: ModeSince, SinceDate: "1-Jan-2030"}, nil)
	require.NoError(t, err)
	assert.Equal(t, mailbox.NoOpNothingFound, result.NoOp)
}

func TestCycleFetchSinceCheckpoint(t *testing.T) {
	srv := test.NewServer(t)
	loadMailbox(t, srv, time.Date(2023, time.March, 10, 12, 0, 0, 0, time.UTC))
	cfg := serverConfig(t, srv)

	result, err := Cycle(context.Background(), cfg, Request{Mode: ModeCheckpoint, LastUID: 12}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{12, 13, 14}, uidsOf(result.Messages))
	assert.Equal(t, uint32(14), result.Checkpoint)

	// new mail arrives
	srv.AddMessages(t, test.Folder, test.Message{
		UID:  20,
		Date: time.Now(),
		Body: lib.GenerateEmail(lib.TestEmail{From: "new@example.com", Subject: "Fresh"}),
	})

	result, err = Cycle(context.Background(), cfg, Request{Mode: ModeCheckpoint, LastUID: result.Checkpoint}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{14, 20}, uidsOf(result.Messages))
	assert.Equal(t, uint32(20), result.Checkpoint)
	assert.Equal(t, mailbox.NoTicket, result.Messages[1].TicketID)
}

func TestCyclePeeksOnly(t *testing.T) {
	srv := test.NewServer(t)
	loadMailbox(t, srv, time.Date(2023, time.March, 10, 12, 0, 0, 0, time.UTC))
	cfg := serverConfig(t, srv)

	for i := 0; i < 2; i++ {
		result, err := Cycle(context.Background(), cfg, Request{Mode: ModeAll}, nil)
		require.NoError(t, err)
		require.Len(t, result.Messages, 5)
		assert.True(t, result.Messages[1].Unread)
		assert.True(t, result.Messages[3].Unread)
	}
}

func TestCycleMissingSender(t *testing.T) {
	srv := test.NewServer(t)
	srv.SetMessages(t, test.Folder,
		test.Message{UID: 1, Date: time.Now(), Body: lib.GenerateEmail(lib.TestEmail{From: "a@example.com", Subject: "one"})},
		test.Message{UID: 2, Date: time.Now(), Body: lib.GenerateEmail(lib.TestEmail{Subject: "two"})},
		test.Message{UID: 3, Date: time.Now(), Body: lib.GenerateEmail(lib.TestEmail{From: "c@example.com", Subject: "three"})},
	)

	result, err := Cycle(context.Background(), serverConfig(t, srv), Request{Mode: ModeAll}, nil)
	require.NoError(t, err)

	assert.Equal(t, []uint32{1, 3}, uidsOf(result.Messages))
	require.Len(t, result.Faults, 1)
	assert.Equal(t, uint32(2), result.Faults[0].ID)
}

func TestCycleDecodesEncodedSubject(t *testing.T) {
	srv := test.NewServer(t)
	srv.SetMessages(t, test.Folder, test.Message{
		UID:  1,
		Date: time.Now(),
		Body: lib.GenerateEmail(lib.TestEmail{
			From:    "=?ISO-8859-1?Q?Andr=E9?= <andre@example.com>",
			Subject: "=?windows-1252?Q?Caf=E9_command_#77?=",
		}),
	})

	result, err := Cycle(context.Background(), serverConfig(t, srv), Request{Mode: ModeAll}, nil)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "Café command #77", result.Messages[0].Subject)
	assert.Equal(t, "André", result.Messages[0].SenderName)
	assert.Equal(t, "#77", result.Messages[0].TicketID)
}

func TestCycleConnectionError(t *testing.T) {
	srv := test.NewServer(t)
	cfg := serverConfig(t, srv)
	cfg.Password = "nope"

	result, err := Cycle(context.Background(), cfg, Request{Mode: ModeAll}, nil)
	assert.Nil(t, result)
	connErr := &remote.ConnectionError{}
	assert.True(t, errors.As(err, &connErr))
}

func TestCycleConfigurationError(t *testing.T) {
	result, err := Cycle(context.Background(), remote.Config{Host: "localhost"}, Request{Mode: ModeAll}, nil)
	assert.Nil(t, result)
	configErr := &remote.ConfigurationError{}
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "username", configErr.Field)
}

func TestCycleOverCompressedConnection(t *testing.T) {
	srv := test.NewServer(t)
	day := time.Date(2023, time.March, 10, 9, 15, 0, 0, time.UTC)
	loadMailbox(t, srv, day)
	cfg := serverConfig(t, srv)
	cfg.Compress = true

	result, err := Cycle(context.Background(), cfg, Request{Mode: ModeCheckpoint, LastUID: 12}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{12, 13, 14}, uidsOf(result.Messages))
	assert.Equal(t, uint32(14), result.Checkpoint)

	err = remote.WithSession(cfg, func(session *remote.Session) error {
		assert.True(t, session.Compressed())
		result, err := New().Run(context.Background(), session, Request{Mode: ModeAll})
		if err != nil {
			return err
		}
		assert.Equal(t, 5, result.Count)
		assert.Equal(t, "Update number 4", result.Messages[4].Body)
		return nil
	})
	require.NoError(t, err)
}

func TestCycleSinglePartMessageHasNoBody(t *testing.T) {
	srv := test.NewServer(t)
	raw := "From: Help Desk <help@example.com>\r\n" +
		"To: me@example.com\r\n" +
		"Subject: Password reset #5\r\n" +
		"Date: Fri, 10 Mar 2023 09:15:00 +0000\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Follow the link to reset your password.\r\n"
	srv.SetMessages(t, test.Folder, test.Message{UID: 5, Date: time.Now(), Body: []byte(raw)})

	result, err := Cycle(context.Background(), serverConfig(t, srv), Request{Mode: ModeAll}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Faults)
	require.Len(t, result.Messages, 1)

	msg := result.Messages[0]
	assert.Equal(t, "", msg.Body)
	assert.Equal(t, "#5", msg.TicketID)
	assert.Equal(t, "help@example.com", msg.SenderAddress)
	assert.Equal(t, "Fri, 10 Mar 2023 09:15:00 +0000", msg.SentDate)
}
