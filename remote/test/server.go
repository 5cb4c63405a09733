package test

import (
	"sync"
	"testing"
	"time"

	"github.com/creativeprojects/mailpoll/lib"
	compress "github.com/emersion/go-imap-compress"
	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"
)

// The memory backend creates a single user with these credentials
const (
	Username = "username"
	Password = "password"
	Folder   = "INBOX"
)

// deflateExtension advertises the mechanism with the capability (COMPRESS=DEFLATE),
// which is what clients look for.
type deflateExtension struct {
	server.Extension
}

func (e deflateExtension) Capabilities(c server.Conn) []string {
	return []string{compress.Capability + "=" + compress.Deflate}
}

// Server is an in-memory IMAP server listening on a local port.
type Server struct {
	Address string
	backend *memory.Backend
}

// NewServer starts an IMAP server on a local listener. It is stopped when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()

	be := memory.New()
	srv := server.New(be)
	// Since we will use this server for testing only, we can allow plain text
	// authentication over non-encrypted connections
	srv.AllowInsecureAuth = true
	srv.Enable(deflateExtension{compress.NewExtension()})
	srv.ErrorLog = lib.NewTestLogger(t, "server")

	listener, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)

	t.Logf("Starting IMAP server at %s", listener.Addr().String())
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = srv.Serve(listener)
	}()

	time.Sleep(100 * time.Millisecond)

	t.Cleanup(func() {
		_ = srv.Close()
		wg.Wait()
	})

	return &Server{
		Address: listener.Addr().String(),
		backend: be,
	}
}

// Message to load in a mailbox.
type Message struct {
	UID   uint32
	Date  time.Time
	Flags []string
	Body  []byte
}

// SetMessages replaces the content of the folder, keeping the UIDs given.
func (s *Server) SetMessages(t *testing.T, folder string, messages ...Message) {
	t.Helper()

	mbox := s.mailbox(t, folder)
	mbox.Messages = make([]*memory.Message, len(messages))
	for i, message := range messages {
		flags := message.Flags
		if flags == nil {
			flags = []string{}
		}
		mbox.Messages[i] = &memory.Message{
			Uid:   message.UID,
			Date:  message.Date,
			Size:  uint32(len(message.Body)),
			Flags: flags,
			Body:  message.Body,
		}
	}
}

// AddMessages appends messages after the existing ones, keeping the UIDs given.
func (s *Server) AddMessages(t *testing.T, folder string, messages ...Message) {
	t.Helper()

	mbox := s.mailbox(t, folder)
	for _, message := range messages {
		flags := message.Flags
		if flags == nil {
			flags = []string{}
		}
		mbox.Messages = append(mbox.Messages, &memory.Message{
			Uid:   message.UID,
			Date:  message.Date,
			Size:  uint32(len(message.Body)),
			Flags: flags,
			Body:  message.Body,
		})
	}
}

func (s *Server) mailbox(t *testing.T, folder string) *memory.Mailbox {
	t.Helper()

	user, err := s.backend.Login(nil, Username, Password)
	require.NoError(t, err)
	mbox, err := user.GetMailbox(folder)
	require.NoError(t, err)
	memMailbox, ok := mbox.(*memory.Mailbox)
	require.True(t, ok)
	return memMailbox
}
