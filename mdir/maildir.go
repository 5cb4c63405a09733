package mdir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/creativeprojects/mailpoll/lib"
	"github.com/creativeprojects/mailpoll/mailbox"
	"github.com/emersion/go-maildir"
	"github.com/emersion/go-message/mail"
)

const (
	uidHeader    = "X-Mailpoll-Uid"
	ticketHeader = "X-Mailpoll-Ticket"
)

// Maildir writes polled messages into maildir folders under root. Messages
// flagged as read get the S flag, messages carrying a ticket id get the F flag.
type Maildir struct {
	root string
	log  lib.Logger
}

func New(root string) (*Maildir, error) {
	return NewWithLogger(root, nil)
}

func NewWithLogger(root string, logger lib.Logger) (*Maildir, error) {
	if runtime.GOOS == "windows" {
		return nil, fmt.Errorf("maildir: %w", lib.ErrUnsupportedPlatform)
	}
	err := os.MkdirAll(root, 0700)
	if err != nil {
		return nil, err
	}
	return &Maildir{
		root: root,
		log:  lib.OrNoLog(logger),
	}, nil
}

func (m *Maildir) Root() string {
	return m.root
}

// Export writes the messages into the folder, creating it when needed. It
// returns the number of messages written before any error.
func (m *Maildir) Export(folder string, messages []mailbox.Message) (int, error) {
	mbox, err := m.folder(folder)
	if err != nil {
		return 0, err
	}
	for i, msg := range messages {
		key, err := m.put(mbox, msg)
		if err != nil {
			return i, fmt.Errorf("cannot export message %d: %w", msg.UID, err)
		}
		m.log.Printf("Message saved: folder=%q key=%q uid=%d", folder, key, msg.UID)
	}
	return len(messages), nil
}

// List reads back the messages exported in the folder.
func (m *Maildir) List(folder string) ([]mailbox.Message, error) {
	mbox := maildir.Dir(m.path(folder))
	keys, err := mbox.Keys()
	if err != nil {
		return nil, err
	}
	messages := make([]mailbox.Message, 0, len(keys))
	for _, key := range keys {
		msg, err := read(mbox, key)
		if err != nil {
			return messages, fmt.Errorf("cannot read %q: %w", key, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (m *Maildir) path(folder string) string {
	return filepath.Join(m.root, strings.ReplaceAll(folder, "/", "."))
}

func (m *Maildir) folder(name string) (maildir.Dir, error) {
	mbox := maildir.Dir(m.path(name))
	if _, err := os.Stat(filepath.Join(string(mbox), "cur")); err == nil {
		return mbox, nil
	}
	if err := mbox.Init(); err != nil {
		return mbox, err
	}
	return mbox, nil
}

func (m *Maildir) put(mbox maildir.Dir, msg mailbox.Message) (string, error) {
	header := toHeader(msg)
	key, writer, err := mbox.Create(toFlags(msg))
	if err != nil {
		return "", err
	}
	err = writeMessage(writer, header, msg.Body)
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = mbox.Remove(key)
		return "", err
	}
	if date, err := header.Date(); err == nil && !date.IsZero() {
		if filename, err := mbox.Filename(key); err == nil {
			_ = os.Chtimes(filename, time.Now(), date)
		}
	}
	return key, nil
}

func toHeader(msg mailbox.Message) mail.Header {
	header := mail.Header{}
	if msg.SentDate != "" {
		header.Set("Date", msg.SentDate)
	}
	if msg.SenderAddress != "" {
		header.SetAddressList("From", []*mail.Address{{Name: msg.SenderName, Address: msg.SenderAddress}})
	}
	header.SetSubject(msg.Subject)
	header.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	header.Set(uidHeader, strconv.FormatUint(uint64(msg.UID), 10))
	if msg.HasTicket() {
		header.Set(ticketHeader, msg.TicketID)
	}
	return header
}

func writeMessage(writer io.Writer, header mail.Header, body string) error {
	inline, err := mail.CreateSingleInlineWriter(writer, header)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(inline, body); err != nil {
		_ = inline.Close()
		return err
	}
	return inline.Close()
}

func read(mbox maildir.Dir, key string) (mailbox.Message, error) {
	file, err := mbox.Open(key)
	if err != nil {
		return mailbox.Message{}, err
	}
	defer file.Close()

	reader, err := mail.CreateReader(file)
	if err != nil {
		return mailbox.Message{}, err
	}
	defer reader.Close()

	msg := mailbox.Message{
		SentDate: reader.Header.Get("Date"),
		TicketID: mailbox.NoTicket,
	}
	msg.Subject, _ = reader.Header.Subject()
	if uid, err := strconv.ParseUint(reader.Header.Get(uidHeader), 10, 32); err == nil {
		msg.UID = uint32(uid)
	}
	if ticket := reader.Header.Get(ticketHeader); ticket != "" {
		msg.TicketID = ticket
	}
	if from, err := reader.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.SenderName = from[0].Name
		msg.SenderAddress = from[0].Address
	}

	part, err := reader.NextPart()
	if err != nil && !errors.Is(err, io.EOF) {
		return msg, err
	}
	if part != nil {
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return msg, err
		}
		msg.Body = string(body)
	}

	flags, err := mbox.Flags(key)
	if err != nil {
		return msg, err
	}
	msg.Unread = !hasFlag(flags, maildir.FlagSeen)
	return msg, nil
}
