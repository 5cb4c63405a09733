package poll

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/creativeprojects/mailpoll/lib"
	"github.com/creativeprojects/mailpoll/mailbox"
	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/textproto"
)

// BodyPart is the MIME part returned as the message body. Messages with another
// structure (a single part, or the text in another part) get an empty or different body.
const BodyPart = 2

var (
	headerSection = &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Specifier: imap.HeaderSpecifier},
		Peek:         true,
	}
	bodySection = &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Path: []int{BodyPart}},
		Peek:         true,
	}
	ticketPattern = regexp.MustCompile(`#[0-9]+`)
)

// fetchItems never sets the \Seen flag
func fetchItems() []imap.FetchItem {
	return []imap.FetchItem{
		imap.FetchUid,
		imap.FetchFlags,
		imap.FetchEnvelope,
		headerSection.FetchItem(),
		bodySection.FetchItem(),
	}
}

// TicketID returns the first "#<digits>" token of the subject, or mailbox.NoTicket.
func TicketID(subject string) string {
	if ticket := ticketPattern.FindString(subject); ticket != "" {
		return ticket
	}
	return mailbox.NoTicket
}

func mapMessage(msg *imap.Message) (mailbox.Message, error) {
	id := msg.Uid
	if id == 0 {
		id = msg.SeqNum
	}
	if msg.Envelope == nil {
		return mailbox.Message{}, &MappingError{ID: id, Reason: "no envelope"}
	}
	if len(msg.Envelope.From) == 0 || msg.Envelope.From[0] == nil {
		return mailbox.Message{}, &MappingError{ID: id, Reason: "no sender"}
	}
	sender := msg.Envelope.From[0]

	return mailbox.Message{
		UID:           msg.Uid,
		Subject:       msg.Envelope.Subject,
		SenderName:    sender.PersonalName,
		SenderAddress: senderAddress(sender),
		SentDate:      sentDate(msg),
		Body:          body(msg),
		Unread:        lib.IsUnread(msg.Flags),
		TicketID:      TicketID(msg.Envelope.Subject),
	}, nil
}

func senderAddress(address *imap.Address) string {
	if address.HostName == "" {
		return address.MailboxName
	}
	return address.MailboxName + "@" + address.HostName
}

// sentDate returns the Date header as written by the sender. The envelope date
// is only used when the header section is missing.
func sentDate(msg *imap.Message) string {
	if literal := msg.GetBody(headerSection); literal != nil {
		header, err := textproto.ReadHeader(bufio.NewReader(literal))
		if err == nil {
			if date := header.Get("Date"); date != "" {
				return strings.TrimSpace(date)
			}
		}
	}
	if msg.Envelope != nil && !msg.Envelope.Date.IsZero() {
		return msg.Envelope.Date.Format(time.RFC1123Z)
	}
	return ""
}

// body is the text of BodyPart, without the trailing line breaks.
func body(msg *imap.Message) string {
	literal := msg.GetBody(bodySection)
	if literal == nil {
		return ""
	}
	content, err := io.ReadAll(literal)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(content), "\r\n")
}
