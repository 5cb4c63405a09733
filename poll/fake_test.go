package poll

import (
	"bytes"
	"strings"
	"time"

	"github.com/emersion/go-imap"
)

type fakeMessage struct {
	uid     uint32
	subject string
	from    []*imap.Address
	date    string
	flags   []string
	body    string
}

// fakeMailbox records the commands sent by the synchronizer
type fakeMailbox struct {
	messages []fakeMessage
	// UIDs returned by SearchSince
	found []uint32
	// UIDs returned by Overview in this order, instead of the messages of the folder
	overview []uint32
	// UIDs left out of FETCH responses
	missing map[uint32]bool

	countErr    error
	searchErr   error
	overviewErr error
	fetchErr    error

	searches  []time.Time
	overviews []uint32
	fetches   []string
}

func (f *fakeMailbox) MessageCount() (uint32, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return uint32(len(f.messages)), nil
}

func (f *fakeMailbox) Fetch(set *imap.SeqSet, byUID bool, items []imap.FetchItem) ([]*imap.Message, error) {
	f.fetches = append(f.fetches, set.String())
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	messages := make([]*imap.Message, 0)
	for i, message := range f.messages {
		seqNum := uint32(i + 1)
		id := seqNum
		if byUID {
			id = message.uid
		}
		if !set.Contains(id) || f.missing[message.uid] {
			continue
		}
		messages = append(messages, message.toIMAP(seqNum, items))
	}
	return messages, nil
}

func (f *fakeMailbox) SearchSince(since time.Time) ([]uint32, error) {
	f.searches = append(f.searches, since)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.found, nil
}

func (f *fakeMailbox) Overview(fromUID uint32) ([]*imap.Message, error) {
	f.overviews = append(f.overviews, fromUID)
	if f.overviewErr != nil {
		return nil, f.overviewErr
	}
	overview := make([]*imap.Message, 0)
	if f.overview != nil {
		for _, uid := range f.overview {
			overview = append(overview, &imap.Message{Uid: uid})
		}
		return overview, nil
	}
	for i, message := range f.messages {
		if message.uid >= fromUID {
			overview = append(overview, &imap.Message{SeqNum: uint32(i + 1), Uid: message.uid, Flags: message.flags})
		}
	}
	if len(overview) == 0 && len(f.messages) > 0 {
		// like a real server: "n:*" contains the last message
		last := len(f.messages) - 1
		overview = append(overview, &imap.Message{SeqNum: uint32(last + 1), Uid: f.messages[last].uid})
	}
	return overview, nil
}

func (m fakeMessage) toIMAP(seqNum uint32, items []imap.FetchItem) *imap.Message {
	msg := imap.NewMessage(seqNum, items)
	msg.Uid = m.uid
	msg.Flags = m.flags
	msg.Envelope = &imap.Envelope{
		Subject: m.subject,
		From:    m.from,
	}
	header := ""
	if m.date != "" {
		header = "Date: " + m.date + "\r\n"
	}
	header += "Subject: " + m.subject + "\r\n\r\n"
	msg.Body = map[*imap.BodySectionName]imap.Literal{
		{BodyPartName: imap.BodyPartName{Specifier: imap.HeaderSpecifier}}: bytes.NewBufferString(header),
		{BodyPartName: imap.BodyPartName{Path: []int{BodyPart}}}:            bytes.NewBufferString(m.body),
	}
	return msg
}

func sender(name, address string) []*imap.Address {
	local, host, _ := strings.Cut(address, "@")
	return []*imap.Address{{PersonalName: name, MailboxName: local, HostName: host}}
}

func numbered(uids ...uint32) []fakeMessage {
	messages := make([]fakeMessage, len(uids))
	for i, uid := range uids {
		messages[i] = fakeMessage{
			uid:     uid,
			subject: "message",
			from:    sender("Sender", "sender@example.com"),
			date:    "Fri, 10 Mar 2023 09:15:00 +0100",
			body:    "body",
		}
	}
	return messages
}
