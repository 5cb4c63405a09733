package mailbox

// NoTicket is the ticket id of a message whose subject carries no "#<digits>" token.
const NoTicket = "n/a"

// Message is one retrieved email, normalized. Fields missing from the message
// headers are left empty.
type Message struct {
	// The message unique identifier.
	UID uint32
	// The decoded Subject header.
	Subject string
	// Display name of the first sender.
	SenderName string
	// Address of the first sender, local part and host joined with "@".
	SenderAddress string
	// The Date header as sent, with its offset. It is not reparsed.
	SentDate string
	// Content of the fixed body part.
	Body string
	// The message had no \Seen flag when it was fetched.
	Unread bool
	// First "#<digits>" token of the subject, or NoTicket.
	TicketID string
}

// HasTicket returns true when a ticket id was found in the subject.
func (m Message) HasTicket() bool {
	return m.TicketID != "" && m.TicketID != NoTicket
}
