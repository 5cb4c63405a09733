package mailbox

import "time"

type Status struct {
	// The mailbox name.
	Name string
	// The number of messages in this mailbox.
	Messages uint32
	// The number of unread messages.
	Unseen uint32
	// Together with a UID, it is a unique identifier for a message.
	// Must be greater than or equal to 1.
	UidValidity uint32
	// The next UID the server will assign.
	UidNext uint32
}

// Checkpoint is the resume point of incremental polling. The caller persists it
// between poll cycles.
type Checkpoint struct {
	UID         uint32
	UidValidity uint32
	Updated     time.Time
}

// IsZero is true for a checkpoint that was never saved.
func (c Checkpoint) IsZero() bool {
	return c.UID == 0
}

// ValidFor returns true when the checkpoint was taken on a mailbox with the same
// UIDVALIDITY. UIDs from another validity period cannot be compared.
func (c Checkpoint) ValidFor(uidValidity uint32) bool {
	return c.UidValidity == 0 || uidValidity == 0 || c.UidValidity == uidValidity
}
