package mailbox

import "fmt"

// NoOpReason explains why a poll did not do anything. It is not an error.
type NoOpReason int

const (
	// NoOpNone means the poll ran, even if it returned no message.
	NoOpNone NoOpReason = iota
	// NoOpMissingParameter means the date or the checkpoint was not supplied: nothing was sent to the server.
	NoOpMissingParameter
	// NoOpNothingFound means the search or the overview came back empty.
	NoOpNothingFound
)

func (r NoOpReason) String() string {
	switch r {
	case NoOpNone:
		return "none"
	case NoOpMissingParameter:
		return "missing parameter"
	case NoOpNothingFound:
		return "nothing found"
	default:
		return fmt.Sprintf("NoOpReason(%d)", int(r))
	}
}

// Fault records a message that could not be mapped. The rest of the batch is unaffected.
type Fault struct {
	// UID of the message, or its sequence number when polling the whole mailbox
	// and the UID could not be read.
	ID  uint32
	Err error
}

func (f Fault) Error() string {
	return fmt.Sprintf("message %d: %s", f.ID, f.Err)
}

func (f Fault) Unwrap() error {
	return f.Err
}

// Result of one poll cycle. A new value is built for every poll.
type Result struct {
	// Messages in discovery order.
	Messages []Message
	// Number of messages the poll was asked to map: the mailbox size when fetching
	// everything, the number of search or overview hits otherwise.
	Count int
	// Messages that could not be mapped.
	Faults []Fault
	// Highest UID observed. For an incremental poll it starts at the previous
	// checkpoint, so it never goes backwards.
	Checkpoint uint32
	NoOp       NoOpReason
}

// NewResult returns an empty result ready to be filled.
func NewResult(count int, checkpoint uint32) *Result {
	return &Result{
		Messages:   make([]Message, 0, count),
		Count:      count,
		Faults:     make([]Fault, 0),
		Checkpoint: checkpoint,
	}
}

// NoOperation returns a result explaining why nothing was done.
func NoOperation(reason NoOpReason, checkpoint uint32) *Result {
	result := NewResult(0, checkpoint)
	result.NoOp = reason
	return result
}

// IsNoOp is true when the poll had nothing to do.
func (r *Result) IsNoOp() bool {
	return r.NoOp != NoOpNone
}

// Observe moves the checkpoint forward when uid is higher.
func (r *Result) Observe(uid uint32) {
	if uid > r.Checkpoint {
		r.Checkpoint = uid
	}
}

// Add appends a mapped message.
func (r *Result) Add(msg Message) {
	r.Messages = append(r.Messages, msg)
	r.Observe(msg.UID)
}

// Fail records a message which could not be mapped.
func (r *Result) Fail(id uint32, err error) {
	r.Faults = append(r.Faults, Fault{ID: id, Err: err})
}
