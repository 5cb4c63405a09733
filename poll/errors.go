package poll

import "fmt"

// MappingError is recorded as a fault when one message cannot be turned into a
// mailbox.Message. The other messages of the poll are not affected.
type MappingError struct {
	ID     uint32
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("cannot map message %d: %s", e.ID, e.Reason)
}

// ParameterError is returned when the since-date cannot be parsed.
type ParameterError struct {
	Name  string
	Value string
	err   error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Name, e.Value, e.err)
}

func (e *ParameterError) Unwrap() error {
	return e.err
}
