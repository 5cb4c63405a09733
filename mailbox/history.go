package mailbox

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// MaxHistoryEntries is the number of poll records kept per folder.
const MaxHistoryEntries = 100

type History struct {
	Entries []HistoryEntry
}

type HistoryEntry struct {
	Date       time.Time
	Mode       string
	Messages   int
	Faults     int
	Checkpoint uint32
	NoOp       string `json:",omitempty"`
}

// NewHistoryEntry summarizes a poll result.
func NewHistoryEntry(date time.Time, mode string, result *Result) HistoryEntry {
	entry := HistoryEntry{
		Date: date,
		Mode: mode,
	}
	if result == nil {
		return entry
	}
	entry.Messages = len(result.Messages)
	entry.Faults = len(result.Faults)
	entry.Checkpoint = result.Checkpoint
	if result.IsNoOp() {
		entry.NoOp = result.NoOp.String()
	}
	return entry
}

// Add keeps the entries sorted by date and drops the oldest ones above MaxHistoryEntries.
func (h *History) Add(entries ...HistoryEntry) {
	h.Entries = append(h.Entries, entries...)
	sort.SliceStable(h.Entries, func(i, j int) bool {
		return h.Entries[i].Date.Before(h.Entries[j].Date)
	})
	if len(h.Entries) > MaxHistoryEntries {
		h.Entries = h.Entries[len(h.Entries)-MaxHistoryEntries:]
	}
}

// Last returns the most recent entry, or nil.
func (h *History) Last() *HistoryEntry {
	if h == nil || len(h.Entries) == 0 {
		return nil
	}
	return &h.Entries[len(h.Entries)-1]
}

func DecodeHistory(data []byte) (*History, error) {
	history := &History{}
	if len(data) == 0 {
		return history, nil
	}
	err := json.Unmarshal(data, history)
	if err != nil {
		return nil, fmt.Errorf("error reading history: %w", err)
	}
	sort.SliceStable(history.Entries, func(i, j int) bool {
		return history.Entries[i].Date.Before(history.Entries[j].Date)
	})
	return history, nil
}

func EncodeHistory(history *History) ([]byte, error) {
	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("cannot encode history: %w", err)
	}
	return data, nil
}
