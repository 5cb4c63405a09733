package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/creativeprojects/mailpoll/lib"
	"github.com/creativeprojects/mailpoll/mailbox"
	"github.com/creativeprojects/mailpoll/remote"
	"github.com/emersion/go-imap"
	"golang.org/x/time/rate"
)

// DefaultBatchSize is the number of messages requested by one FETCH command.
const DefaultBatchSize = 50

// Mailbox is the part of a session used by the synchronizer.
type Mailbox interface {
	// MessageCount returns the current number of messages in the selected folder.
	MessageCount() (uint32, error)
	// Fetch runs a FETCH, or a UID FETCH when byUID is true.
	Fetch(set *imap.SeqSet, byUID bool, items []imap.FetchItem) ([]*imap.Message, error)
	// SearchSince returns the UIDs of the messages received on or after the day.
	SearchSince(since time.Time) ([]uint32, error)
	// Overview returns UID and flags of all messages from fromUID to the end of the folder.
	Overview(fromUID uint32) ([]*imap.Message, error)
}

var _ Mailbox = (*remote.Session)(nil)

// Synchronizer maps the messages of a mailbox for one of the three retrieval
// strategies. It keeps no state between calls.
type Synchronizer struct {
	log       lib.Logger
	batchSize int
	limiter   *rate.Limiter
	progress  func(done, total int)
}

type Option func(*Synchronizer)

func WithLogger(logger lib.Logger) Option {
	return func(s *Synchronizer) {
		s.log = lib.OrNoLog(logger)
	}
}

// WithBatchSize sets the number of messages requested per FETCH command.
// Values below 1 keep the default.
func WithBatchSize(size int) Option {
	return func(s *Synchronizer) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithRateLimit limits the number of FETCH commands sent per second.
// A zero or negative limit disables throttling.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *Synchronizer) {
		if limit <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithProgress registers a callback receiving the number of messages processed after each batch.
func WithProgress(progress func(done, total int)) Option {
	return func(s *Synchronizer) {
		s.progress = progress
	}
}

func New(opts ...Option) *Synchronizer {
	s := &Synchronizer{
		log:       &lib.NoLog{},
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAll maps every message of the folder, by ascending sequence number.
// An empty folder gives an empty result which is not a no-op.
func (s *Synchronizer) FetchAll(ctx context.Context, mbox Mailbox) (*mailbox.Result, error) {
	count, err := mbox.MessageCount()
	if err != nil {
		return nil, fmt.Errorf("cannot read message count: %w", err)
	}
	s.log.Printf("fetching all %d messages", count)

	result := mailbox.NewResult(int(count), 0)
	if count == 0 {
		return result, nil
	}
	ids := make([]uint32, count)
	for i := range ids {
		ids[i] = uint32(i + 1)
	}
	err = s.mapIDs(ctx, mbox, ids, false, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FetchSince maps the messages received on or after sinceDate. An empty date is
// a no-op: the server is not contacted.
func (s *Synchronizer) FetchSince(ctx context.Context, mbox Mailbox, sinceDate string) (*mailbox.Result, error) {
	if sinceDate == "" {
		return mailbox.NoOperation(mailbox.NoOpMissingParameter, 0), nil
	}
	since, err := ParseDate(sinceDate)
	if err != nil {
		return nil, err
	}

	uids, err := mbox.SearchSince(since)
	if err != nil {
		return nil, fmt.Errorf("search since %s failed: %w", since.Format(imap.DateLayout), err)
	}
	s.log.Printf("found %d messages since %s", len(uids), since.Format(imap.DateLayout))
	if len(uids) == 0 {
		return mailbox.NoOperation(mailbox.NoOpNothingFound, 0), nil
	}

	result := mailbox.NewResult(len(uids), 0)
	err = s.mapIDs(ctx, mbox, uids, true, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FetchSinceCheckpoint maps the messages with a UID greater or equal to lastUID.
// The message at lastUID is delivered again. The checkpoint of the result is the
// highest UID seen, and never lower than lastUID.
func (s *Synchronizer) FetchSinceCheckpoint(ctx context.Context, mbox Mailbox, lastUID uint32) (*mailbox.Result, error) {
	if lastUID == 0 {
		return mailbox.NoOperation(mailbox.NoOpMissingParameter, 0), nil
	}

	overview, err := mbox.Overview(lastUID)
	if err != nil {
		return nil, fmt.Errorf("overview from UID %d failed: %w", lastUID, err)
	}

	uids := make([]uint32, 0, len(overview))
	for _, entry := range overview {
		// "n:*" always contains the last message, even when its UID is lower than n
		if entry == nil || entry.Uid < lastUID {
			continue
		}
		uids = append(uids, entry.Uid)
	}
	s.log.Printf("found %d messages from UID %d", len(uids), lastUID)
	if len(uids) == 0 {
		return mailbox.NoOperation(mailbox.NoOpNothingFound, lastUID), nil
	}

	result := mailbox.NewResult(len(uids), lastUID)
	for _, uid := range uids {
		result.Observe(uid)
	}
	err = s.mapIDs(ctx, mbox, uids, true, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// mapIDs fetches the messages one batch at a time and adds them to the result in the order of ids.
func (s *Synchronizer) mapIDs(ctx context.Context, mbox Mailbox, ids []uint32, byUID bool, result *mailbox.Result) error {
	items := fetchItems()
	done := 0
	for start := 0; start < len(ids); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + s.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		set := new(imap.SeqSet)
		set.AddNum(batch...)
		messages, err := mbox.Fetch(set, byUID, items)
		if err != nil {
			return fmt.Errorf("cannot fetch messages %s: %w", set, err)
		}

		received := make(map[uint32]*imap.Message, len(messages))
		for _, msg := range messages {
			if msg == nil {
				continue
			}
			if byUID {
				received[msg.Uid] = msg
			} else {
				received[msg.SeqNum] = msg
			}
		}

		for _, id := range batch {
			msg, found := received[id]
			if !found {
				result.Fail(id, &MappingError{ID: id, Reason: "message not returned by the server"})
				continue
			}
			mapped, err := mapMessage(msg)
			if err != nil {
				s.log.Printf("message %d: %s", id, err)
				faultID := id
				if msg.Uid > 0 {
					faultID = msg.Uid
				}
				result.Fail(faultID, err)
				continue
			}
			result.Add(mapped)
		}

		done += len(batch)
		if s.progress != nil {
			s.progress(done, len(ids))
		}
	}
	return nil
}
