package poll

import (
	"context"
	"fmt"

	"github.com/creativeprojects/mailpoll/mailbox"
	"github.com/creativeprojects/mailpoll/remote"
)

type Mode string

const (
	ModeAll        Mode = "all"
	ModeSince      Mode = "since"
	ModeCheckpoint Mode = "checkpoint"
)

// Request names the strategy of one poll cycle and its parameter.
type Request struct {
	Mode Mode
	// SinceDate is used by ModeSince
	SinceDate string
	// LastUID is used by ModeCheckpoint
	LastUID uint32
}

// Run executes the single strategy named by the request.
func (s *Synchronizer) Run(ctx context.Context, mbox Mailbox, req Request) (*mailbox.Result, error) {
	switch req.Mode {
	case ModeAll:
		return s.FetchAll(ctx, mbox)
	case ModeSince:
		return s.FetchSince(ctx, mbox, req.SinceDate)
	case ModeCheckpoint:
		return s.FetchSinceCheckpoint(ctx, mbox, req.LastUID)
	default:
		return nil, fmt.Errorf("unknown poll mode %q", req.Mode)
	}
}

// Cycle opens a session, runs one strategy and closes the session.
// A nil synchronizer uses the default options.
func Cycle(ctx context.Context, cfg remote.Config, req Request, sync *Synchronizer) (*mailbox.Result, error) {
	if sync == nil {
		sync = New(WithLogger(cfg.DebugLogger))
	}
	var result *mailbox.Result
	err := remote.WithSession(cfg, func(session *remote.Session) error {
		var err error
		result, err = sync.Run(ctx, session, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
