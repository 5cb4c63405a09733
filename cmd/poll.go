package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/creativeprojects/mailpoll/cfg"
	"github.com/creativeprojects/mailpoll/lib"
	"github.com/creativeprojects/mailpoll/mailbox"
	"github.com/creativeprojects/mailpoll/mdir"
	"github.com/creativeprojects/mailpoll/poll"
	"github.com/creativeprojects/mailpoll/remote"
	"github.com/creativeprojects/mailpoll/store"
	"github.com/creativeprojects/mailpoll/term"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

type pollFlags struct {
	maildir string
	batch   int
	rate    float64
	fromUID uint32
}

var pollFlagValues pollFlags

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Retrieve messages from an account",
}

var pollAllCmd = &cobra.Command{
	Use:   "all <account>",
	Short: "Retrieve all the messages of the folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPoll(cmd.Context(), args[0], poll.Request{Mode: poll.ModeAll})
	},
}

var pollSinceCmd = &cobra.Command{
	Use:   "since <account> <date>",
	Short: "Retrieve the messages received since a date (2-Jan-2006 or 2006-01-02)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPoll(cmd.Context(), args[0], poll.Request{Mode: poll.ModeSince, SinceDate: args[1]})
	},
}

var pollCheckpointCmd = &cobra.Command{
	Use:   "checkpoint <account>",
	Short: "Retrieve the messages received since the last checkpoint",
	Long: "\nRetrieve the messages received since the last checkpoint. The message at the checkpoint is retrieved again." +
		"\nThe checkpoint is saved after each poll, and starts again from UID 1 when the folder UIDVALIDITY changes.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPoll(cmd.Context(), args[0], poll.Request{Mode: poll.ModeCheckpoint})
	},
}

func init() {
	flag := pollCmd.PersistentFlags()
	flag.StringVar(&pollFlagValues.maildir, "maildir", "", "export the messages to this maildir directory")
	flag.IntVar(&pollFlagValues.batch, "batch", 0, "number of messages per FETCH command (default from configuration, or "+strconv.Itoa(poll.DefaultBatchSize)+")")
	flag.Float64Var(&pollFlagValues.rate, "rate", 0, "maximum number of FETCH commands per second (default unlimited)")
	pollCheckpointCmd.Flags().Uint32Var(&pollFlagValues.fromUID, "from-uid", 0, "start from this UID instead of the saved checkpoint")

	pollCmd.AddCommand(pollAllCmd, pollSinceCmd, pollCheckpointCmd)
	rootCmd.AddCommand(pollCmd)
}

func runPoll(ctx context.Context, accountName string, request poll.Request) error {
	account, err := loadAccount(accountName)
	if err != nil {
		return err
	}
	if pollFlagValues.maildir != "" {
		account.Maildir = pollFlagValues.maildir
	}
	if pollFlagValues.batch > 0 {
		account.BatchSize = pollFlagValues.batch
	}
	if pollFlagValues.rate > 0 {
		account.Rate = pollFlagValues.rate
	}

	progress := newProgresser("Fetching messages")
	report, err := pollAccount(ctx, pollOptions{
		account:   account,
		storeFile: storeFile(),
		request:   request,
		fromUID:   pollFlagValues.fromUID,
		logger:    debugLogger(),
		progress:  progress.Update,
	})
	progress.Stop()
	if err != nil {
		return err
	}
	displayReport(report)
	return nil
}

type pollOptions struct {
	account   cfg.Account
	storeFile string
	request   poll.Request
	// fromUID overrides the saved checkpoint
	fromUID  uint32
	logger   lib.Logger
	progress func(done, total int)
}

type pollReport struct {
	result *mailbox.Result
	mode   poll.Mode
	folder string
	tag    string
	// start of the checkpoint poll
	lastUID uint32
	// the saved checkpoint was from another UIDVALIDITY
	reset    bool
	exported int
}

// pollAccount runs one poll cycle and records it: checkpoint, history and optional maildir export.
func pollAccount(ctx context.Context, opts pollOptions) (*pollReport, error) {
	checkpoints, err := store.Open(opts.storeFile)
	if err != nil {
		return nil, err
	}
	defer checkpoints.Close()
	err = checkpoints.Init()
	if err != nil {
		return nil, err
	}

	syncOptions := []poll.Option{
		poll.WithLogger(opts.logger),
		poll.WithBatchSize(opts.account.BatchSize),
		poll.WithProgress(opts.progress),
	}
	if opts.account.Rate > 0 {
		syncOptions = append(syncOptions, poll.WithRateLimit(rate.Limit(opts.account.Rate), 1))
	}
	sync := poll.New(syncOptions...)

	report := &pollReport{
		mode: opts.request.Mode,
	}
	request := opts.request
	var uidValidity uint32

	err = remote.WithSession(opts.account.RemoteConfig(opts.logger), func(session *remote.Session) error {
		report.folder = session.Folder()
		report.tag = session.AccountTag()
		uidValidity = session.UIDValidity()

		if request.Mode == poll.ModeCheckpoint {
			stored, err := checkpoints.Checkpoint(report.tag, report.folder)
			if err != nil && !errors.Is(err, lib.ErrCheckpointNotFound) {
				return err
			}
			request.LastUID, report.reset = startingUID(stored, uidValidity, opts.fromUID)
			report.lastUID = request.LastUID
		}

		result, err := sync.Run(ctx, session, request)
		if err != nil {
			return err
		}
		report.result = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	if request.Mode == poll.ModeCheckpoint && report.result.Checkpoint > 0 {
		err = checkpoints.SaveCheckpoint(report.tag, report.folder, mailbox.Checkpoint{
			UID:         report.result.Checkpoint,
			UidValidity: uidValidity,
			Updated:     time.Now(),
		})
		if err != nil {
			return report, fmt.Errorf("cannot save checkpoint: %w", err)
		}
	}

	err = checkpoints.AddHistory(report.tag, report.folder, mailbox.NewHistoryEntry(time.Now(), string(request.Mode), report.result))
	if err != nil {
		return report, fmt.Errorf("cannot save history: %w", err)
	}

	if opts.account.Maildir != "" && len(report.result.Messages) > 0 {
		exporter, err := mdir.NewWithLogger(opts.account.Maildir, opts.logger)
		if err != nil {
			return report, err
		}
		report.exported, err = exporter.Export(report.folder, report.result.Messages)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// startingUID returns the lower bound of a checkpoint poll. The poll starts
// from the first UID when nothing was saved, or when the saved checkpoint
// belongs to another UIDVALIDITY.
func startingUID(stored mailbox.Checkpoint, uidValidity, fromUID uint32) (uint32, bool) {
	if fromUID > 0 {
		return fromUID, false
	}
	if stored.IsZero() {
		return 1, false
	}
	if !stored.ValidFor(uidValidity) {
		return 1, true
	}
	return stored.UID, false
}

func displayReport(report *pollReport) {
	result := report.result
	if report.reset {
		term.Warnf("UIDVALIDITY of folder %q has changed: all messages are fetched again", report.folder)
	}
	if result.IsNoOp() {
		term.Infof("%s: nothing to do (%s)", report.folder, result.NoOp)
		return
	}

	rows := make([][]string, 0, len(result.Messages))
	for _, msg := range result.Messages {
		unread := ""
		if msg.Unread {
			unread = "*"
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(msg.UID), 10),
			unread,
			msg.SentDate,
			sender(msg),
			msg.TicketID,
			msg.Subject,
		})
	}
	if len(rows) > 0 {
		term.Table([]string{"UID", "New", "Date", "From", "Ticket", "Subject"}, rows)
	}

	for _, fault := range result.Faults {
		term.Warn(fault.Error())
	}
	term.Infof("%s: %d messages retrieved out of %d, %d errors", report.folder, len(result.Messages), result.Count, len(result.Faults))
	if report.mode == poll.ModeCheckpoint {
		term.Infof("checkpoint: UID %d (started from UID %d)", result.Checkpoint, report.lastUID)
	}
	if report.exported > 0 {
		term.Infof("%d messages exported to maildir", report.exported)
	}
}

func sender(msg mailbox.Message) string {
	if msg.SenderName == "" {
		return msg.SenderAddress
	}
	return fmt.Sprintf("%s <%s>", msg.SenderName, msg.SenderAddress)
}
