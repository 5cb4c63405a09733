package cmd

import (
	"errors"
	"strconv"

	"github.com/creativeprojects/mailpoll/lib"
	"github.com/creativeprojects/mailpoll/mailbox"
	"github.com/creativeprojects/mailpoll/remote"
	"github.com/creativeprojects/mailpoll/store"
	"github.com/creativeprojects/mailpoll/term"
	"github.com/spf13/cobra"
)

const dateFormat = "2006-01-02 15:04:05 MST"

var statusCmd = &cobra.Command{
	Use:   "status <account>",
	Short: "Display the folder status and the saved checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type accountStatus struct {
	address    string
	tag        string
	folder     string
	status     mailbox.Status
	count      uint32
	uidPlus    bool
	compressed bool
	checkpoint mailbox.Checkpoint
	lastPoll   *mailbox.HistoryEntry
}

func runStatus(cmd *cobra.Command, args []string) error {
	account, err := loadAccount(args[0])
	if err != nil {
		return err
	}
	status, err := readStatus(account.RemoteConfig(debugLogger()), storeFile())
	if err != nil {
		return err
	}
	displayStatus(status)
	return nil
}

func readStatus(remoteConfig remote.Config, fileName string) (*accountStatus, error) {
	status := &accountStatus{}
	err := remote.WithSession(remoteConfig, func(session *remote.Session) error {
		count, err := session.MessageCount()
		if err != nil {
			return err
		}
		status.address = session.Address()
		status.tag = session.AccountTag()
		status.folder = session.Folder()
		status.status = session.Status()
		status.count = count
		status.uidPlus = session.SupportsUIDPlus()
		status.compressed = session.Compressed()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// nothing was polled yet
	if !store.Exists(fileName) {
		return status, nil
	}
	checkpoints, err := store.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer checkpoints.Close()

	status.checkpoint, err = checkpoints.Checkpoint(status.tag, status.folder)
	if err != nil && !errors.Is(err, lib.ErrCheckpointNotFound) {
		return nil, err
	}
	history, err := checkpoints.History(status.tag, status.folder)
	if err != nil {
		return nil, err
	}
	status.lastPoll = history.Last()
	return status, nil
}

func displayStatus(status *accountStatus) {
	checkpoint := "none"
	if !status.checkpoint.IsZero() {
		checkpoint = strconv.FormatUint(uint64(status.checkpoint.UID), 10) + " (" + status.checkpoint.Updated.Format(dateFormat) + ")"
		if !status.checkpoint.ValidFor(status.status.UidValidity) {
			checkpoint += " - UIDVALIDITY has changed"
		}
	}
	lastPoll := "never"
	if status.lastPoll != nil {
		lastPoll = status.lastPoll.Date.Format(dateFormat) + " (" + status.lastPoll.Mode + ")"
	}
	term.Table([]string{"Server", "Account", "Folder", "Messages", "UIDVALIDITY", "UIDNEXT", "UIDPLUS", "Compression", "Checkpoint", "Last poll"}, [][]string{{
		status.address,
		lib.ShortTag(status.tag),
		status.folder,
		strconv.FormatUint(uint64(status.count), 10),
		strconv.FormatUint(uint64(status.status.UidValidity), 10),
		strconv.FormatUint(uint64(status.status.UidNext), 10),
		yesNo(status.uidPlus),
		yesNo(status.compressed),
		checkpoint,
		lastPoll,
	}})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
