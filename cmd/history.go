package cmd

import (
	"strconv"

	"github.com/creativeprojects/mailpoll/lib"
	"github.com/creativeprojects/mailpoll/mailbox"
	"github.com/creativeprojects/mailpoll/store"
	"github.com/creativeprojects/mailpoll/term"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <account>",
	Short: "Display the polls recorded for the account",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	account, err := loadAccount(args[0])
	if err != nil {
		return err
	}
	remoteConfig := account.RemoteConfig(nil)
	tag := remoteConfig.AccountTag()
	term.Infof("%s (account %s):", remoteConfig.GetFolder(), lib.ShortTag(tag))

	if !store.Exists(storeFile()) {
		term.Warn("No poll recorded for this account")
		return nil
	}
	checkpoints, err := store.Open(storeFile())
	if err != nil {
		return err
	}
	defer checkpoints.Close()

	// the history is keyed without connecting to the server
	history, err := checkpoints.History(tag, remoteConfig.GetFolder())
	if err != nil {
		return err
	}
	if len(history.Entries) == 0 {
		term.Warn("No poll recorded for this account")
		return nil
	}
	displayHistory(history)
	return nil
}

func displayHistory(history *mailbox.History) {
	rows := make([][]string, 0, len(history.Entries))
	for _, entry := range history.Entries {
		rows = append(rows, []string{
			entry.Date.Format(dateFormat),
			entry.Mode,
			strconv.Itoa(entry.Messages),
			strconv.Itoa(entry.Faults),
			strconv.FormatUint(uint64(entry.Checkpoint), 10),
			entry.NoOp,
		})
	}
	term.Table([]string{"Date", "Mode", "Messages", "Errors", "Checkpoint", "No-op"}, rows)
}
