package mdir

import (
	"github.com/creativeprojects/mailpoll/mailbox"
	"github.com/emersion/go-maildir"
)

func toFlags(msg mailbox.Message) []maildir.Flag {
	flags := make([]maildir.Flag, 0, 2)
	if !msg.Unread {
		flags = append(flags, maildir.FlagSeen)
	}
	if msg.HasTicket() {
		flags = append(flags, maildir.FlagFlagged)
	}
	return flags
}

func hasFlag(flags []maildir.Flag, flag maildir.Flag) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
