package lib

import "github.com/emersion/go-imap"

// HasFlag returns true when flag is present in flags (IMAP flags are case-insensitive).
func HasFlag(flags []string, flag string) bool {
	canonical := imap.CanonicalFlag(flag)
	for _, f := range flags {
		if imap.CanonicalFlag(f) == canonical {
			return true
		}
	}
	return false
}

// IsUnread returns true when the message has not been seen yet.
func IsUnread(flags []string) bool {
	return !HasFlag(flags, imap.SeenFlag)
}
