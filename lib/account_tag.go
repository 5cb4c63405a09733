package lib

import (
	"crypto/sha256"
	"encoding/hex"
)

// AccountTag identifies a mailbox account (server address + username) without
// exposing the credentials. It is used as a storage key for checkpoints.
func AccountTag(address, username string) string {
	hasher := sha256.New()
	hasher.Write([]byte(username))
	hasher.Write([]byte(":"))
	hasher.Write([]byte(address))
	hasher.Write([]byte("\n"))
	return hex.EncodeToString(hasher.Sum(nil))
}

// ShortTag is the abbreviated form of a tag used for display.
func ShortTag(tag string) string {
	if len(tag) <= 16 {
		return tag
	}
	return tag[0:16]
}
