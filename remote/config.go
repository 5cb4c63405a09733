package remote

import (
	"net"
	"strconv"
	"time"

	"github.com/creativeprojects/mailpoll/lib"
)

const (
	DefaultFolder  = "INBOX"
	defaultPort    = 143
	defaultTLSPort = 993
)

// Config holds everything needed to open a session on one mailbox folder.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// Folder selected when the session opens. Defaults to INBOX.
	Folder              string
	NoTLS               bool
	StartTLS            bool
	SkipTLSVerification bool
	// Compress enables COMPRESS=DEFLATE when the server supports it.
	Compress bool
	// Timeout applies to dialing and to each command. Zero means no timeout.
	Timeout     time.Duration
	DebugLogger lib.Logger
}

// Validate checks the fields required before contacting the server.
func (c Config) Validate() error {
	if c.Host == "" {
		return &ConfigurationError{Field: "host"}
	}
	if c.Username == "" {
		return &ConfigurationError{Field: "username"}
	}
	if c.Password == "" {
		return &ConfigurationError{Field: "password"}
	}
	return nil
}

// Address returns host:port. A configured port replaces the one carried by the
// host. When there is neither, the default IMAP port for the transport is used.
func (c Config) Address() string {
	if c.Port > 0 {
		return net.JoinHostPort(c.ServerName(), strconv.Itoa(c.Port))
	}
	if _, _, err := net.SplitHostPort(c.Host); err == nil {
		return c.Host
	}
	port := defaultTLSPort
	if c.NoTLS || c.StartTLS {
		port = defaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// ServerName is the host name used for TLS verification.
func (c Config) ServerName() string {
	if host, _, err := net.SplitHostPort(c.Host); err == nil {
		return host
	}
	return c.Host
}

// GetFolder returns the folder name, defaulting to INBOX.
func (c Config) GetFolder() string {
	if c.Folder == "" {
		return DefaultFolder
	}
	return c.Folder
}

// AccountTag identifies the account and folder without the credentials.
func (c Config) AccountTag() string {
	return lib.AccountTag(c.Address(), c.Username)
}
