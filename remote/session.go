package remote

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/creativeprojects/mailpoll/lib"
	"github.com/creativeprojects/mailpoll/mailbox"
	"github.com/emersion/go-imap"
	compress "github.com/emersion/go-imap-compress"
	uidplus "github.com/emersion/go-imap-uidplus"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/charset"
)

func init() {
	// encoded words of subjects and sender names can use any charset
	imap.CharsetReader = charset.Reader
}

// Session is one live connection with the folder selected in read-only mode.
// It is not safe for concurrent use.
type Session struct {
	client     *client.Client
	log        lib.Logger
	address    string
	username   string
	folder     string
	selected   *imap.MailboxStatus
	uidPlus    bool
	compressed bool
	closed     bool
}

// Open connects, logs in and selects the configured folder. A missing host,
// username or password returns a *ConfigurationError without any network
// activity; any other failure returns a *ConnectionError.
func Open(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := lib.OrNoLog(cfg.DebugLogger)
	address := cfg.Address()
	folder := cfg.GetFolder()

	log.Printf("Connecting to server %s...", address)
	imapClient, err := dial(cfg, address)
	if err != nil {
		return nil, newConnectionError(address, err)
	}
	log.Print("Connected")
	if cfg.Timeout > 0 {
		imapClient.Timeout = cfg.Timeout
	}

	// logs out of the half-open connection and reports everything that went wrong
	fail := func(err error) (*Session, error) {
		failures := []error{err}
		if logoutErr := imapClient.Logout(); logoutErr != nil {
			failures = append(failures, fmt.Errorf("logout: %w", logoutErr))
		}
		return nil, newConnectionError(address, failures...)
	}

	if err := imapClient.Login(cfg.Username, cfg.Password); err != nil {
		return fail(fmt.Errorf("authentication failure: %w", err))
	}
	log.Printf("Logged in as %s", cfg.Username)

	if caps, err := imapClient.Capability(); err == nil {
		log.Printf("capabilities: %+v", caps)
	}

	uidPlus, err := uidplus.NewClient(imapClient).SupportUidPlus()
	if err != nil || !uidPlus {
		log.Print("IMAP server does NOT support UIDPLUS extension")
		uidPlus = false
	}

	compressed := false
	if cfg.Compress {
		compressed = enableCompression(imapClient, log)
	}

	status, err := imapClient.Select(folder, true)
	if err != nil {
		return fail(fmt.Errorf("cannot select folder %q: %w", folder, err))
	}
	log.Printf("Selected folder %q: %d messages, uidvalidity=%d", folder, status.Messages, status.UidValidity)

	return &Session{
		client:     imapClient,
		log:        log,
		address:    address,
		username:   cfg.Username,
		folder:     folder,
		selected:   status,
		uidPlus:    uidPlus,
		compressed: compressed,
	}, nil
}

// WithSession opens a session, hands it to fn, and releases it on every exit path.
func WithSession(cfg Config, fn func(session *Session) error) error {
	session, err := Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			session.log.Printf("error closing session: %s", err)
		}
	}()
	return fn(session)
}

func dial(cfg Config, address string) (*client.Client, error) {
	dialer := &net.Dialer{
		Timeout: cfg.Timeout,
	}
	tlsConfig := &tls.Config{
		ServerName:         cfg.ServerName(),
		InsecureSkipVerify: cfg.SkipTLSVerification,
	}

	if !cfg.NoTLS && !cfg.StartTLS {
		return client.DialWithDialerTLS(dialer, address, tlsConfig)
	}

	imapClient, err := client.DialWithDialer(dialer, address)
	if err != nil {
		return nil, err
	}
	if cfg.StartTLS {
		if err := imapClient.StartTLS(tlsConfig); err != nil {
			_ = imapClient.Logout()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}
	return imapClient, nil
}

func enableCompression(imapClient *client.Client, log lib.Logger) bool {
	compressClient := compress.NewClient(imapClient)
	supported, err := compressClient.SupportCompress(compress.Deflate)
	if err != nil || !supported {
		log.Print("IMAP server does NOT support COMPRESS=DEFLATE extension")
		return false
	}
	if err := compressClient.Compress(compress.Deflate); err != nil {
		log.Printf("cannot enable compression: %s", err)
		return false
	}
	log.Print("Compression enabled")
	return true
}

// Close logs out. Calling it more than once is safe.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Print("Closing connection")
	return s.client.Logout()
}

func (s *Session) Folder() string {
	return s.folder
}

func (s *Session) Address() string {
	return s.address
}

// AccountTag identifies the account of this session in the checkpoint store.
func (s *Session) AccountTag() string {
	return lib.AccountTag(s.address, s.username)
}

func (s *Session) UIDValidity() uint32 {
	return s.selected.UidValidity
}

func (s *Session) SupportsUIDPlus() bool {
	return s.uidPlus
}

func (s *Session) Compressed() bool {
	return s.compressed
}

// Status returns the folder status as reported when it was selected.
func (s *Session) Status() mailbox.Status {
	return mailbox.Status{
		Name:        s.selected.Name,
		Messages:    s.selected.Messages,
		Unseen:      s.selected.Unseen,
		UidValidity: s.selected.UidValidity,
		UidNext:     s.selected.UidNext,
	}
}

// MessageCount returns the number of messages in the folder right now.
func (s *Session) MessageCount() (uint32, error) {
	if s.closed {
		return 0, lib.ErrSessionClosed
	}
	// NOOP collects the pending EXISTS updates from the server
	if err := s.client.Noop(); err != nil {
		return 0, fmt.Errorf("cannot refresh folder status: %w", err)
	}
	if current := s.client.Mailbox(); current != nil {
		return current.Messages, nil
	}
	return s.selected.Messages, nil
}

// Fetch runs a FETCH (or UID FETCH when byUID is true) and collects the responses.
func (s *Session) Fetch(set *imap.SeqSet, byUID bool, items []imap.FetchItem) ([]*imap.Message, error) {
	if s.closed {
		return nil, lib.ErrSessionClosed
	}
	s.log.Printf("fetch uid=%v set=%s items=%+v", byUID, set, items)

	receiver := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		if byUID {
			done <- s.client.UidFetch(set, items, receiver)
			return
		}
		done <- s.client.Fetch(set, items, receiver)
	}()

	messages := make([]*imap.Message, 0)
	for msg := range receiver {
		messages = append(messages, msg)
	}
	if err := <-done; err != nil {
		return messages, err
	}
	return messages, nil
}

// SearchSince returns the UIDs of messages received on or after the given day.
func (s *Session) SearchSince(since time.Time) ([]uint32, error) {
	if s.closed {
		return nil, lib.ErrSessionClosed
	}
	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	s.log.Printf("searching for emails since %s", since.Format(imap.DateLayout))
	return s.client.UidSearch(criteria)
}

// Overview returns lightweight data (UID, flags, internal date and size) of
// every message with a UID greater or equal to fromUID.
func (s *Session) Overview(fromUID uint32) ([]*imap.Message, error) {
	set := new(imap.SeqSet)
	set.AddRange(fromUID, 0)
	items := []imap.FetchItem{imap.FetchUid, imap.FetchFlags, imap.FetchInternalDate, imap.FetchRFC822Size}
	return s.Fetch(set, true, items)
}
