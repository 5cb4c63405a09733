package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creativeprojects/mailpoll/lib"
	"github.com/creativeprojects/mailpoll/mailbox"
	bolt "go.etcd.io/bbolt"
)

const (
	metadataBucket   = "metadata"
	accountsBucket   = "accounts"
	versionKey       = "version"
	checkpointPrefix = "checkpoint-"
	historyPrefix    = "history-"
	boltFileVersion  = 1
)

var ErrVersionMismatch = errors.New("unsupported store version")

// BoltStore keeps the checkpoint and the poll history of each account folder.
// Accounts are stored under their tag so no credential is written to disk.
type BoltStore struct {
	dbFile string
	db     *bolt.DB
}

// Open opens or creates the store file. It waits up to 10 seconds for another
// process holding the file lock.
func Open(filename string) (*BoltStore, error) {
	options := *bolt.DefaultOptions
	options.Timeout = 10 * time.Second

	db, err := bolt.Open(filename, 0600, &options)
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %w", filename, err)
	}

	return &BoltStore{
		dbFile: filename,
		db:     db,
	}, nil
}

// Exists returns true when the store file was already created.
func Exists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// Init writes the metadata bucket. A store written by a newer version is rejected.
func (s *BoltStore) Init() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return err
		}
		if data := bucket.Get([]byte(versionKey)); data != nil {
			existing, err := decodeVersion(data)
			if err != nil {
				return fmt.Errorf("cannot read store version: %w", err)
			}
			if existing > boltFileVersion {
				return fmt.Errorf("%w: %d", ErrVersionMismatch, existing)
			}
		}
		version, err := encodeVersion(boltFileVersion)
		if err != nil {
			return err
		}
		_, err = tx.CreateBucketIfNotExists([]byte(accountsBucket))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(versionKey), version)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Checkpoint returns the last checkpoint saved for the folder, or lib.ErrCheckpointNotFound.
func (s *BoltStore) Checkpoint(tag, folder string) (mailbox.Checkpoint, error) {
	var checkpoint mailbox.Checkpoint
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := accountBucket(tx, tag)
		if bucket == nil {
			return lib.ErrCheckpointNotFound
		}
		data := bucket.Get([]byte(checkpointPrefix + folder))
		if data == nil {
			return lib.ErrCheckpointNotFound
		}
		loaded, err := decode[mailbox.Checkpoint](data)
		if err != nil {
			return fmt.Errorf("cannot read checkpoint of %q: %w", folder, err)
		}
		checkpoint = *loaded
		return nil
	})
	return checkpoint, err
}

func (s *BoltStore) SaveCheckpoint(tag, folder string, checkpoint mailbox.Checkpoint) error {
	data, err := encode(&checkpoint)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := createAccountBucket(tx, tag)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(checkpointPrefix+folder), data)
	})
}

// AddHistory records poll entries. Only the most recent mailbox.MaxHistoryEntries are kept.
func (s *BoltStore) AddHistory(tag, folder string, entries ...mailbox.HistoryEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := createAccountBucket(tx, tag)
		if err != nil {
			return err
		}
		key := []byte(historyPrefix + folder)
		history, err := mailbox.DecodeHistory(bucket.Get(key))
		if err != nil {
			return err
		}
		history.Add(entries...)
		data, err := mailbox.EncodeHistory(history)
		if err != nil {
			return err
		}
		return bucket.Put(key, data)
	})
}

// History returns the recorded polls of the folder, oldest first. It is empty
// when nothing was recorded.
func (s *BoltStore) History(tag, folder string) (*mailbox.History, error) {
	history := &mailbox.History{}
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := accountBucket(tx, tag)
		if bucket == nil {
			return nil
		}
		var err error
		history, err = mailbox.DecodeHistory(bucket.Get([]byte(historyPrefix + folder)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

func accountBucket(tx *bolt.Tx, tag string) *bolt.Bucket {
	root := tx.Bucket([]byte(accountsBucket))
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(tag))
}

func createAccountBucket(tx *bolt.Tx, tag string) (*bolt.Bucket, error) {
	root, err := tx.CreateBucketIfNotExists([]byte(accountsBucket))
	if err != nil {
		return nil, err
	}
	return root.CreateBucketIfNotExists([]byte(tag))
}
