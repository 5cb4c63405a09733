package cfg

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/creativeprojects/mailpoll/lib"
	"github.com/creativeprojects/mailpoll/remote"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "mailpoll.yaml"
	DefaultStoreFile  = "mailpoll.db"
	DefaultEnvFile    = ".env"
)

type Config struct {
	// Store is the path of the checkpoint file.
	Store    string             `yaml:"store"`
	Accounts map[string]Account `yaml:"accounts"`
}

// Account is one mailbox folder to poll. Host, username and password can
// reference environment variables as $VAR or ${VAR}.
type Account struct {
	Host                string        `yaml:"host"`
	Port                int           `yaml:"port"`
	Username            string        `yaml:"username"`
	Password            string        `yaml:"password"`
	Folder              string        `yaml:"folder"`
	NoTLS               bool          `yaml:"noTLS"`
	StartTLS            bool          `yaml:"startTLS"`
	SkipTLSVerification bool          `yaml:"skipTLSVerification"`
	Compress            bool          `yaml:"compress"`
	Timeout             time.Duration `yaml:"timeout"`
	// BatchSize is the number of messages requested per FETCH command.
	BatchSize int `yaml:"batch"`
	// Rate limits the number of FETCH commands per second. Zero means no limit.
	Rate float64 `yaml:"rate"`
	// Maildir receives a copy of every polled message when set.
	Maildir string `yaml:"maildir"`
}

func newConfig() *Config {
	return &Config{
		Accounts: make(map[string]Account),
	}
}

// LoadEnv loads the variables of the dotenv files into the environment, without
// overriding the variables already set. A missing default file is not an error.
func LoadEnv(fileName string) error {
	if fileName == "" {
		fileName = DefaultEnvFile
	}
	err := godotenv.Load(fileName)
	if err != nil {
		if fileName == DefaultEnvFile && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("cannot load environment file %q: %w", fileName, err)
	}
	return nil
}

// LoadFromFile loads the configuration from the file
func LoadFromFile(fileName string) (*Config, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Load(file)
}

// Load the configuration from a reader
func Load(reader io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	config := newConfig()
	err := decoder.Decode(config)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if config.Accounts == nil {
		config.Accounts = make(map[string]Account)
	}
	return config, nil
}

// StoreFile returns the path of the checkpoint store.
func (c *Config) StoreFile() string {
	if c.Store == "" {
		return DefaultStoreFile
	}
	return c.Store
}

// Account returns the account with the environment variables expanded.
func (c *Config) Account(name string) (Account, error) {
	account, found := c.Accounts[name]
	if !found {
		return Account{}, fmt.Errorf("%w: %q", lib.ErrAccountNotFound, name)
	}
	return account.Expand(), nil
}

// AccountNames returns the names of the accounts in alphabetical order.
func (c *Config) AccountNames() []string {
	names := make([]string, 0, len(c.Accounts))
	for name := range c.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand replaces the environment variables in host, username and password.
func (a Account) Expand() Account {
	a.Host = os.ExpandEnv(a.Host)
	a.Username = os.ExpandEnv(a.Username)
	a.Password = os.ExpandEnv(a.Password)
	return a
}

func (a Account) RemoteConfig(logger lib.Logger) remote.Config {
	return remote.Config{
		Host:                a.Host,
		Port:                a.Port,
		Username:            a.Username,
		Password:            a.Password,
		Folder:              a.Folder,
		NoTLS:               a.NoTLS,
		StartTLS:            a.StartTLS,
		SkipTLSVerification: a.SkipTLSVerification,
		Compress:            a.Compress,
		Timeout:             a.Timeout,
		DebugLogger:         logger,
	}
}
