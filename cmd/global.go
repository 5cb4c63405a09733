package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creativeprojects/mailpoll/cfg"
	"github.com/creativeprojects/mailpoll/lib"
	"github.com/creativeprojects/mailpoll/term"
)

type GlobalFlags struct {
	configFile string
	envFile    string
	storeFile  string
	quiet      bool
	verbose    bool
}

var (
	global GlobalFlags
	config *cfg.Config
)

// loadConfig reads the environment file and the configuration file once.
func loadConfig() (*cfg.Config, error) {
	if config != nil {
		return config, nil
	}
	err := cfg.LoadEnv(global.envFile)
	if err != nil {
		return nil, err
	}
	loaded, err := cfg.LoadFromFile(global.configFile)
	if err != nil {
		return nil, err
	}
	config = loaded
	return config, nil
}

func loadAccount(name string) (cfg.Account, error) {
	loaded, err := loadConfig()
	if err != nil {
		return cfg.Account{}, err
	}
	account, err := loaded.Account(name)
	if errors.Is(err, lib.ErrAccountNotFound) {
		return account, fmt.Errorf("%w (configured accounts: %s)", err, strings.Join(loaded.AccountNames(), ", "))
	}
	return account, err
}

func storeFile() string {
	if global.storeFile != "" {
		return global.storeFile
	}
	if config != nil {
		return config.StoreFile()
	}
	return cfg.DefaultStoreFile
}

// debugLogger is only wired when the output is verbose
func debugLogger() lib.Logger {
	if global.verbose {
		return term.Logger()
	}
	return nil
}
