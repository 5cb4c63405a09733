package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/creativeprojects/mailpoll/cfg"
	"github.com/creativeprojects/mailpoll/term"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "mailpoll",
	Short:         "Poll an IMAP mailbox: all messages, since a date, or since the last checkpoint",
	Long:          "\nPoll an IMAP mailbox: all messages, since a date, or since the last checkpoint",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initLog)
	flag := rootCmd.PersistentFlags()
	flag.StringVarP(&global.configFile, "config", "c", cfg.DefaultConfigFile, "configuration file")
	flag.StringVar(&global.envFile, "env-file", cfg.DefaultEnvFile, "file of environment variables used in the configuration")
	flag.StringVar(&global.storeFile, "store", "", "checkpoint store file (default from configuration, or "+cfg.DefaultStoreFile+")")
	flag.BoolVarP(&global.quiet, "quiet", "q", false, "only display warnings and errors")
	flag.BoolVarP(&global.verbose, "verbose", "v", false, "display debugging information")
}

func initLog() {
	switch {
	case global.verbose:
		term.SetLevel(term.LevelDebug)
	case global.quiet:
		term.SetLevel(term.LevelWarn)
	}
}

func Execute(version, commit, date, builtBy string) {
	setApp(version, commit, date, builtBy)
	rootCmd.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		term.Error(err)
		os.Exit(1)
	}
}
