package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/creativeprojects/mailpoll/term"
	"github.com/spf13/cobra"
)

const (
	releaseOwner     = "creativeprojects"
	releaseRepo      = "mailpoll"
	checksumFile     = "checksums.txt"
	detectionTimeout = 30 * time.Second
)

var selfUpdateCmd = &cobra.Command{
	Use:   "selfupdate",
	Short: "Replace mailpoll with the latest release published on GitHub",
	Args:  cobra.NoArgs,
	RunE:  runSelfUpdate,
}

var selfUpdateCheckOnly bool

var (
	appVersion = ""
	appCommit  = ""
	appDate    = ""
	appBuiltBy = ""
)

func init() {
	selfUpdateCmd.Flags().BoolVar(&selfUpdateCheckOnly, "check", false, "only report whether a newer release is available")
	rootCmd.AddCommand(selfUpdateCmd)
}

func setApp(version, commit, date, builtBy string) {
	appVersion = version
	appCommit = commit
	appDate = date
	appBuiltBy = builtBy
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	if global.verbose {
		selfupdate.SetLogger(log.Default())
	}
	term.Debugf("mailpoll %s (commit %s, built %s by %s)", appVersion, appCommit, appDate, appBuiltBy)

	// NewUpdater only fails on invalid filters, and none is set
	updater, _ := selfupdate.NewUpdater(selfupdate.Config{
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: checksumFile},
	})

	release, err := latestRelease(cmd.Context(), updater)
	if err != nil {
		return err
	}
	if !isNewer(release, appVersion) {
		term.Infof("mailpoll %s is up to date", appVersion)
		return nil
	}
	if selfUpdateCheckOnly {
		term.Infof("mailpoll %s is available (installed: %s)", release.Version(), appVersion)
		return nil
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cannot locate the mailpoll executable: %w", err)
	}
	err = updater.UpdateTo(cmd.Context(), release, executable)
	if err != nil {
		return fmt.Errorf("cannot install mailpoll %s: %w", release.Version(), err)
	}
	term.Infof("mailpoll updated to %s", release.Version())
	return nil
}

// latestRelease returns the latest release built for this platform.
func latestRelease(ctx context.Context, updater *selfupdate.Updater) (*selfupdate.Release, error) {
	ctx, cancel := context.WithTimeout(ctx, detectionTimeout)
	defer cancel()

	release, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(releaseOwner, releaseRepo))
	if err != nil {
		return nil, fmt.Errorf("cannot detect the latest release: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no release of %s/%s for %s/%s", releaseOwner, releaseRepo, runtime.GOOS, runtime.GOARCH)
	}
	return release, nil
}

// isNewer compares the release with the running version. Development builds
// without a version are always updated.
func isNewer(release *selfupdate.Release, current string) bool {
	if current == "" {
		return true
	}
	return !release.LessOrEqual(current)
}
