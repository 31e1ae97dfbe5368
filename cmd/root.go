package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/foldersync/cmd/util"
	"github.com/sidkik/foldersync/cmd/version"
	"github.com/sidkik/foldersync/pkg/config"
	"github.com/sidkik/foldersync/pkg/errors"
	"github.com/sidkik/foldersync/pkg/fswatch"
	"github.com/sidkik/foldersync/pkg/sync"
	"github.com/sidkik/foldersync/pkg/synclog"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "FOLDERSYNC_LOG_VERBOSE"

const usage = "Usage: foldersync <sourcePath> <replicaPath> <logFilePath>"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	if err := New().Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

// New creates the root command.
func New() *cobra.Command {
	var settingsPath string
	rootCmd := &cobra.Command{
		Use:   "foldersync <source> <replica> <log-file>",
		Short: "Keep a replica directory identical to a source directory",
		Long: "Periodically make the replica directory an exact copy of the " +
			"source directory.\nEvery change made to the replica is written " +
			"to the log file and printed.",
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 {
				fmt.Fprintln(cmd.OutOrStdout(), usage)
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, args[0], args[1], args[2], settingsPath)
		},
	}
	rootCmd.Flags().StringVar(&settingsPath, "config", "",
		fmt.Sprintf("path to the settings file (default %s)", config.DefaultSettingsPath))
	rootCmd.AddCommand(version.New())
	return rootCmd
}

func run(ctx context.Context, source, replica, logPath, settingsPath string) error {
	settings, err := config.ParseSettings(settingsPath)
	if err != nil {
		return errors.WithContext(err, "load settings")
	}

	source, replica, err = preparePaths(source, replica)
	if err != nil {
		return err
	}

	logPath, err = homedir.Expand(logPath)
	if err != nil {
		return errors.WithContext(err, "expand log path")
	}

	logger, err := synclog.NewFileLogger(logPath)
	if err != nil {
		return errors.WithContext(err, "open log")
	}
	defer func() {
		if err := logger.Close(); err != nil {
			log.WithError(err).Warn("Failed to close log file")
		}
	}()

	executor := sync.NewExecutor(logger)
	executor.RetryLimit = settings.RetryLimit
	executor.RetryDelay = settings.RetryDelay.Duration

	reconciler := &sync.Reconciler{
		Source:   source,
		Replica:  replica,
		Exclude:  settings.Exclude,
		Logger:   logger,
		Executor: executor,
	}

	scheduler := sync.Scheduler{
		Pass:     reconciler.RunPass,
		Interval: settings.Interval.Duration,
		Clock:    clockwork.NewRealClock(),
	}

	if settings.Watch {
		watcher, err := fswatch.Watch(source, settings.Exclude)
		if err != nil {
			log.WithError(err).Warn("Failed to watch the source directory. " +
				"Changes will only be noticed on the next interval.")
		} else {
			defer watcher.Close()
			scheduler.Trigger = watcher.Changes()
		}
	}

	log.WithFields(log.Fields{
		"source":   source,
		"replica":  replica,
		"interval": settings.Interval.Duration,
	}).Debug("Starting synchronization")
	return scheduler.Run(ctx)
}

// preparePaths resolves the source and replica directories, and creates the
// replica if it doesn't exist yet.
func preparePaths(source, replica string) (string, string, error) {
	source, err := absPath(source)
	if err != nil {
		return "", "", errors.WithContext(err, "resolve source path")
	}

	replica, err = absPath(replica)
	if err != nil {
		return "", "", errors.WithContext(err, "resolve replica path")
	}

	fi, err := os.Stat(source)
	switch {
	case os.IsNotExist(err):
		return "", "", errors.NewFriendlyError("The source directory %q doesn't exist.", source)
	case err != nil:
		return "", "", errors.WithContext(err, "stat source")
	case !fi.IsDir():
		return "", "", errors.NewFriendlyError("The source path %q is not a directory.", source)
	}

	if overlaps(source, replica) {
		return "", "", errors.NewFriendlyError(
			"The source %q and replica %q can't be inside each other.", source, replica)
	}

	if err := os.MkdirAll(replica, 0755); err != nil {
		return "", "", errors.WithContext(err, "create replica directory")
	}
	return source, replica, nil
}

func absPath(path string) (string, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(path)
}

// overlaps returns whether either path is the same as, or inside, the other.
func overlaps(a, b string) bool {
	within := func(parent, child string) bool {
		rel, err := filepath.Rel(parent, child)
		return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
	}
	return within(a, b) || within(b, a)
}
