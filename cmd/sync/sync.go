package sync

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cratedrop/seratosync/cmd/util"
	"github.com/cratedrop/seratosync/pkg/config"
	"github.com/cratedrop/seratosync/pkg/errors"
	"github.com/cratedrop/seratosync/pkg/fswatch"
	"github.com/cratedrop/seratosync/pkg/sync"
)

// Mocked out for unit testing.
var (
	stdout      io.Writer = os.Stdout
	parseCfg              = config.Parse
	validateCfg           = config.Config.Validate
	runSync               = sync.Run
)

// New creates a new `sync` command.
func New() *cobra.Command {
	var flags struct {
		configPath    string
		cratePrefix   string
		caseSensitive bool
		jobs          int
		watch         bool
	}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rewrite the Serato metadata on the destination volume",
		Long: "Rewrite the Serato database and crates so they reference the\n" +
			"music files already copied to the destination volume. Run the\n" +
			"bulk file copy first; this command only touches metadata.",
		Run: func(cmd *cobra.Command, _ []string) {
			cfg, err := parseCfg(flags.configPath)
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse config"))
			}

			if cmd.Flags().Changed("prefix") {
				cfg.CratePrefix = flags.cratePrefix
			}
			if cmd.Flags().Changed("case-sensitive") {
				cfg.CaseSensitive = flags.caseSensitive
			}
			if cmd.Flags().Changed("jobs") {
				cfg.Jobs = flags.jobs
			}

			if err := run(cfg); err != nil {
				util.HandleFatalError(err)
			}
			if flags.watch {
				if err := watch(cfg); err != nil {
					util.HandleFatalError(err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "",
		"Path to the seratosync configuration file. "+
			"Optional: defaults to seratosync.yaml in the working directory.")
	cmd.Flags().StringVar(&flags.cratePrefix, "prefix", "",
		"Prefix prepended to every destination crate name.")
	cmd.Flags().BoolVar(&flags.caseSensitive, "case-sensitive", false,
		"Match the source music root case-sensitively.")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0,
		"Number of crates to process concurrently.")
	cmd.Flags().BoolVar(&flags.watch, "watch", false,
		"Keep running and re-sync whenever the source library changes.")

	return cmd
}

func run(cfg config.Config) error {
	if err := validateCfg(cfg); err != nil {
		return err
	}

	summary, err := runSync(cfg)
	if err != nil {
		return errors.WithContext(err, "sync metadata")
	}

	fmt.Fprintln(stdout, summary)
	if summary.Degraded() {
		log.Warn("The sync completed with problems; review the summary above.")
	}
	return nil
}

// watch re-runs the sync whenever the source Serato directory changes.
// Failures of individual re-runs are reported and the watch keeps going;
// only a broken watch itself ends the loop.
func watch(cfg config.Config) error {
	updates, err := fswatch.Watch(cfg.SourceSeratoDir())
	if err != nil {
		return errors.WithContext(err, "watch source library")
	}

	log.WithField("dir", cfg.SourceSeratoDir()).Info(
		"Watching the source library for changes")
	for range updates {
		if err := run(cfg); err != nil {
			log.WithError(err).Warn("Re-sync failed; still watching")
		}
	}
	return nil
}
