package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	statusCmd "github.com/cratedrop/seratosync/cmd/status"
	syncCmd "github.com/cratedrop/seratosync/cmd/sync"
	"github.com/cratedrop/seratosync/cmd/util"
	"github.com/cratedrop/seratosync/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info
// and above.
const verboseLogKey = "SERATOSYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "seratosync",
		Short:        "Sync Serato library metadata onto a removable volume",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		syncCmd.New(),
		statusCmd.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
