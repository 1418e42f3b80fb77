package status

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cratedrop/seratosync/cmd/util"
	"github.com/cratedrop/seratosync/pkg/config"
	"github.com/cratedrop/seratosync/pkg/errors"
	"github.com/cratedrop/seratosync/pkg/sync"
)

// Mocked out for unit testing.
var (
	stdout   io.Writer = os.Stdout
	parseCfg           = config.Parse
	inspect            = sync.Inspect
)

// New creates a new `status` command.
func New() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status [TARGET]",
		Short: "Show what a previous sync left on the destination volume",
		Args:  cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			cfg, err := parseCfg(configPath)
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse config"))
			}
			if len(args) == 1 {
				cfg.Target = args[0]
			}
			if cfg.Target == "" {
				util.HandleFatalError(errors.MissingFieldError{Field: "target"})
			}

			fmt.Fprintln(stdout, inspect(cfg))
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "",
		"Path to the seratosync configuration file. "+
			"Optional: defaults to seratosync.yaml in the working directory.")
	return cmd
}
