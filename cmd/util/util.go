package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/cratedrop/seratosync/pkg/errors"
)

// HandleFatalError prints the user-facing form of err and exits with a
// non-zero status. The full error chain is only shown at Debug level.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	os.Exit(1)
}

// HandlePanic recovers from panics so that users get a readable message
// instead of a raw stack trace at the top of their terminal.
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "seratosync hit an unexpected error: %v\n\n%s",
		r, debug.Stack())
	os.Exit(1)
}
