package sync

import (
	"fmt"
	"strings"
	"time"
)

// SkippedCrate records one crate that couldn't be processed.
type SkippedCrate struct {
	Name string
	Err  error
}

// Summary is the outcome of one run. Every recoverable problem ends up
// here; nothing is silently dropped.
type Summary struct {
	CratesProcessed     int
	SmartCratesResolved int
	PathsRemapped       int
	PrefsCopied         int

	CratesSkipped   []SkippedCrate
	PathsUnresolved []string

	Elapsed time.Duration
}

// Degraded reports whether the run completed but skipped or left anything
// behind.
func (s *Summary) Degraded() bool {
	return len(s.CratesSkipped) > 0 || len(s.PathsUnresolved) > 0
}

func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Synced %d crate(s) (%d resolved from smart crates), "+
		"%d track path(s), and %d preference file(s) in %s.",
		s.CratesProcessed, s.SmartCratesResolved, s.PathsRemapped,
		s.PrefsCopied, s.Elapsed.Round(time.Millisecond))

	if len(s.CratesSkipped) > 0 {
		fmt.Fprintf(&b, "\nSkipped %d crate(s):", len(s.CratesSkipped))
		for _, skipped := range s.CratesSkipped {
			fmt.Fprintf(&b, "\n  %s: %s", skipped.Name, skipped.Err)
		}
	}

	if len(s.PathsUnresolved) > 0 {
		fmt.Fprintf(&b, "\n%d track path(s) outside the source music root "+
			"were left unchanged:", len(s.PathsUnresolved))
		for _, path := range s.PathsUnresolved {
			fmt.Fprintf(&b, "\n  %s", path)
		}
	}
	return b.String()
}
