package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/cratedrop/seratosync/pkg/config"
	"github.com/cratedrop/seratosync/pkg/errors"
	"github.com/cratedrop/seratosync/pkg/serato"
)

// Report describes what's currently on the destination volume. It's purely
// informational: missing pieces show up as zero values, never as errors.
type Report struct {
	// SeratoDirPresent is whether the destination has a Serato directory
	// at all. When it's false a sync hasn't run yet.
	SeratoDirPresent bool

	// DatabaseTracks is the number of tracks in the destination database,
	// or -1 when the database is missing or unreadable.
	DatabaseTracks int

	// Crates and SmartCrates list the crate names found on the
	// destination, in file name order.
	Crates      []string
	SmartCrates []string

	// MusicFiles is the number of files under the destination music root,
	// not counting the Serato metadata itself.
	MusicFiles int
}

// Inspect examines the destination volume named by the configuration and
// reports what a previous sync (and the bulk file copy) left there. Every
// problem is a warning; the report is always returned.
func Inspect(cfg config.Config) *Report {
	report := &Report{DatabaseTracks: -1}
	library := serato.Library{SeratoDir: cfg.TargetSeratoDir()}

	if info, err := fs.Stat(library.SeratoDir); err == nil && info.IsDir() {
		report.SeratoDirPresent = true
	}

	if report.SeratoDirPresent {
		db, err := serato.LoadDatabase(fs, library.DatabasePath())
		if err != nil {
			log.WithError(err).Warn("Could not read the destination database")
		} else {
			report.DatabaseTracks = len(db.Tracks())
		}

		report.Crates = crateNames(library.SubcratesDir(), serato.CrateExt)
		report.SmartCrates = crateNames(library.SmartCratesDir(), serato.SmartCrateExt)
	}

	report.MusicFiles = countMusicFiles(cfg.TargetMusicDir(), library.SeratoDir)
	return report
}

func crateNames(dir, ext string) []string {
	handles, err := serato.ListCrates(fs, dir, ext)
	if err != nil {
		if _, ok := errors.RootCause(err).(errors.FileNotFound); !ok {
			log.WithError(err).WithField("dir", dir).Warn("Could not list crates")
		}
		return nil
	}

	var names []string
	for _, handle := range handles {
		names = append(names, handle.Name)
	}
	return names
}

func countMusicFiles(musicDir, seratoDir string) int {
	count := 0
	err := afero.Walk(fs, musicDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path == seratoDir {
				return filepath.SkipDir
			}
			return nil
		}
		count++
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		log.WithError(err).WithField("dir", musicDir).Warn(
			"Could not count the destination music files")
	}
	return count
}

func (r *Report) String() string {
	var b strings.Builder
	if !r.SeratoDirPresent {
		b.WriteString("No Serato directory on the destination; run sync first.\n")
	} else if r.DatabaseTracks < 0 {
		b.WriteString("The destination database is missing or unreadable.\n")
	} else {
		fmt.Fprintf(&b, "Database: %d track(s)\n", r.DatabaseTracks)
	}

	fmt.Fprintf(&b, "Crates: %d", len(r.Crates))
	for _, name := range r.Crates {
		fmt.Fprintf(&b, "\n  %s", name)
	}
	fmt.Fprintf(&b, "\nSmart crates: %d", len(r.SmartCrates))
	for _, name := range r.SmartCrates {
		fmt.Fprintf(&b, "\n  %s", name)
	}

	fmt.Fprintf(&b, "\nMusic files: %d", r.MusicFiles)
	return b.String()
}
