package sync

import (
	"path/filepath"
	goSync "sync"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cratedrop/seratosync/pkg/config"
	"github.com/cratedrop/seratosync/pkg/errors"
	"github.com/cratedrop/seratosync/pkg/remap"
	"github.com/cratedrop/seratosync/pkg/serato"
)

// Mocked out for unit testing.
var clock clockwork.Clock = clockwork.NewRealClock()

// Run performs one full metadata sync. The returned error is only non-nil
// for fatal conditions (bad database, unwritable destination); per-crate
// failures are recorded in the Summary instead.
func Run(cfg config.Config) (*Summary, error) {
	start := clock.Now()

	// A non-positive job count would make the worker pool's semaphore
	// unbuffered against sends that are never received, so every crate
	// worker would block forever.
	if cfg.Jobs <= 0 {
		cfg.Jobs = config.DefaultJobs
	}

	runner, summary, err := newRun(cfg)
	if err != nil {
		return nil, err
	}

	if err := runner.writeDatabase(); err != nil {
		return nil, err
	}
	runner.processCrates()
	runner.copyPrefFiles()

	summary.Elapsed = clock.Now().Sub(start)
	return summary, nil
}

// run holds the state shared by one invocation: the pre-remap database view
// used for smart-crate rule evaluation, and the post-remap paths (keyed by
// track ID) stored in everything that gets written. Both are read-only once
// newRun returns, so crate workers share them without locking.
type run struct {
	cfg      config.Config
	library  serato.Library
	remapper remap.Remapper

	original      *serato.Database
	remapped      *serato.Database
	remappedPaths []string

	// regularNames holds the file names of the regular crates found on
	// the source, so resolved smart-crate copies never overwrite one.
	// Filled before the workers start, read-only afterwards.
	regularNames map[string]struct{}

	summary        *Summary
	mutex          goSync.Mutex
	unresolvedSeen map[string]struct{}
}

func newRun(cfg config.Config) (*run, *Summary, error) {
	library := serato.Library{SeratoDir: cfg.SourceSeratoDir()}

	original, err := serato.LoadDatabase(fs, library.DatabasePath())
	if err != nil {
		return nil, nil, errors.WithContext(err, "load database")
	}

	summary := &Summary{}
	remapper := remap.New(cfg.SourceMusic, remap.DefaultDestRoot, !cfg.CaseSensitive)

	remapped := original.Clone()
	tracks := remapped.Tracks()
	remappedPaths := make([]string, len(tracks))
	unresolvedSeen := map[string]struct{}{}
	for _, track := range tracks {
		// The destination library starts fresh, so the played flag is
		// cleared whether or not the path resolves.
		track.SetFlag(serato.TagPlayed, 0)

		newPath, err := remapper.Remap(track.FilePath())
		if err != nil {
			log.WithField("path", track.FilePath()).Warn(
				"Track is outside the source music root; leaving its path unchanged")
			if _, ok := unresolvedSeen[track.FilePath()]; !ok {
				unresolvedSeen[track.FilePath()] = struct{}{}
				summary.PathsUnresolved = append(summary.PathsUnresolved, track.FilePath())
			}
			remappedPaths[track.ID()] = track.FilePath()
			continue
		}

		track.SetFilePath(newPath)
		remappedPaths[track.ID()] = newPath
		summary.PathsRemapped++
	}

	return &run{
		cfg:            cfg,
		library:        library,
		remapper:       remapper,
		original:       original,
		remapped:       remapped,
		remappedPaths:  remappedPaths,
		regularNames:   map[string]struct{}{},
		summary:        summary,
		unresolvedSeen: unresolvedSeen,
	}, summary, nil
}

// writeDatabase resets the destination Serato directory and writes the
// remapped database. Failures here are fatal: without a destination
// database there's nothing for the crates to reference.
func (r *run) writeDatabase() error {
	targetSerato := r.cfg.TargetSeratoDir()
	if err := fs.RemoveAll(targetSerato); err != nil {
		return errors.WithContext(err, "reset destination")
	}

	dbPath := filepath.Join(targetSerato, serato.DatabaseFileName)
	if err := r.remapped.Save(fs, dbPath); err != nil {
		return errors.WithContext(err, "write database")
	}

	log.WithField("path", dbPath).Debug("Wrote destination database")
	return nil
}

// processCrates runs every crate through decode, remap, smart-crate
// resolution, and the destination write. Crates are independent and write
// to disjoint files, so they're fanned out to a bounded worker pool; the
// summary is the only shared mutable state.
func (r *run) processCrates() {
	type job struct {
		handle serato.CrateHandle
		smart  bool
	}
	var jobs []job

	for _, listing := range []struct {
		dir   string
		ext   string
		smart bool
	}{
		{r.library.SubcratesDir(), serato.CrateExt, false},
		{r.library.SmartCratesDir(), serato.SmartCrateExt, true},
	} {
		handles, err := serato.ListCrates(fs, listing.dir, listing.ext)
		if err != nil {
			if _, ok := errors.RootCause(err).(errors.FileNotFound); ok {
				log.WithField("dir", listing.dir).Debug("No crate directory; skipping")
				continue
			}
			r.recordSkip(filepath.Base(listing.dir), err)
			continue
		}
		for _, handle := range handles {
			if !listing.smart {
				r.regularNames[handle.FileName] = struct{}{}
			}
			jobs = append(jobs, job{handle: handle, smart: listing.smart})
		}
	}

	var group errgroup.Group
	semaphore := make(chan struct{}, r.cfg.Jobs)
	for _, j := range jobs {
		j := j
		group.Go(func() error {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			var err error
			if j.smart {
				err = r.processSmartCrate(j.handle)
			} else {
				err = r.processRegularCrate(j.handle)
			}
			if err != nil {
				log.WithError(err).WithField("crate", j.handle.FileName).Warn(
					"Skipping crate")
				r.recordSkip(j.handle.FileName, err)
			}
			return nil
		})
	}

	// Workers record failures in the summary rather than returning them,
	// so Wait never yields an error.
	_ = group.Wait()
}

// processRegularCrate remaps a crate's track references in place and writes
// it to the destination Subcrates directory.
func (r *run) processRegularCrate(handle serato.CrateHandle) error {
	crate, err := handle.Load(fs)
	if err != nil {
		return err
	}

	r.remapCrateTracks(crate)
	if err := crate.Save(fs, r.destCratePath(serato.SubcratesDirName, handle.FileName)); err != nil {
		return err
	}

	r.countProcessed(false)
	return nil
}

// processSmartCrate writes two things: the smart crate itself with its
// stored paths remapped (so the destination library keeps the live filter),
// and a resolved regular crate listing the tracks the filter matches today.
//
// Rule evaluation runs against the pre-remap database view, since rules can
// inspect path-derived fields; the resolved crate stores the post-remap
// path for each match, looked up by track ID.
func (r *run) processSmartCrate(handle serato.CrateHandle) error {
	smart, err := handle.Load(fs)
	if err != nil {
		return err
	}

	resolved, err := serato.Resolve(smart, r.original, func(track serato.Track) string {
		return r.remappedPaths[track.ID()]
	})
	if err != nil {
		return err
	}

	r.remapCrateTracks(smart)
	if err := smart.Save(fs, r.destCratePath(serato.SmartCratesDirName, handle.FileName)); err != nil {
		return err
	}

	// A regular crate with the same name would land on the same
	// destination file, and the workers run concurrently. The resolved
	// copy yields and takes a distinct, deterministic name instead.
	resolvedName := handle.Name + serato.CrateExt
	if _, taken := r.regularNames[resolvedName]; taken {
		resolvedName = handle.Name + " (Smart)" + serato.CrateExt
		log.WithFields(log.Fields{
			"crate":    handle.FileName,
			"resolved": resolvedName,
		}).Warn("A regular crate already uses this name; writing the resolved copy under a distinct name")
	}
	if err := resolved.Save(fs, r.destCratePath(serato.SubcratesDirName, resolvedName)); err != nil {
		return err
	}

	r.countProcessed(true)
	return nil
}

// remapCrateTracks rewrites every resolvable track reference in the crate.
// Unresolved references are accumulated in the summary, once per run per
// path; paths the database pass already reported aren't repeated.
func (r *run) remapCrateTracks(crate *serato.Crate) {
	for _, track := range crate.Tracks() {
		newPath, err := r.remapper.Remap(track.Path())
		if err != nil {
			log.WithField("path", track.Path()).Debug(
				"Crate references a track outside the source music root")
			r.recordUnresolved(track.Path())
			continue
		}
		track.SetPath(newPath)
	}
}

func (r *run) recordUnresolved(path string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.unresolvedSeen[path]; ok {
		return
	}
	r.unresolvedSeen[path] = struct{}{}
	r.summary.PathsUnresolved = append(r.summary.PathsUnresolved, path)
}

func (r *run) destCratePath(subdir, fileName string) string {
	return filepath.Join(r.cfg.TargetSeratoDir(), subdir, r.cfg.CratePrefix+fileName)
}

func (r *run) countProcessed(smart bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.summary.CratesProcessed++
	if smart {
		r.summary.SmartCratesResolved++
	}
}

func (r *run) recordSkip(name string, err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.summary.CratesSkipped = append(r.summary.CratesSkipped,
		SkippedCrate{Name: name, Err: err})
}
