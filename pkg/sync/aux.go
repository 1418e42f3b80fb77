package sync

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// prefFiles are the preference files copied verbatim alongside the
// database. They're conveniences, not requirements: a missing one is worth
// a log line, nothing more.
var prefFiles = []string{
	"neworder.pref",
	"window.pref",
	"collapsed.pref",
}

func (r *run) copyPrefFiles() {
	for _, name := range prefFiles {
		src := filepath.Join(r.cfg.SourceSeratoDir(), name)
		data, err := afero.ReadFile(fs, src)
		if err != nil {
			if os.IsNotExist(err) {
				log.WithField("file", name).Debug("Preference file not present; skipping")
			} else {
				log.WithError(err).WithField("file", name).Warn(
					"Failed to read preference file")
			}
			continue
		}

		dst := filepath.Join(r.cfg.TargetSeratoDir(), name)
		if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			log.WithError(err).WithField("file", name).Warn(
				"Failed to create destination directory")
			continue
		}
		if err := afero.WriteFile(fs, dst, data, 0644); err != nil {
			log.WithError(err).WithField("file", name).Warn(
				"Failed to copy preference file")
			continue
		}

		r.summary.PrefsCopied++
	}
}
