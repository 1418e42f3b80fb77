package serato

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/cratedrop/seratosync/pkg/errors"
)

// Library locates the metadata files inside a Serato directory.
type Library struct {
	// SeratoDir is the "_Serato_" directory itself.
	SeratoDir string
}

// DatabasePath returns the path of the track database.
func (l Library) DatabasePath() string {
	return filepath.Join(l.SeratoDir, DatabaseFileName)
}

// SubcratesDir returns the directory holding regular crates.
func (l Library) SubcratesDir() string {
	return filepath.Join(l.SeratoDir, SubcratesDirName)
}

// SmartCratesDir returns the directory holding smart crates.
func (l Library) SmartCratesDir() string {
	return filepath.Join(l.SeratoDir, SmartCratesDirName)
}

// CrateHandle identifies one crate file found on disk, with enough
// information to decode it later.
type CrateHandle struct {
	// Path is the full path of the crate file.
	Path string

	// FileName is the base name, e.g. "House Classics.crate".
	FileName string

	// Name is the crate name, i.e. the file name without its extension.
	Name string
}

// Load reads and decodes the crate.
func (h CrateHandle) Load(fs afero.Fs) (*Crate, error) {
	raw, err := afero.ReadFile(fs, h.Path)
	if err != nil {
		return nil, errors.WithContext(err, "read crate")
	}
	return DecodeCrate(raw)
}

// ListCrates enumerates the crate files with the given extension directly
// under dir, ordered lexicographically by file name so that output ordering
// is reproducible across runs. A missing directory is a FileNotFound error;
// the caller decides whether that's fatal.
func ListCrates(fs afero.Fs, dir, ext string) ([]CrateHandle, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: dir}
		}
		return nil, errors.WithContext(err, "read crate directory")
	}

	var handles []CrateHandle
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), ext) {
			continue
		}
		handles = append(handles, CrateHandle{
			Path:     filepath.Join(dir, info.Name()),
			FileName: info.Name(),
			Name:     strings.TrimSuffix(info.Name(), ext),
		})
	}

	sort.Slice(handles, func(i, j int) bool {
		return handles[i].FileName < handles[j].FileName
	})
	return handles, nil
}

func writeFile(fs afero.Fs, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithContext(err, "create directory")
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return errors.WithContext(err, "write file")
	}
	return nil
}
