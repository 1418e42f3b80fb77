package config

import (
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/cratedrop/seratosync/pkg/errors"
	"github.com/cratedrop/seratosync/pkg/remap"
	"github.com/cratedrop/seratosync/pkg/serato"
)

// DefaultPath is the config file looked for in the working directory when
// no explicit path is given.
const DefaultPath = "seratosync.yaml"

// parseConfigErrTemplate is a template for when the CLI fails to parse yaml
// configuration files. This can happen for a multitude of reasons, including
// extraneous fields and incorrect field types. However, the yaml library
// constructs errors in a way that loses context, and so we can only pass the
// error message on.
const parseConfigErrTemplate = "Configuration file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Having extra fields inside the config file\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

// Config is the immutable configuration for one sync run. It's assembled
// once up front and passed explicitly through the pipeline, which keeps
// every component testable with synthetic values.
type Config struct {
	// Source is the Serato metadata directory to read. Defaults to the
	// "_Serato_" directory directly under SourceMusic.
	Source string `json:"source,omitempty"`

	// SourceMusic is the absolute music root on this machine. Track paths
	// under it get remapped; track paths outside it are reported and left
	// alone.
	SourceMusic string `json:"source_music"`

	// Target is the mount point of the destination volume.
	Target string `json:"target"`

	// CratePrefix is prepended to every destination crate file name.
	// Empty means no prefix.
	CratePrefix string `json:"crate_prefix,omitempty"`

	// CaseSensitive makes the SourceMusic prefix comparison exact. The
	// default is insensitive, matching the filesystems the library format
	// usually lives on.
	CaseSensitive bool `json:"case_sensitive,omitempty"`

	// Jobs is the number of crates processed concurrently.
	Jobs int `json:"jobs,omitempty"`
}

// Environment variable names, shared with the bulk-copy tooling that runs
// before this program.
const (
	sourceEnvKey      = "source"
	sourceMusicEnvKey = "source_music"
	targetEnvKey      = "target"
	cratePrefixEnvKey = "crate_prefix"
)

// DefaultJobs is the number of crates processed concurrently when the
// configuration doesn't say otherwise.
const DefaultJobs = 4

// Parse loads the configuration file at path (if it exists), applies
// environment variable overrides, and fills in defaults. Pass an empty path
// to use DefaultPath.
func Parse(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	var cfg Config
	configBytes, err := afero.ReadFile(fs, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(configBytes, &cfg); err != nil {
			return Config{}, errors.NewFriendlyError(parseConfigErrTemplate, path, err)
		}
		// Do a strict unmarshal to check for any extra fields.
		if err := yaml.UnmarshalStrict(configBytes, &cfg, yaml.DisallowUnknownFields); err != nil {
			return Config{}, errors.NewFriendlyError(parseConfigErrTemplate, path, err)
		}
	case os.IsNotExist(err):
		if explicit {
			return Config{}, errors.FileNotFound{Path: path}
		}
	default:
		return Config{}, errors.WithContext(err, "read config")
	}

	applyEnv(&cfg)

	for _, field := range []*string{&cfg.Source, &cfg.SourceMusic, &cfg.Target} {
		expanded, err := homedir.Expand(*field)
		if err != nil {
			return Config{}, errors.WithContext(err, "expand home directory")
		}
		*field = expanded
	}

	if cfg.Source == "" && cfg.SourceMusic != "" {
		cfg.Source = filepath.Join(cfg.SourceMusic, serato.SeratoDirName)
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = DefaultJobs
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(sourceEnvKey); v != "" {
		cfg.Source = v
	}
	if v := os.Getenv(sourceMusicEnvKey); v != "" {
		cfg.SourceMusic = v
	}
	if v := os.Getenv(targetEnvKey); v != "" {
		cfg.Target = v
	}
	if v := os.Getenv(cratePrefixEnvKey); v != "" {
		cfg.CratePrefix = v
	}
}

// Validate checks that the configuration is complete and that the paths it
// names exist. It runs before any processing so that a bad setup never
// writes anything.
func (c Config) Validate() error {
	if c.SourceMusic == "" {
		return errors.MissingFieldError{Field: sourceMusicEnvKey}
	}
	if c.Target == "" {
		return errors.MissingFieldError{Field: targetEnvKey}
	}

	if err := dirExists(c.Source); err != nil {
		return errors.NewFriendlyError(
			"The source Serato directory %q does not exist.\n"+
				"Is %q really your music root?", c.Source, c.SourceMusic)
	}

	if err := dirExists(c.TargetMusicDir()); err != nil {
		return errors.NewFriendlyError(
			"The target music directory %q does not exist.\n"+
				"Make sure the bulk copy has run first so the destination "+
				"volume already has your music files.", c.TargetMusicDir())
	}
	return nil
}

// SourceSeratoDir returns the metadata directory being read.
func (c Config) SourceSeratoDir() string {
	return c.Source
}

// TargetMusicDir returns the music root on the destination volume.
func (c Config) TargetMusicDir() string {
	return filepath.Join(c.Target, remap.DefaultDestRoot)
}

// TargetSeratoDir returns the metadata directory being written.
func (c Config) TargetSeratoDir() string {
	return filepath.Join(c.TargetMusicDir(), serato.SeratoDirName)
}

func dirExists(path string) error {
	info, err := fs.Stat(path)
	if err != nil {
		return errors.FileNotFound{Path: path}
	}
	if !info.IsDir() {
		return errors.New("not a directory")
	}
	return nil
}
