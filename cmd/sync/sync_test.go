package sync

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cratedrop/seratosync/pkg/config"
	"github.com/cratedrop/seratosync/pkg/errors"
	"github.com/cratedrop/seratosync/pkg/sync"
)

func TestRunPrintsSummary(t *testing.T) {
	out := bytes.NewBuffer(nil)
	stdout = out
	validateCfg = func(config.Config) error { return nil }

	var gotCfg config.Config
	runSync = func(cfg config.Config) (*sync.Summary, error) {
		gotCfg = cfg
		return &sync.Summary{
			CratesProcessed: 2,
			PathsRemapped:   3,
			Elapsed:         time.Second,
		}, nil
	}

	cfg := config.Config{
		Source:      "/Users/x/Music/_Serato_",
		SourceMusic: "/Users/x/Music",
		Target:      "/Volumes/usb",
		Jobs:        1,
	}
	require.NoError(t, run(cfg))
	assert.Equal(t, cfg, gotCfg)
	assert.Contains(t, out.String(), "Synced 2 crate(s)")
}

func TestRunValidatesFirst(t *testing.T) {
	validateCfg = config.Config.Validate
	runSync = func(config.Config) (*sync.Summary, error) {
		t.Fatal("the pipeline shouldn't run with an incomplete config")
		return nil, nil
	}

	err := run(config.Config{})
	assert.Equal(t, errors.MissingFieldError{Field: "source_music"}, err)
}

func TestRunSyncFailure(t *testing.T) {
	validateCfg = func(config.Config) error { return nil }
	runSync = func(config.Config) (*sync.Summary, error) {
		return nil, errors.New("boom")
	}

	err := run(config.Config{
		Source:      "/Users/x/Music/_Serato_",
		SourceMusic: "/Users/x/Music",
		Target:      "/Volumes/usb",
	})
	assert.EqualError(t, errors.RootCause(err), "boom")
}
