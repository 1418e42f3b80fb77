package serato

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cratedrop/seratosync/pkg/errors"
	"github.com/cratedrop/seratosync/pkg/tlv"
)

func crateTrackRecord(path string) tlv.Record {
	return tlv.NewContainer(TagTrack, tlv.NewText(TagTrackPath, path))
}

func crateBytes(extra ...tlv.Record) []byte {
	records := append([]tlv.Record{
		tlv.NewText(TagVersion, crateVersion),
		tlv.NewContainer(TagSortBy,
			tlv.NewText(TagColumnName, "song"),
			tlv.NewFlag(TagSortReverse, 0)),
		tlv.NewContainer(TagColumn,
			tlv.NewText(TagColumnName, "bpm"),
			tlv.NewText(TagColumnWidth, "0")),
	}, extra...)
	return tlv.Encode(records)
}

func TestDecodeCrate(t *testing.T) {
	raw := crateBytes(
		crateTrackRecord("Users/x/Music/a.mp3"),
		crateTrackRecord("Users/x/Music/b.mp3"),
	)

	crate, err := DecodeCrate(raw)
	require.NoError(t, err)
	assert.False(t, crate.IsSmart())

	tracks := crate.Tracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, "Users/x/Music/a.mp3", tracks[0].Path())
	assert.Equal(t, "Users/x/Music/b.mp3", tracks[1].Path())

	assert.Equal(t, raw, crate.Encode())
}

func TestCrateSetPathPreservesEverythingElse(t *testing.T) {
	crate, err := DecodeCrate(crateBytes(crateTrackRecord("Users/x/Music/a.mp3")))
	require.NoError(t, err)

	crate.Tracks()[0].SetPath("Music/a.mp3")

	exp := crateBytes(crateTrackRecord("Music/a.mp3"))
	assert.Equal(t, exp, crate.Encode())
}

func TestCrateTrackOrderPreserved(t *testing.T) {
	// Crate order is positional, not sorted; it must survive a
	// decode/modify/encode cycle untouched.
	paths := []string{"Users/x/Music/z.mp3", "Users/x/Music/a.mp3", "Users/x/Music/m.mp3"}
	var records []tlv.Record
	for _, path := range paths {
		records = append(records, crateTrackRecord(path))
	}

	crate, err := DecodeCrate(crateBytes(records...))
	require.NoError(t, err)
	for _, track := range crate.Tracks() {
		track.SetPath("Music" + track.Path()[len("Users/x/Music"):])
	}

	var got []string
	for _, track := range crate.Tracks() {
		got = append(got, track.Path())
	}
	assert.Equal(t, []string{"Music/z.mp3", "Music/a.mp3", "Music/m.mp3"}, got)
}

func TestIsSmart(t *testing.T) {
	tests := []struct {
		name  string
		extra []tlv.Record
		exp   bool
	}{
		{
			name: "Regular",
			exp:  false,
		},
		{
			name:  "MatchAllFlag",
			extra: []tlv.Record{tlv.NewFlag(TagRuleMatchAll, 1)},
			exp:   true,
		},
		{
			name:  "LiveUpdateFlag",
			extra: []tlv.Record{tlv.NewFlag(TagRuleLiveUpdate, 0)},
			exp:   true,
		},
		{
			name: "RuleRecord",
			extra: []tlv.Record{tlv.NewContainer(TagRule,
				tlv.NewUint32(TagRuleField, 7),
				tlv.NewText(TagRuleComparison, CompIs),
				tlv.NewText(TagRuleValueText, "House"))},
			exp: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			crate, err := DecodeCrate(crateBytes(test.extra...))
			require.NoError(t, err)
			assert.Equal(t, test.exp, crate.IsSmart())
		})
	}
}

func TestListCrates(t *testing.T) {
	fs := afero.NewMemMapFs()

	crates := []string{"zebra.crate", "Acid.crate", "house.crate"}
	for _, name := range crates {
		require.NoError(t, afero.WriteFile(fs,
			"/lib/Subcrates/"+name, crateBytes(), 0644))
	}
	// Non-crate entries are ignored.
	require.NoError(t, afero.WriteFile(fs, "/lib/Subcrates/notes.txt", nil, 0644))
	require.NoError(t, fs.MkdirAll("/lib/Subcrates/nested", 0755))

	handles, err := ListCrates(fs, "/lib/Subcrates", CrateExt)
	require.NoError(t, err)

	var names []string
	for _, handle := range handles {
		names = append(names, handle.Name)
	}
	assert.Equal(t, []string{"Acid", "house", "zebra"}, names)

	crate, err := handles[0].Load(fs)
	require.NoError(t, err)
	assert.False(t, crate.IsSmart())
}

func TestListCratesMissingDir(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := ListCrates(fs, "/lib/Subcrates", CrateExt)
	assert.Equal(t, errors.FileNotFound{Path: "/lib/Subcrates"}, err)
}
