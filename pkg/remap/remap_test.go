package remap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cratedrop/seratosync/pkg/errors"
)

func TestRemap(t *testing.T) {
	tests := []struct {
		name            string
		musicRoot       string
		caseInsensitive bool
		path            string
		exp             string
		expUnresolved   bool
	}{
		{
			name:      "UnderRoot",
			musicRoot: "/Users/x/Music",
			path:      "/Users/x/Music/House/track.mp3",
			exp:       "Music/House/track.mp3",
		},
		{
			name:      "NoLeadingSeparator",
			musicRoot: "/Users/x/Music",
			path:      "Users/x/Music/House/track.mp3",
			exp:       "Music/House/track.mp3",
		},
		{
			name:      "TrailingSeparatorOnRoot",
			musicRoot: "/Users/x/Music/",
			path:      "/Users/x/Music/track.mp3",
			exp:       "Music/track.mp3",
		},
		{
			name:      "DotDotSegments",
			musicRoot: "/Users/x/Music",
			path:      "/Users/x/Downloads/../Music/track.mp3",
			exp:       "Music/track.mp3",
		},
		{
			name:          "OutsideRoot",
			musicRoot:     "/Users/x/Music",
			path:          "/other/place/track.mp3",
			expUnresolved: true,
		},
		{
			name:          "SiblingDirSharingPrefix",
			musicRoot:     "/Users/x/Music",
			path:          "/Users/x/Music2/track.mp3",
			expUnresolved: true,
		},
		{
			name:            "CaseInsensitiveMatch",
			musicRoot:       "/Users/x/Music",
			caseInsensitive: true,
			path:            "/users/X/music/track.mp3",
			exp:             "Music/track.mp3",
		},
		{
			name:          "CaseSensitiveMismatch",
			musicRoot:     "/Users/x/Music",
			path:          "/users/x/music/track.mp3",
			expUnresolved: true,
		},
		{
			name:      "RootItself",
			musicRoot: "/Users/x/Music",
			path:      "/Users/x/Music",
			exp:       "Music",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			remapper := New(test.musicRoot, "", test.caseInsensitive)
			result, err := remapper.Remap(test.path)
			if test.expUnresolved {
				assert.Equal(t, errors.UnresolvedPath{Path: test.path}, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, test.exp, result)
		})
	}
}

func TestRemapCustomDestRoot(t *testing.T) {
	remapper := New("/Users/x/Music", "Serato Music", false)
	result, err := remapper.Remap("/Users/x/Music/track.mp3")
	assert.NoError(t, err)
	assert.Equal(t, "Serato Music/track.mp3", result)
}
