// Package serato reads and writes the Serato library metadata files: the
// track database, crates, and smart crates. The binary framing itself lives
// in pkg/tlv; this package knows which tags exist and what they mean.
package serato

import (
	"github.com/cratedrop/seratosync/pkg/tlv"
)

// Layout names within a library.
const (
	// SeratoDirName is the metadata directory Serato maintains next to the
	// music files.
	SeratoDirName = "_Serato_"

	// DatabaseFileName is the track database inside the Serato directory.
	// The space is part of the real file name.
	DatabaseFileName = "database V2"

	// SubcratesDirName holds regular crates, one ".crate" file each.
	SubcratesDirName = "Subcrates"

	// SmartCratesDirName holds smart crates, one ".scrate" file each.
	SmartCratesDirName = "SmartCrates"

	// CrateExt and SmartCrateExt are the crate file extensions.
	CrateExt      = ".crate"
	SmartCrateExt = ".scrate"
)

// Record tags. The first character conventionally encodes the payload type
// ('o' container, 't'/'p' text, 'u' uint32, 'b' byte); the smart-crate rule
// tags are the exception and get registry overrides below.
const (
	TagVersion = "vrsn"

	// Track containers. The database stores the file path under "pfil",
	// crates store it under "ptrk".
	TagTrack     = "otrk"
	TagFilePath  = "pfil"
	TagTrackPath = "ptrk"

	// Crate display settings, preserved verbatim.
	TagSortBy      = "osrt"
	TagSortReverse = "brev"
	TagColumn      = "ovct"
	TagColumnName  = "tvcn"
	TagColumnWidth = "tvcw"

	// Track metadata fields.
	TagSong          = "tsng"
	TagArtist        = "tart"
	TagAlbum         = "talb"
	TagGenre         = "tgen"
	TagBPM           = "tbpm"
	TagKey           = "tkey"
	TagComment       = "tcom"
	TagGrouping      = "tgrp"
	TagLabel         = "tlbl"
	TagYear          = "ttyr"
	TagLength        = "tlen"
	TagFileType      = "ttyp"
	TagDateAdded     = "tadd"
	TagDateAddedUint = "uadd"
	TagPlayed        = "bply"
	TagMissing       = "bmis"

	// Smart-crate records. A crate containing any of these at its top level
	// is a smart crate.
	TagRule           = "rurt"
	TagRuleMatchAll   = "rart"
	TagRuleLiveUpdate = "rlut"

	// Children of a TagRule container.
	TagRuleField        = "urkt"
	TagRuleComparison   = "trft"
	TagRuleValueText    = "trpt"
	TagRuleValueDate    = "trtt"
	TagRuleValueInteger = "urpt"
)

// Version strings. Flipping a smart crate to a regular one means rewriting
// its version record to crateVersion.
const (
	databaseVersion   = "2.0/Serato Scratch LIVE Database"
	crateVersion      = "1.0/Serato ScratchLive Crate"
	smartCrateVersion = "1.0/Serato Smart Crate"
)

var registry = tlv.NewRegistry(map[string]tlv.Kind{
	TagRule:           tlv.KindContainer,
	TagRuleMatchAll:   tlv.KindFlag,
	TagRuleLiveUpdate: tlv.KindFlag,
})

// NewDecoder returns a decoder for Serato metadata files. Permissive mode
// (strict=false) is what the sync pipeline uses so that fields we don't
// understand survive untouched.
func NewDecoder(strict bool) tlv.Decoder {
	return tlv.Decoder{Registry: registry, Strict: strict}
}
