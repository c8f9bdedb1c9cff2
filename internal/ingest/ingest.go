// Package ingest feeds the catalog: logging plays from audio files,
// registering albums, and associating orphaned tracks.
//
// Every component works through an open store transaction, so one command
// invocation commits atomically or not at all. File reads go through a
// ReadTrackFunc, which tests swap for a stub.
package ingest

import (
	"github.com/roach88/tracklog/internal/library"
	"github.com/roach88/tracklog/internal/scan"
)

// timeLayout is the wall-clock format plays are reported and stored in.
const timeLayout = "2006-01-02 15:04:05"

// ReadTrackFunc reads metadata from one audio file.
type ReadTrackFunc func(path string) (*scan.Info, error)

// trackFromInfo builds a play record from scanned metadata.
func trackFromInfo(info *scan.Info, source library.Source) *library.Track {
	return &library.Track{
		Artist:    info.Artist,
		Album:     info.Album,
		Title:     info.Title,
		Ensemble:  info.Ensemble,
		Composer:  info.Composer,
		Conductor: info.Conductor,
		TrackNum:  info.TrackNum,
		Seconds:   info.Seconds(),
		Source:    source,
	}
}
