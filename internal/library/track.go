// Package library defines the track and album records the rest of the
// system moves around. Both implement transform.Record so the rewrite
// engine can treat them uniformly.
package library

import (
	"fmt"
	"time"

	"github.com/roach88/tracklog/internal/transform"
)

// Storage column caps. Values are rejected at ingestion rather than
// silently truncated.
const (
	MaxNameLen  = 200
	MaxTitleLen = 255
)

// Track is one logged play of one song.
type Track struct {
	ID        int64
	Artist    string
	Album     string
	Title     string
	Ensemble  string
	Composer  string
	Conductor string
	TrackNum  int // 0 = unknown, stored as NULL
	Seconds   int
	Source    Source
	PlayedAt  time.Time
	AlbumID   int64 // 0 = no album association

	lastRule int64
	dirty    bool
}

// Key returns the track's primary key.
func (t *Track) Key() int64 { return t.ID }

// Fields returns every rewritable field; tracks carry the full set.
func (t *Track) Fields() []transform.Field { return transform.AllFields }

// Field returns the current value of f.
func (t *Track) Field(f transform.Field) (string, bool) {
	switch f {
	case transform.FieldArtist:
		return t.Artist, true
	case transform.FieldAlbum:
		return t.Album, true
	case transform.FieldTitle:
		return t.Title, true
	case transform.FieldEnsemble:
		return t.Ensemble, true
	case transform.FieldComposer:
		return t.Composer, true
	case transform.FieldConductor:
		return t.Conductor, true
	}
	return "", false
}

// SetField stores a new value for f.
func (t *Track) SetField(f transform.Field, value string) bool {
	switch f {
	case transform.FieldArtist:
		t.Artist = value
	case transform.FieldAlbum:
		t.Album = value
	case transform.FieldTitle:
		t.Title = value
	case transform.FieldEnsemble:
		t.Ensemble = value
	case transform.FieldComposer:
		t.Composer = value
	case transform.FieldConductor:
		t.Conductor = value
	default:
		return false
	}
	return true
}

// Watermark returns the id of the last rule this track absorbed.
func (t *Track) Watermark() int64 { return t.lastRule }

// SetWatermark records absorption of every rule up to and including id.
func (t *Track) SetWatermark(id int64) { t.lastRule = id }

// Dirty reports whether a rule mutated this track since it was loaded.
func (t *Track) Dirty() bool { return t.dirty }

// MarkDirty flags the track as mutated.
func (t *Track) MarkDirty() { t.dirty = true }

// ResetDirty clears the mutation flag.
func (t *Track) ResetDirty() { t.dirty = false }

// String identifies the track in report output.
func (t *Track) String() string {
	return fmt.Sprintf("ID %d: %s / %s (album %d) - %s", t.ID, t.Artist, t.Album, t.AlbumID, t.Title)
}

// Validate checks the track against the storage caps and the source enum.
func (t *Track) Validate() error {
	for name, value := range map[string]string{
		"artist":    t.Artist,
		"album":     t.Album,
		"ensemble":  t.Ensemble,
		"composer":  t.Composer,
		"conductor": t.Conductor,
	} {
		if len(value) > MaxNameLen {
			return fmt.Errorf("track %s %q is longer than %d characters", name, value, MaxNameLen)
		}
	}
	if len(t.Title) > MaxTitleLen {
		return fmt.Errorf("track title %q is longer than %d characters", t.Title, MaxTitleLen)
	}
	if t.Seconds < 0 {
		return fmt.Errorf("track seconds %d is negative", t.Seconds)
	}
	if !t.Source.Valid() {
		return fmt.Errorf("unknown source %q", t.Source)
	}
	return nil
}
