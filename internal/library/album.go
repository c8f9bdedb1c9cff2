package library

import (
	"fmt"

	"github.com/roach88/tracklog/internal/transform"
)

// VariousArtist is the artist recorded for compilation albums whose tracks
// come from different artists. The resolver falls back to it when no
// exact-artist album matches.
const VariousArtist = "Various"

// AlbumType distinguishes full albums from EPs and live recordings.
type AlbumType string

const (
	TypeAlbum AlbumType = "album"
	TypeEP    AlbumType = "ep"
	TypeLive  AlbumType = "live"
)

// Valid reports whether t is one of the accepted album types.
func (t AlbumType) Valid() bool {
	return t == TypeAlbum || t == TypeEP || t == TypeLive
}

var albumFields = []transform.Field{transform.FieldArtist, transform.FieldAlbum}

// Album is one known album. Albums carry only the artist and album fields,
// so rules touching any track-only field never apply to them.
type Album struct {
	ID           int64
	Artist       string
	Name         string
	Type         AlbumType
	TotalTracks  int
	TotalSeconds int

	lastRule int64
	dirty    bool
}

// Key returns the album's primary key.
func (a *Album) Key() int64 { return a.ID }

// Fields returns the rewritable fields an album carries.
func (a *Album) Fields() []transform.Field { return albumFields }

// Field returns the current value of f.
func (a *Album) Field(f transform.Field) (string, bool) {
	switch f {
	case transform.FieldArtist:
		return a.Artist, true
	case transform.FieldAlbum:
		return a.Name, true
	}
	return "", false
}

// SetField stores a new value for f.
func (a *Album) SetField(f transform.Field, value string) bool {
	switch f {
	case transform.FieldArtist:
		a.Artist = value
	case transform.FieldAlbum:
		a.Name = value
	default:
		return false
	}
	return true
}

// Watermark returns the id of the last rule this album absorbed.
func (a *Album) Watermark() int64 { return a.lastRule }

// SetWatermark records absorption of every rule up to and including id.
func (a *Album) SetWatermark(id int64) { a.lastRule = id }

// Dirty reports whether a rule mutated this album since it was loaded.
func (a *Album) Dirty() bool { return a.dirty }

// MarkDirty flags the album as mutated.
func (a *Album) MarkDirty() { a.dirty = true }

// ResetDirty clears the mutation flag.
func (a *Album) ResetDirty() { a.dirty = false }

// String identifies the album in report output.
func (a *Album) String() string {
	return fmt.Sprintf("ID %d: %s / %s (%s)", a.ID, a.Artist, a.Name, a.Type)
}

// Summary extends String with the album's track and running time totals.
func (a *Album) Summary() string {
	return fmt.Sprintf("%s - %d tracks, %d secs (%.1fmin)",
		a.String(), a.TotalTracks, a.TotalSeconds, float64(a.TotalSeconds)/60)
}

// Validate checks the album is storable: named, typed, capped, and with
// real totals. Zero track or second counts are always bad data.
func (a *Album) Validate() error {
	if a.Artist == "" {
		return fmt.Errorf("album artist cannot be empty")
	}
	if a.Name == "" {
		return fmt.Errorf("album name cannot be empty")
	}
	if len(a.Artist) > MaxNameLen {
		return fmt.Errorf("album artist %q is longer than %d characters", a.Artist, MaxNameLen)
	}
	if len(a.Name) > MaxNameLen {
		return fmt.Errorf("album name %q is longer than %d characters", a.Name, MaxNameLen)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("unknown album type %q", a.Type)
	}
	if a.TotalTracks == 0 {
		return fmt.Errorf("album total tracks cannot be zero")
	}
	if a.TotalSeconds == 0 {
		return fmt.Errorf("album total seconds cannot be zero")
	}
	return nil
}
