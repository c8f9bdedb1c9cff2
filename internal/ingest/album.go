package ingest

import (
	"context"
	"fmt"

	"github.com/roach88/tracklog/internal/library"
	"github.com/roach88/tracklog/internal/scan"
	"github.com/roach88/tracklog/internal/transform"
)

// AlbumCatalog is the slice of the store album registration writes
// through. *store.Tx satisfies it.
type AlbumCatalog interface {
	InsertAlbum(ctx context.Context, album *library.Album) (int64, error)
	UpdateAlbum(ctx context.Context, album *library.Album) error
	AlbumByArtistName(ctx context.Context, artist, album string) (*library.Album, bool, error)
}

// AlbumAdder registers albums from the audio files that make them up.
type AlbumAdder struct {
	catalog AlbumCatalog
	rules   *transform.RuleSet
	read    ReadTrackFunc
}

// AdderOption configures an AlbumAdder.
type AdderOption func(*AlbumAdder)

// WithAlbumReadTrack swaps the file reader, for tests.
func WithAlbumReadTrack(fn ReadTrackFunc) AdderOption {
	return func(a *AlbumAdder) { a.read = fn }
}

// NewAlbumAdder returns an AlbumAdder writing through catalog.
func NewAlbumAdder(catalog AlbumCatalog, rules *transform.RuleSet, opts ...AdderOption) *AlbumAdder {
	a := &AlbumAdder{
		catalog: catalog,
		rules:   rules,
		read:    scan.ReadTrack,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add registers the album the given files make up. Every file must carry
// artist and album tags and name the same album; tracks by different
// artists collapse the album artist to "Various". The candidate absorbs
// the rewrite rules before the catalog lookup.
//
// An album already in the catalog is updated with the new track count,
// running time, and type only when force is set; otherwise the update is
// described but not performed. With normalize set, the artist and album
// names are title-cased before anything else looks at them.
//
// The bool result reports whether the catalog changed. Bad input comes
// back as statuses, not an error; only catalog failures are errors.
func (a *AlbumAdder) Add(ctx context.Context, filenames []string, typ library.AlbumType, force, normalize bool) (bool, []string, error) {
	if len(filenames) == 0 {
		return false, []string{"No files specified"}, nil
	}

	var artist, name string
	total := 0
	for i, filename := range filenames {
		info, err := a.read(filename)
		if err != nil {
			return false, []string{fmt.Sprintf("Unable to load %q: %v", filename, err)}, nil
		}
		if info.Artist == "" {
			return false, []string{fmt.Sprintf("File %q has no artist tag", filename)}, nil
		}
		if info.Album == "" {
			return false, []string{fmt.Sprintf("File %q has no album tag", filename)}, nil
		}
		if i == 0 {
			artist, name = info.Artist, info.Album
		} else {
			if name != info.Album {
				return false, []string{fmt.Sprintf("First album name seen is %q but %s changed to %q", name, filename, info.Album)}, nil
			}
			if artist != info.Artist {
				artist = library.VariousArtist
			}
		}
		total += info.Seconds()
	}

	if normalize {
		artist = scan.NormalizeTitle(artist)
		name = scan.NormalizeTitle(name)
	}

	// Abort rather than truncate oversized names.
	if len(artist) > library.MaxNameLen {
		return false, []string{fmt.Sprintf("Album artist %q is longer than %d characters, aborting.", artist, library.MaxNameLen)}, nil
	}
	if len(name) > library.MaxNameLen {
		return false, []string{fmt.Sprintf("Album name %q is longer than %d characters, aborting.", name, library.MaxNameLen)}, nil
	}

	album := &library.Album{
		Artist:       artist,
		Name:         name,
		Type:         typ,
		TotalTracks:  len(filenames),
		TotalSeconds: total,
	}
	a.rules.Apply(album)

	existing, found, err := a.catalog.AlbumByArtistName(ctx, album.Artist, album.Name)
	if err != nil {
		return false, nil, err
	}
	if !found {
		if _, err := a.catalog.InsertAlbum(ctx, album); err != nil {
			return false, nil, err
		}
		return true, []string{fmt.Sprintf("Album inserted: %s", album.Summary())}, nil
	}

	statuses := []string{fmt.Sprintf("Found existing album: %s", existing.Summary())}
	existing.TotalTracks = album.TotalTracks
	existing.TotalSeconds = album.TotalSeconds
	existing.Type = album.Type
	if force {
		if err := a.catalog.UpdateAlbum(ctx, existing); err != nil {
			return false, nil, err
		}
		statuses = append(statuses, fmt.Sprintf("Updated to: %s", existing.Summary()))
		return true, statuses, nil
	}
	statuses = append(statuses,
		fmt.Sprintf("Would update to: %s", existing.Summary()),
		"Use --force to perform the update")
	return false, statuses, nil
}
