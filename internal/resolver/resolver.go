// Package resolver matches tracks to catalogued albums.
//
// Resolution tries the track's own artist first, then falls back to a
// "Various" compilation with the same album name, then gives up with id 0.
// Lookups go through an AlbumFinder so resolution works the same against a
// store or inside an open transaction.
package resolver

import (
	"context"

	"github.com/roach88/tracklog/internal/library"
)

// AlbumFinder is the single store lookup resolution needs. Implementations
// must report an error when (artist, album) matches more than one row
// rather than picking one.
type AlbumFinder interface {
	FindAlbum(ctx context.Context, artist, album string) (int64, bool, error)
}

// Resolver resolves tracks against the album catalog through a per-run
// cache.
type Resolver struct {
	finder AlbumFinder
	cache  *Cache
}

// New returns a Resolver with a fresh cache.
func New(finder AlbumFinder) *Resolver {
	return &Resolver{finder: finder, cache: NewCache()}
}

// Resolve determines the album id for track, sets track.AlbumID, and
// returns the id. Unresolvable tracks get id 0. The result is cached under
// the track's (artist, album) pair either way.
func (r *Resolver) Resolve(ctx context.Context, track *library.Track) (int64, error) {
	key := track.Artist + " / " + track.Album
	if id, ok := r.cache.Get(key); ok {
		track.AlbumID = id
		return id, nil
	}

	id, found, err := r.finder.FindAlbum(ctx, track.Artist, track.Album)
	if err != nil {
		return 0, err
	}
	if !found {
		id, found, err = r.finder.FindAlbum(ctx, library.VariousArtist, track.Album)
		if err != nil {
			return 0, err
		}
	}
	if !found {
		id = 0
	}

	r.cache.Put(key, id)
	track.AlbumID = id
	return id, nil
}
