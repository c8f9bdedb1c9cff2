package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/tracklog/internal/library"
	"github.com/roach88/tracklog/internal/resolver"
)

// AssociateCatalog is the slice of the store orphan association works
// through. *store.Tx satisfies it.
type AssociateCatalog interface {
	UnassociatedTracks(ctx context.Context) ([]*library.Track, error)
	FindAlbum(ctx context.Context, artist, album string) (int64, bool, error)
	SetTrackAlbum(ctx context.Context, trackID, albumID int64) error
}

// Associate links every unassociated track to its album where one exists.
// Updates are reported per track; unmatched (artist, album) pairs are
// reported once each, sorted, after the updates.
func Associate(ctx context.Context, catalog AssociateCatalog) ([]string, error) {
	tracks, err := catalog.UnassociatedTracks(ctx)
	if err != nil {
		return nil, err
	}

	res := resolver.New(catalog)
	var statuses []string
	missed := make(map[string]bool)
	for _, track := range tracks {
		id, err := res.Resolve(ctx, track)
		if err != nil {
			return nil, err
		}
		if id == 0 {
			missed[track.Artist+" / "+track.Album] = true
			continue
		}
		if err := catalog.SetTrackAlbum(ctx, track.ID, id); err != nil {
			return nil, err
		}
		statuses = append(statuses, fmt.Sprintf("Updated track: %s", track))
	}

	pairs := make([]string, 0, len(missed))
	for pair := range missed {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	for _, pair := range pairs {
		statuses = append(statuses, fmt.Sprintf("No matching album found for: %s", pair))
	}
	return statuses, nil
}
