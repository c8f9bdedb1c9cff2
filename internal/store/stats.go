package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/tracklog/internal/library"
)

// YearRange returns the first and last calendar years with logged plays.
// An empty tracks table returns (0, 0, nil).
func (s *Store) YearRange(ctx context.Context) (int, int, error) {
	var minAt, maxAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT MIN(played_at), MAX(played_at) FROM tracks").Scan(&minAt, &maxAt)
	if err != nil {
		return 0, 0, fmt.Errorf("year range: %w", err)
	}
	if !minAt.Valid || !maxAt.Valid {
		return 0, 0, nil
	}

	minTime, err := time.ParseInLocation(timeLayout, minAt.String, time.Local)
	if err != nil {
		return 0, 0, fmt.Errorf("year range: parse %q: %w", minAt.String, err)
	}
	maxTime, err := time.ParseInLocation(timeLayout, maxAt.String, time.Local)
	if err != nil {
		return 0, 0, fmt.Errorf("year range: parse %q: %w", maxAt.String, err)
	}
	return minTime.Year(), maxTime.Year(), nil
}

// YearStats returns the play count and total listened seconds for one
// calendar year. The played_at column stores local wall-clock strings, so
// the year boundaries compare lexically.
func (s *Store) YearStats(ctx context.Context, year int) (int, int, error) {
	var (
		tracks  int
		seconds int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(id), COALESCE(SUM(seconds), 0)
		FROM tracks
		WHERE played_at >= ? AND played_at < ?
	`,
		fmt.Sprintf("%04d-01-01 00:00:00", year),
		fmt.Sprintf("%04d-01-01 00:00:00", year+1),
	).Scan(&tracks, &seconds)
	if err != nil {
		return 0, 0, fmt.Errorf("year stats %d: %w", year, err)
	}
	return tracks, seconds, nil
}

// TrackCount returns the total number of logged plays.
func (s *Store) TrackCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(id) FROM tracks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return n, nil
}

// TrackAtPlayIndex returns the track at the given zero-based position in
// listening order. Ties on played_at break by insertion order so the
// milestone listing is stable.
func (s *Store) TrackAtPlayIndex(ctx context.Context, index int64) (*library.Track, bool, error) {
	tracks, err := queryTracks(ctx, s.db,
		"SELECT "+trackColumns+" FROM tracks ORDER BY played_at, id LIMIT 1 OFFSET ?", index)
	if err != nil {
		return nil, false, err
	}
	if len(tracks) == 0 {
		return nil, false, nil
	}
	return tracks[0], true, nil
}
