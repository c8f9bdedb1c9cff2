package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/tracklog/internal/library"
)

// timeLayout is how played_at values are stored: SQLite's canonical
// datetime text form, which also compares correctly as a string.
const timeLayout = "2006-01-02 15:04:05"

const trackColumns = "id, played_at, artist, album, title, ensemble, composer, conductor, tracknum, seconds, source, album_id, last_rule"

// InsertTrack persists a new play and fills in the track's assigned id.
// The caller is expected to have validated the track and brought it up to
// date with the current rule set.
func (s *Store) InsertTrack(ctx context.Context, track *library.Track) (int64, error) {
	return insertTrack(ctx, s.db, track)
}

// InsertTrack is the transactional variant of Store.InsertTrack.
func (t *Tx) InsertTrack(ctx context.Context, track *library.Track) (int64, error) {
	return insertTrack(ctx, t.tx, track)
}

func insertTrack(ctx context.Context, q queryer, track *library.Track) (int64, error) {
	// Unknown track numbers are stored as NULL, not 0.
	var tracknum any
	if track.TrackNum > 0 {
		tracknum = track.TrackNum
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO tracks
		(played_at, artist, album, title, ensemble, composer, conductor, tracknum, seconds, source, album_id, last_rule)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		track.PlayedAt.Format(timeLayout),
		track.Artist,
		track.Album,
		track.Title,
		track.Ensemble,
		track.Composer,
		track.Conductor,
		tracknum,
		track.Seconds,
		string(track.Source),
		track.AlbumID,
		track.Watermark(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert track: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert track: %w", err)
	}
	track.ID = id
	return id, nil
}

// UpdateTrackFields persists the rewritable fields, the album association,
// and the watermark of an existing track. Play metadata (timestamp, source,
// duration) is immutable once logged.
func (s *Store) UpdateTrackFields(ctx context.Context, track *library.Track) error {
	return updateTrackFields(ctx, s.db, track)
}

// UpdateTrackFields is the transactional variant of Store.UpdateTrackFields.
func (t *Tx) UpdateTrackFields(ctx context.Context, track *library.Track) error {
	return updateTrackFields(ctx, t.tx, track)
}

func updateTrackFields(ctx context.Context, q queryer, track *library.Track) error {
	if track.ID == 0 {
		return fmt.Errorf("update track: record has no id")
	}
	_, err := q.ExecContext(ctx, `
		UPDATE tracks
		SET artist = ?, album = ?, title = ?, ensemble = ?, composer = ?, conductor = ?, album_id = ?, last_rule = ?
		WHERE id = ?
	`,
		track.Artist,
		track.Album,
		track.Title,
		track.Ensemble,
		track.Composer,
		track.Conductor,
		track.AlbumID,
		track.Watermark(),
		track.ID,
	)
	if err != nil {
		return fmt.Errorf("update track %d: %w", track.ID, err)
	}
	return nil
}

// TracksBehind returns every track whose watermark is below maxID, in
// primary key order.
func (s *Store) TracksBehind(ctx context.Context, maxID int64) ([]*library.Track, error) {
	return queryTracks(ctx, s.db, "SELECT "+trackColumns+" FROM tracks WHERE last_rule < ? ORDER BY id ASC", maxID)
}

// TracksBehind is the transactional variant of Store.TracksBehind.
func (t *Tx) TracksBehind(ctx context.Context, maxID int64) ([]*library.Track, error) {
	return queryTracks(ctx, t.tx, "SELECT "+trackColumns+" FROM tracks WHERE last_rule < ? ORDER BY id ASC", maxID)
}

// UnassociatedTracks returns tracks that name an album but have no album
// association yet.
func (s *Store) UnassociatedTracks(ctx context.Context) ([]*library.Track, error) {
	return queryTracks(ctx, s.db, "SELECT "+trackColumns+" FROM tracks WHERE album_id = 0 AND album != '' ORDER BY id ASC")
}

// UnassociatedTracks is the transactional variant of Store.UnassociatedTracks.
func (t *Tx) UnassociatedTracks(ctx context.Context) ([]*library.Track, error) {
	return queryTracks(ctx, t.tx, "SELECT "+trackColumns+" FROM tracks WHERE album_id = 0 AND album != '' ORDER BY id ASC")
}

func queryTracks(ctx context.Context, q queryer, query string, args ...any) ([]*library.Track, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*library.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}

func scanTrack(rows *sql.Rows) (*library.Track, error) {
	var (
		track    library.Track
		playedAt string
		tracknum sql.NullInt64
		source   string
		lastRule int64
	)
	err := rows.Scan(
		&track.ID,
		&playedAt,
		&track.Artist,
		&track.Album,
		&track.Title,
		&track.Ensemble,
		&track.Composer,
		&track.Conductor,
		&tracknum,
		&track.Seconds,
		&source,
		&track.AlbumID,
		&lastRule,
	)
	if err != nil {
		return nil, fmt.Errorf("scan track: %w", err)
	}

	track.PlayedAt, err = time.ParseInLocation(timeLayout, playedAt, time.Local)
	if err != nil {
		return nil, fmt.Errorf("track %d: parse played_at %q: %w", track.ID, playedAt, err)
	}
	if tracknum.Valid {
		track.TrackNum = int(tracknum.Int64)
	}
	track.Source = library.Source(source)
	track.SetWatermark(lastRule)
	return &track, nil
}

// AdvanceTrackWatermarks bulk-sets the watermark to maxID for every track
// with a primary key at or below maxPK, regardless of whether the track
// changed. This is the reconciler's final bookkeeping step; it also snaps
// forward records whose per-rule watermark stalled below maxID because a
// trailing rule did not apply to them. Returns the number of rows touched.
func (s *Store) AdvanceTrackWatermarks(ctx context.Context, maxID, maxPK int64) (int64, error) {
	return advanceWatermarks(ctx, s.db, "tracks", maxID, maxPK)
}

// AdvanceTrackWatermarks is the transactional variant of
// Store.AdvanceTrackWatermarks.
func (t *Tx) AdvanceTrackWatermarks(ctx context.Context, maxID, maxPK int64) (int64, error) {
	return advanceWatermarks(ctx, t.tx, "tracks", maxID, maxPK)
}

func advanceWatermarks(ctx context.Context, q queryer, table string, maxID, maxPK int64) (int64, error) {
	res, err := q.ExecContext(ctx, "UPDATE "+table+" SET last_rule = ? WHERE id <= ?", maxID, maxPK)
	if err != nil {
		return 0, fmt.Errorf("advance %s watermarks: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("advance %s watermarks: %w", table, err)
	}
	return n, nil
}

// SetTrackAlbum records a track's album association.
func (s *Store) SetTrackAlbum(ctx context.Context, trackID, albumID int64) error {
	return setTrackAlbum(ctx, s.db, trackID, albumID)
}

// SetTrackAlbum is the transactional variant of Store.SetTrackAlbum.
func (t *Tx) SetTrackAlbum(ctx context.Context, trackID, albumID int64) error {
	return setTrackAlbum(ctx, t.tx, trackID, albumID)
}

func setTrackAlbum(ctx context.Context, q queryer, trackID, albumID int64) error {
	if _, err := q.ExecContext(ctx, "UPDATE tracks SET album_id = ? WHERE id = ?", albumID, trackID); err != nil {
		return fmt.Errorf("set track %d album: %w", trackID, err)
	}
	return nil
}
