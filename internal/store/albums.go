package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tracklog/internal/library"
)

const albumColumns = "id, artist, album, total_tracks, total_seconds, album_type, last_rule"

// InsertAlbum persists a new album and fills in its assigned id. The album
// is validated first; inserting an album with zero totals is always a bug.
func (s *Store) InsertAlbum(ctx context.Context, album *library.Album) (int64, error) {
	return insertAlbum(ctx, s.db, album)
}

// InsertAlbum is the transactional variant of Store.InsertAlbum.
func (t *Tx) InsertAlbum(ctx context.Context, album *library.Album) (int64, error) {
	return insertAlbum(ctx, t.tx, album)
}

func insertAlbum(ctx context.Context, q queryer, album *library.Album) (int64, error) {
	if err := album.Validate(); err != nil {
		return 0, fmt.Errorf("insert album: %w", err)
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO albums (artist, album, total_tracks, total_seconds, album_type, last_rule)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		album.Artist,
		album.Name,
		album.TotalTracks,
		album.TotalSeconds,
		string(album.Type),
		album.Watermark(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert album: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert album: %w", err)
	}
	album.ID = id
	return id, nil
}

// UpdateAlbum persists every mutable column of an existing album,
// watermark included.
func (s *Store) UpdateAlbum(ctx context.Context, album *library.Album) error {
	return updateAlbum(ctx, s.db, album)
}

// UpdateAlbum is the transactional variant of Store.UpdateAlbum.
func (t *Tx) UpdateAlbum(ctx context.Context, album *library.Album) error {
	return updateAlbum(ctx, t.tx, album)
}

func updateAlbum(ctx context.Context, q queryer, album *library.Album) error {
	if album.ID == 0 {
		return fmt.Errorf("update album: record has no id")
	}
	if err := album.Validate(); err != nil {
		return fmt.Errorf("update album %d: %w", album.ID, err)
	}

	_, err := q.ExecContext(ctx, `
		UPDATE albums
		SET artist = ?, album = ?, total_tracks = ?, total_seconds = ?, album_type = ?, last_rule = ?
		WHERE id = ?
	`,
		album.Artist,
		album.Name,
		album.TotalTracks,
		album.TotalSeconds,
		string(album.Type),
		album.Watermark(),
		album.ID,
	)
	if err != nil {
		return fmt.Errorf("update album %d: %w", album.ID, err)
	}
	return nil
}

// AlbumsBehind returns every album whose watermark is below maxID, in
// primary key order.
func (s *Store) AlbumsBehind(ctx context.Context, maxID int64) ([]*library.Album, error) {
	return queryAlbums(ctx, s.db, "SELECT "+albumColumns+" FROM albums WHERE last_rule < ? ORDER BY id ASC", maxID)
}

// AlbumsBehind is the transactional variant of Store.AlbumsBehind.
func (t *Tx) AlbumsBehind(ctx context.Context, maxID int64) ([]*library.Album, error) {
	return queryAlbums(ctx, t.tx, "SELECT "+albumColumns+" FROM albums WHERE last_rule < ? ORDER BY id ASC", maxID)
}

func queryAlbums(ctx context.Context, q queryer, query string, args ...any) ([]*library.Album, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	defer rows.Close()

	var albums []*library.Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate albums: %w", err)
	}
	return albums, nil
}

func scanAlbum(rows *sql.Rows) (*library.Album, error) {
	var (
		album     library.Album
		albumType string
		lastRule  int64
	)
	err := rows.Scan(
		&album.ID,
		&album.Artist,
		&album.Name,
		&album.TotalTracks,
		&album.TotalSeconds,
		&albumType,
		&lastRule,
	)
	if err != nil {
		return nil, fmt.Errorf("scan album: %w", err)
	}
	album.Type = library.AlbumType(albumType)
	album.SetWatermark(lastRule)
	return &album, nil
}

// AdvanceAlbumWatermarks bulk-sets the watermark to maxID for every album
// with a primary key at or below maxPK. See AdvanceTrackWatermarks.
func (s *Store) AdvanceAlbumWatermarks(ctx context.Context, maxID, maxPK int64) (int64, error) {
	return advanceWatermarks(ctx, s.db, "albums", maxID, maxPK)
}

// AdvanceAlbumWatermarks is the transactional variant of
// Store.AdvanceAlbumWatermarks.
func (t *Tx) AdvanceAlbumWatermarks(ctx context.Context, maxID, maxPK int64) (int64, error) {
	return advanceWatermarks(ctx, t.tx, "albums", maxID, maxPK)
}

// FindAlbum returns the id of the album stored under (artist, album).
// The pair is a unique key in the schema; seeing more than one row means
// the database was created without the unique index, and the lookup fails
// with an *IntegrityError rather than picking a row arbitrarily.
func (s *Store) FindAlbum(ctx context.Context, artist, album string) (int64, bool, error) {
	return findAlbum(ctx, s.db, artist, album)
}

// FindAlbum is the transactional variant of Store.FindAlbum.
func (t *Tx) FindAlbum(ctx context.Context, artist, album string) (int64, bool, error) {
	return findAlbum(ctx, t.tx, artist, album)
}

func findAlbum(ctx context.Context, q queryer, artist, album string) (int64, bool, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id FROM albums WHERE artist = ? AND album = ? ORDER BY id ASC LIMIT 2",
		artist, album)
	if err != nil {
		return 0, false, fmt.Errorf("find album: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, false, fmt.Errorf("find album: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, false, fmt.Errorf("find album: %w", err)
	}

	switch len(ids) {
	case 0:
		return 0, false, nil
	case 1:
		return ids[0], true, nil
	default:
		return 0, false, &IntegrityError{Artist: artist, Album: album}
	}
}

// AlbumByArtistName returns the full album row stored under (artist,
// album), with the same uniqueness enforcement as FindAlbum.
func (s *Store) AlbumByArtistName(ctx context.Context, artist, album string) (*library.Album, bool, error) {
	return albumByArtistName(ctx, s.db, artist, album)
}

// AlbumByArtistName is the transactional variant of
// Store.AlbumByArtistName.
func (t *Tx) AlbumByArtistName(ctx context.Context, artist, album string) (*library.Album, bool, error) {
	return albumByArtistName(ctx, t.tx, artist, album)
}

func albumByArtistName(ctx context.Context, q queryer, artist, album string) (*library.Album, bool, error) {
	albums, err := queryAlbums(ctx, q,
		"SELECT "+albumColumns+" FROM albums WHERE artist = ? AND album = ? ORDER BY id ASC LIMIT 2",
		artist, album)
	if err != nil {
		return nil, false, err
	}
	switch len(albums) {
	case 0:
		return nil, false, nil
	case 1:
		return albums[0], true, nil
	default:
		return nil, false, &IntegrityError{Artist: artist, Album: album}
	}
}

// AlbumByID returns the album with the given primary key.
func (s *Store) AlbumByID(ctx context.Context, id int64) (*library.Album, bool, error) {
	albums, err := queryAlbums(ctx, s.db, "SELECT "+albumColumns+" FROM albums WHERE id = ?", id)
	if err != nil {
		return nil, false, err
	}
	if len(albums) == 0 {
		return nil, false, nil
	}
	return albums[0], true, nil
}
