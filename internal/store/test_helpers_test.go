package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/tracklog/internal/library"
)

// createTestStore creates a store backed by a temp database file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTrack builds a minimal valid track played at the given time.
func createTestTrack(artist, album, title string, playedAt time.Time) *library.Track {
	return &library.Track{
		Artist:   artist,
		Album:    album,
		Title:    title,
		Seconds:  180,
		Source:   library.SourceXMMS,
		PlayedAt: playedAt,
	}
}

// createTestAlbum builds a minimal valid album.
func createTestAlbum(artist, name string) *library.Album {
	return &library.Album{
		Artist:       artist,
		Name:         name,
		Type:         library.TypeAlbum,
		TotalTracks:  10,
		TotalSeconds: 2400,
	}
}

// mustInsertTrack inserts a track and fails the test on error.
func mustInsertTrack(t *testing.T, s *Store, track *library.Track) int64 {
	t.Helper()
	id, err := s.InsertTrack(context.Background(), track)
	if err != nil {
		t.Fatalf("InsertTrack() failed: %v", err)
	}
	return id
}

// mustInsertAlbum inserts an album and fails the test on error.
func mustInsertAlbum(t *testing.T, s *Store, album *library.Album) int64 {
	t.Helper()
	id, err := s.InsertAlbum(context.Background(), album)
	if err != nil {
		t.Fatalf("InsertAlbum() failed: %v", err)
	}
	return id
}
