package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracklog/internal/library"
	"github.com/roach88/tracklog/internal/resolver"
	"github.com/roach88/tracklog/internal/scan"
	"github.com/roach88/tracklog/internal/transform"
)

// fakeTrackWriter records inserts, assigning ids the way the store does.
type fakeTrackWriter struct {
	inserted []*library.Track
	nextID   int64
}

func (f *fakeTrackWriter) InsertTrack(_ context.Context, track *library.Track) (int64, error) {
	f.nextID++
	track.ID = f.nextID
	clone := *track
	f.inserted = append(f.inserted, &clone)
	return f.nextID, nil
}

// fakeFinder resolves albums from a map keyed "artist / album".
type fakeFinder map[string]int64

func (f fakeFinder) FindAlbum(_ context.Context, artist, album string) (int64, bool, error) {
	id, ok := f[artist+" / "+album]
	return id, ok, nil
}

// stubReader serves scanned metadata from a map keyed by path.
func stubReader(infos map[string]*scan.Info) ReadTrackFunc {
	return func(path string) (*scan.Info, error) {
		info, ok := infos[path]
		if !ok {
			return nil, &scan.ScanError{Code: scan.ErrCodeNotFound, Path: path}
		}
		clone := *info
		return &clone, nil
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// loggerRules renames the Beatles, so every logged track exercises the
// rewrite path.
func loggerRules(t *testing.T) *transform.RuleSet {
	t.Helper()
	set := transform.NewRuleSet()
	require.NoError(t, set.Insert(&transform.Rule{ID: 1, Ops: map[transform.Field]transform.FieldOp{
		transform.FieldArtist: {Cond: true, Pattern: "Beatles", Change: true, Replacement: "The Beatles"},
	}}))
	return set
}

var logClock = time.Date(2024, 3, 15, 18, 0, 0, 0, time.Local)

func newTestLogger(writer *fakeTrackWriter, infos map[string]*scan.Info, rules *transform.RuleSet, finder fakeFinder) *Logger {
	return NewLogger(writer, rules, resolver.New(finder),
		WithReadTrack(stubReader(infos)),
		WithClock(fixedClock(logClock)))
}

func abbeyRoadInfos() map[string]*scan.Info {
	return map[string]*scan.Info{
		"a.mp3": {Artist: "Beatles", Album: "Abbey Rd", Title: "Come Together", TrackNum: 1, Length: 180 * time.Second},
		"b.mp3": {Artist: "Beatles", Album: "Abbey Rd", Title: "Something", TrackNum: 2, Length: 120 * time.Second},
	}
}

func TestLogFiles_SingleFile(t *testing.T) {
	writer := &fakeTrackWriter{}
	finder := fakeFinder{"The Beatles / Abbey Rd": 7}
	logger := newTestLogger(writer, abbeyRoadInfos(), loggerRules(t), finder)

	tracks, statuses, err := logger.LogFiles(context.Background(), []string{"a.mp3"}, library.SourceXMMS, "")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	require.Len(t, writer.inserted, 1)

	got := writer.inserted[0]
	assert.Equal(t, "The Beatles", got.Artist)
	assert.Equal(t, int64(7), got.AlbumID)
	assert.Equal(t, int64(1), got.Watermark())
	assert.Equal(t, 180, got.Seconds)
	assert.True(t, got.PlayedAt.Equal(logClock))

	require.Len(t, statuses, 1)
	assert.Equal(t, "Track logged: ID 1: The Beatles / Abbey Rd (album 7) - Come Together", statuses[0])
}

func TestLogFiles_SingleFileExplicitTime(t *testing.T) {
	writer := &fakeTrackWriter{}
	logger := newTestLogger(writer, abbeyRoadInfos(), loggerRules(t), fakeFinder{})

	_, _, err := logger.LogFiles(context.Background(), []string{"a.mp3"}, library.SourceCar, "2024-01-05 09:30:00")
	require.NoError(t, err)

	want := time.Date(2024, 1, 5, 9, 30, 0, 0, time.Local)
	require.Len(t, writer.inserted, 1)
	assert.True(t, writer.inserted[0].PlayedAt.Equal(want))
	assert.Equal(t, library.SourceCar, writer.inserted[0].Source)
}

func TestLogFiles_MultipleBackdated(t *testing.T) {
	// Two tracks totaling five minutes: the first starts five minutes
	// before now, the second when the first ends.
	writer := &fakeTrackWriter{}
	finder := fakeFinder{"The Beatles / Abbey Rd": 7}
	logger := newTestLogger(writer, abbeyRoadInfos(), loggerRules(t), finder)

	tracks, statuses, err := logger.LogFiles(context.Background(), []string{"a.mp3", "b.mp3"}, library.SourceXMMS, "")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	require.Len(t, writer.inserted, 2)

	assert.True(t, writer.inserted[0].PlayedAt.Equal(logClock.Add(-300*time.Second)))
	assert.True(t, writer.inserted[1].PlayedAt.Equal(logClock.Add(-120*time.Second)))

	require.Len(t, statuses, 2)
	assert.Equal(t, `Track logged at "2024-03-15 17:55:00": ID 1: The Beatles / Abbey Rd (album 7) - Come Together`, statuses[0])
	assert.Equal(t, `Track logged at "2024-03-15 17:58:00": ID 2: The Beatles / Abbey Rd (album 7) - Something`, statuses[1])
}

func TestLogFiles_MultipleExplicitTime(t *testing.T) {
	// An explicit time anchors the first track; no back-dating happens.
	writer := &fakeTrackWriter{}
	logger := newTestLogger(writer, abbeyRoadInfos(), loggerRules(t), fakeFinder{})

	_, _, err := logger.LogFiles(context.Background(), []string{"a.mp3", "b.mp3"}, library.SourceXMMS, "2024-01-05 09:30:00")
	require.NoError(t, err)

	first := time.Date(2024, 1, 5, 9, 30, 0, 0, time.Local)
	require.Len(t, writer.inserted, 2)
	assert.True(t, writer.inserted[0].PlayedAt.Equal(first))
	assert.True(t, writer.inserted[1].PlayedAt.Equal(first.Add(180*time.Second)))
}

func TestLogFiles_NoFilenames(t *testing.T) {
	writer := &fakeTrackWriter{}
	logger := newTestLogger(writer, abbeyRoadInfos(), loggerRules(t), fakeFinder{})

	tracks, statuses, err := logger.LogFiles(context.Background(), nil, library.SourceXMMS, "")
	require.NoError(t, err)
	assert.Empty(t, tracks)
	assert.Equal(t, []string{"No filenames specified"}, statuses)
	assert.Empty(t, writer.inserted)
}

func TestLogFiles_UnreadableFileFailsBatch(t *testing.T) {
	// The bad file is read before anything is written, so the whole
	// batch stays out of the catalog.
	writer := &fakeTrackWriter{}
	logger := newTestLogger(writer, abbeyRoadInfos(), loggerRules(t), fakeFinder{})

	_, _, err := logger.LogFiles(context.Background(), []string{"a.mp3", "missing.mp3"}, library.SourceXMMS, "")
	require.Error(t, err)
	assert.True(t, scan.IsScanError(err))
	assert.Empty(t, writer.inserted)
}

func TestLogFiles_BadTimestamp(t *testing.T) {
	writer := &fakeTrackWriter{}
	logger := newTestLogger(writer, abbeyRoadInfos(), loggerRules(t), fakeFinder{})

	_, _, err := logger.LogFiles(context.Background(), []string{"a.mp3"}, library.SourceXMMS, "florb glorb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not parse requested timestamp")
	assert.Empty(t, writer.inserted)
}

func TestLogFiles_RejectsOversizedTag(t *testing.T) {
	writer := &fakeTrackWriter{}
	infos := map[string]*scan.Info{
		"long.mp3": {Artist: strings.Repeat("x", library.MaxNameLen+1), Album: "A", Title: "T", Length: 60 * time.Second},
	}
	logger := newTestLogger(writer, infos, loggerRules(t), fakeFinder{})

	_, _, err := logger.LogFiles(context.Background(), []string{"long.mp3"}, library.SourceXMMS, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "longer than")
	assert.Empty(t, writer.inserted)
}

func TestLogFiles_UnresolvedAlbumLogsWithZero(t *testing.T) {
	writer := &fakeTrackWriter{}
	logger := newTestLogger(writer, abbeyRoadInfos(), loggerRules(t), fakeFinder{})

	_, statuses, err := logger.LogFiles(context.Background(), []string{"a.mp3"}, library.SourceXMMS, "")
	require.NoError(t, err)
	require.Len(t, writer.inserted, 1)
	assert.Equal(t, int64(0), writer.inserted[0].AlbumID)
	assert.Contains(t, statuses[0], "(album 0)")
}
