package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/tracklog/internal/library"
	"github.com/roach88/tracklog/internal/resolver"
	"github.com/roach88/tracklog/internal/scan"
	"github.com/roach88/tracklog/internal/transform"
)

// TrackWriter persists logged plays. *store.Tx satisfies it.
type TrackWriter interface {
	InsertTrack(ctx context.Context, track *library.Track) (int64, error)
}

// Logger records plays of audio files.
type Logger struct {
	catalog  TrackWriter
	rules    *transform.RuleSet
	resolver *resolver.Resolver
	read     ReadTrackFunc
	now      func() time.Time
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithReadTrack swaps the file reader, for tests.
func WithReadTrack(fn ReadTrackFunc) LoggerOption {
	return func(l *Logger) { l.read = fn }
}

// WithClock swaps the time source, for tests.
func WithClock(now func() time.Time) LoggerOption {
	return func(l *Logger) { l.now = now }
}

// NewLogger returns a Logger writing through catalog. The resolver must be
// bound to the same transaction as catalog.
func NewLogger(catalog TrackWriter, rules *transform.RuleSet, res *resolver.Resolver, opts ...LoggerOption) *Logger {
	l := &Logger{
		catalog:  catalog,
		rules:    rules,
		resolver: res,
		read:     scan.ReadTrack,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogFiles logs a play of each named file and returns the logged tracks
// with user-facing status lines.
//
// A single file logs at the given time, defaulting to now. Multiple files
// with no explicit time back-date the start by their total length, so the
// last track ends at now; with an explicit time the first track starts
// there. Each track's timestamp advances by the previous track's length
// either way.
func (l *Logger) LogFiles(ctx context.Context, filenames []string, source library.Source, at string) ([]*library.Track, []string, error) {
	start := l.now()
	explicit := at != ""
	if explicit {
		parsed, err := ParseTime(at, l.now())
		if err != nil {
			return nil, nil, err
		}
		start = parsed
	}

	if len(filenames) == 0 {
		return nil, []string{"No filenames specified"}, nil
	}

	if len(filenames) == 1 {
		info, err := l.read(filenames[0])
		if err != nil {
			return nil, nil, err
		}
		track := trackFromInfo(info, source)
		if err := l.insert(ctx, track, start); err != nil {
			return nil, nil, err
		}
		return []*library.Track{track}, []string{fmt.Sprintf("Track logged: %s", track)}, nil
	}

	// Read everything up front: the total length decides the start time,
	// and a bad file must fail the batch before anything is written.
	tracks := make([]*library.Track, 0, len(filenames))
	total := 0
	for _, filename := range filenames {
		info, err := l.read(filename)
		if err != nil {
			return nil, nil, err
		}
		tracks = append(tracks, trackFromInfo(info, source))
		total += info.Seconds()
	}
	if !explicit {
		start = start.Add(-time.Duration(total) * time.Second)
	}

	statuses := make([]string, 0, len(tracks))
	for _, track := range tracks {
		if err := l.insert(ctx, track, start); err != nil {
			return nil, nil, err
		}
		statuses = append(statuses, fmt.Sprintf("Track logged at %q: %s", start.Format(timeLayout), track))
		start = start.Add(time.Duration(track.Seconds) * time.Second)
	}
	return tracks, statuses, nil
}

// insert runs one track through the rewrite rules and album resolution,
// then persists it with the given play time.
func (l *Logger) insert(ctx context.Context, track *library.Track, at time.Time) error {
	l.rules.Apply(track)
	if err := track.Validate(); err != nil {
		return err
	}
	if _, err := l.resolver.Resolve(ctx, track); err != nil {
		return err
	}
	track.PlayedAt = at
	_, err := l.catalog.InsertTrack(ctx, track)
	return err
}
