// Package reconcile brings stored records up to date with the rule set.
//
// A catch-up run walks every album and then every track whose watermark
// sits below the set's max id, applies the pending rules, persists the
// records a rule actually changed, and finally snaps every examined row's
// watermark to the max id in one bulk update per table. Albums go first so
// an album rename has landed before the tracks referencing it are walked.
//
// The reconciler runs against a Catalog, which in production is an open
// store transaction: every per-record write and both bulk updates become
// durable in a single commit, and a run that dies midway leaves nothing
// half-applied. Rerunning after a failure is safe because applying a rule
// a second time changes nothing.
package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/tracklog/internal/library"
	"github.com/roach88/tracklog/internal/transform"
)

// Catalog is the storage surface a catch-up run needs. *store.Tx satisfies
// it; handing the reconciler a transaction is what makes the run atomic.
type Catalog interface {
	AlbumsBehind(ctx context.Context, maxID int64) ([]*library.Album, error)
	TracksBehind(ctx context.Context, maxID int64) ([]*library.Track, error)
	UpdateAlbum(ctx context.Context, album *library.Album) error
	UpdateTrackFields(ctx context.Context, track *library.Track) error
	AdvanceAlbumWatermarks(ctx context.Context, maxID, maxPK int64) (int64, error)
	AdvanceTrackWatermarks(ctx context.Context, maxID, maxPK int64) (int64, error)
}

// Stats summarizes one catch-up run.
type Stats struct {
	RunID          string
	MaxRuleID      int64
	AlbumsExamined int
	AlbumsChanged  int
	TracksExamined int
	TracksChanged  int
}

// Reconciler drives catch-up runs. Construct with New; zero value is not
// usable.
type Reconciler struct {
	catalog Catalog
	rules   *transform.RuleSet
	report  func(line string)
	logger  zerolog.Logger
	runGen  RunTokenGenerator
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger routes the run's structured log lines through logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithRunTokens substitutes the run id generator, fixed in tests.
func WithRunTokens(gen RunTokenGenerator) Option {
	return func(r *Reconciler) {
		r.runGen = gen
	}
}

// New returns a Reconciler over catalog and rules. Report lines stream
// through the report callback as the run progresses; nil suppresses them.
func New(catalog Catalog, rules *transform.RuleSet, report func(line string), opts ...Option) *Reconciler {
	r := &Reconciler{
		catalog: catalog,
		rules:   rules,
		report:  report,
		logger:  zerolog.Nop(),
		runGen:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one catch-up pass: albums, then tracks, then the bulk
// watermark advances. Callers own the transaction; Run never commits.
func (r *Reconciler) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		RunID:     r.runGen.Generate(),
		MaxRuleID: r.rules.MaxID(),
	}
	logger := r.logger.With().Str("run_id", stats.RunID).Logger()
	logger.Info().
		Int64("max_rule", stats.MaxRuleID).
		Int("rules", r.rules.Len()).
		Msg("starting catch-up run")

	maxAlbumPK, err := r.runAlbums(ctx, stats)
	if err != nil {
		return nil, err
	}
	maxTrackPK, err := r.runTracks(ctx, stats)
	if err != nil {
		return nil, err
	}

	if maxAlbumPK > -1 {
		r.emit(fmt.Sprintf("Updating albums through %d to transform level %d", maxAlbumPK, stats.MaxRuleID))
		if _, err := r.catalog.AdvanceAlbumWatermarks(ctx, stats.MaxRuleID, maxAlbumPK); err != nil {
			return nil, err
		}
	}
	if maxTrackPK > -1 {
		r.emit(fmt.Sprintf("Updating tracks through %d to transform level %d", maxTrackPK, stats.MaxRuleID))
		if _, err := r.catalog.AdvanceTrackWatermarks(ctx, stats.MaxRuleID, maxTrackPK); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Int("albums_examined", stats.AlbumsExamined).
		Int("albums_changed", stats.AlbumsChanged).
		Int("tracks_examined", stats.TracksExamined).
		Int("tracks_changed", stats.TracksChanged).
		Msg("catch-up run complete")
	return stats, nil
}

// runAlbums walks every album behind the rule set and returns the highest
// primary key seen, -1 when none were behind.
func (r *Reconciler) runAlbums(ctx context.Context, stats *Stats) (int64, error) {
	albums, err := r.catalog.AlbumsBehind(ctx, r.rules.MaxID())
	if err != nil {
		return -1, err
	}

	maxPK := int64(-1)
	for _, album := range albums {
		if album.Key() > maxPK {
			maxPK = album.Key()
		}
		stats.AlbumsExamined++

		before := fmt.Sprintf("(level %03d) %s", album.Watermark(), album)
		r.rules.Apply(album)
		if !album.Dirty() {
			continue
		}
		if err := r.catalog.UpdateAlbum(ctx, album); err != nil {
			return -1, err
		}
		stats.AlbumsChanged++
		r.emit("Previous Album " + before)
		r.emit(fmt.Sprintf("     New Album (level %03d) %s", album.Watermark(), album))
		r.emit("---")
	}
	return maxPK, nil
}

// runTracks mirrors runAlbums over the play log.
func (r *Reconciler) runTracks(ctx context.Context, stats *Stats) (int64, error) {
	tracks, err := r.catalog.TracksBehind(ctx, r.rules.MaxID())
	if err != nil {
		return -1, err
	}

	maxPK := int64(-1)
	for _, track := range tracks {
		if track.Key() > maxPK {
			maxPK = track.Key()
		}
		stats.TracksExamined++

		before := fmt.Sprintf("(level %03d) %s", track.Watermark(), track)
		r.rules.Apply(track)
		if !track.Dirty() {
			continue
		}
		if err := r.catalog.UpdateTrackFields(ctx, track); err != nil {
			return -1, err
		}
		stats.TracksChanged++
		r.emit("Previous Track " + before)
		r.emit(fmt.Sprintf("     New Track (level %03d) %s", track.Watermark(), track))
		r.emit("---")
	}
	return maxPK, nil
}

func (r *Reconciler) emit(line string) {
	if r.report != nil {
		r.report(line)
	}
}
