package report

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/tracklog/internal/library"
)

// DefaultInterval is the milestone spacing used when none is given.
const DefaultInterval = 10000

// MilestoneSource is the slice of the store the milestone report reads.
// *store.Store satisfies it.
type MilestoneSource interface {
	TrackCount(ctx context.Context) (int64, error)
	TrackAtPlayIndex(ctx context.Context, index int64) (*library.Track, bool, error)
}

// Milestones writes the total play count followed by every interval-th
// play in listening order. Counts and milestone numbers are grouped with
// commas; the trailing number on each milestone line is the album id.
func Milestones(ctx context.Context, src MilestoneSource, w io.Writer, interval int64) error {
	if interval < 1 {
		return fmt.Errorf("milestone interval must be positive, got %d", interval)
	}

	total, err := src.TrackCount(ctx)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	if _, err := fmt.Fprintf(w, "%s total tracks listened to\n", p.Sprintf("%d", total)); err != nil {
		return fmt.Errorf("milestone report: %w", err)
	}
	if _, err := fmt.Fprintln(w, "---"); err != nil {
		return fmt.Errorf("milestone report: %w", err)
	}

	for index := interval - 1; index < total; index += interval {
		track, found, err := src.TrackAtPlayIndex(ctx, index)
		if err != nil {
			return err
		}
		if !found {
			break
		}
		_, err = fmt.Fprintf(w, "%s: %s's %s, from %s (%d)\n",
			p.Sprintf("%d", index+1), track.Artist, track.Title, track.Album, track.AlbumID)
		if err != nil {
			return fmt.Errorf("milestone report: %w", err)
		}
	}
	return nil
}
