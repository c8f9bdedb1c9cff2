// Package report renders listening statistics from the catalog: a yearly
// CSV and the milestone listing.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// YearlySource is the slice of the store the yearly report reads.
// *store.Store satisfies it.
type YearlySource interface {
	YearRange(ctx context.Context) (int, int, error)
	YearStats(ctx context.Context, year int) (int, int, error)
}

// Yearly writes one CSV row per calendar year between the first and last
// logged play: track count, hours listened, and minutes per track, both to
// two decimals. A year with no plays gets zeros. An empty catalog produces
// just the header.
func Yearly(ctx context.Context, src YearlySource, w io.Writer) error {
	first, last, err := src.YearRange(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Year", "Tracks", "Hours", "Minutes Per Track"}); err != nil {
		return fmt.Errorf("yearly report: %w", err)
	}
	if first != 0 {
		for year := first; year <= last; year++ {
			tracks, seconds, err := src.YearStats(ctx, year)
			if err != nil {
				return err
			}
			perTrack := 0.0
			if tracks > 0 {
				perTrack = float64(seconds) / 60 / float64(tracks)
			}
			row := []string{
				strconv.Itoa(year),
				strconv.Itoa(tracks),
				strconv.FormatFloat(float64(seconds)/3600, 'f', 2, 64),
				strconv.FormatFloat(perTrack, 'f', 2, 64),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("yearly report: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("yearly report: %w", err)
	}
	return nil
}
