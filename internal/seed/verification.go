package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/vidtag/pkg/logger"
)

// ErrVerification is returned when the server's list disagrees with what was submitted.
var ErrVerification = errors.New("verification failed")

// verifyResults checks that every accepted event is listed and that the list
// is newest first.
func verifyResults(ctx context.Context, entries []Entry, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results", logger.Int("entries", len(entries)))

	stats.EventsAfter = len(entries)
	if want := stats.EventsBefore + stats.EventsSuccessful; len(entries) != want {
		return fmt.Errorf("%w: listed %d events, expected %d", ErrVerification, len(entries), want)
	}
	if err := verifyOrder(entries); err != nil {
		return err
	}

	logger.Get().Info(ctx, "result verification completed")
	return nil
}

// verifyOrder checks that positions never increase down the list and that
// indexes are contiguous.
func verifyOrder(entries []Entry) error {
	for i, e := range entries {
		if e.Index != i {
			return fmt.Errorf("%w: entry %d reports index %d", ErrVerification, i, e.Index)
		}
		if i > 0 && e.VideoMS > entries[i-1].VideoMS {
			return fmt.Errorf("%w: entry %d at %dms follows %dms", ErrVerification, i, e.VideoMS, entries[i-1].VideoMS)
		}
	}
	return nil
}
