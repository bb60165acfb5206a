package shared

import (
	"errors"
	"testing"
)

func TestParseProvider(t *testing.T) {
	for _, name := range []string{"itunes", "spotify", "gaana", "deezer", "saavn", "lastfm", "musicbrainz"} {
		p, err := ParseProvider(name)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if p.String() != name {
			t.Errorf("round trip of %s gave %s", name, p)
		}
	}
	if _, err := ParseProvider("unknown"); err == nil {
		t.Error("unknown must not parse")
	}
	if _, err := ParseProvider("napster"); err == nil {
		t.Error("napster must not parse")
	}
}

func TestBackfillOnlyFillsEmptyFields(t *testing.T) {
	c := TrackCandidate{Provider: ProviderDeezer, Title: "One More Time", Artist: "Daft Punk"}
	detail := TrackCandidate{Title: "One More Time (Radio Edit)", Album: "Discovery", Genre: "House", ReleaseDate: "2001-03-12"}

	got := c.Backfill(detail)
	if got.Title != "One More Time" {
		t.Errorf("title overwritten: %s", got.Title)
	}
	if got.Album != "Discovery" || got.Genre != "House" || got.Year() != "2001" {
		t.Errorf("fields not backfilled: %+v", got)
	}
	if got.Provider != ProviderDeezer {
		t.Errorf("provider changed to %s", got.Provider)
	}
}

func TestBatchStatsRecord(t *testing.T) {
	var stats BatchStats
	stats.Record(PipelineOutcome{Kind: OutcomeSucceeded})
	stats.Record(PipelineOutcome{Kind: OutcomeSkipped})
	stats.Record(PipelineOutcome{Kind: OutcomeFailed, Entry: PlaylistEntry{RawTitle: "Broken"}})

	if stats.SuccessCount != 1 || stats.SkippedCount != 1 || stats.FailedCount != 1 {
		t.Errorf("unexpected counts %+v", stats)
	}
	if len(stats.FailedItems) != 1 || stats.FailedItems[0] != "Broken" {
		t.Errorf("unexpected failed items %v", stats.FailedItems)
	}
	if len(stats.Outcomes) != 3 {
		t.Errorf("expected 3 outcomes, got %d", len(stats.Outcomes))
	}
}

func TestErrorChains(t *testing.T) {
	tagErr := &TaggingError{Field: "TITLE", Err: errors.New("disk full")}
	failure := &EntryFailure{Entry: PlaylistEntry{VideoID: "abc"}, State: "converted", Err: tagErr}

	var te *TaggingError
	if !errors.As(failure, &te) || te.Field != "TITLE" {
		t.Error("EntryFailure must unwrap to the TaggingError")
	}
	if failure.Error() != "abc failed at converted: tagging TITLE failed: disk full" {
		t.Errorf("unexpected message %q", failure.Error())
	}

	pq := &ProviderQueryError{Provider: ProviderGaana, Err: ErrUnauthorizedLookup}
	if !errors.Is(pq, ErrUnauthorizedLookup) {
		t.Error("ProviderQueryError must unwrap")
	}
}
