package search

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"tuneharvest/internal/shared"
)

type stubResolver struct {
	list shared.RankedCandidateList
	err  error
}

func (s stubResolver) Resolve(ctx context.Context, q string) (shared.RankedCandidateList, error) {
	return s.list, s.err
}

func (s stubResolver) ResolveWithFallback(ctx context.Context, primary, alternate string) (shared.RankedCandidateList, error) {
	return s.list, s.err
}

func TestRenderCandidates(t *testing.T) {
	out := RenderCandidates(shared.RankedCandidateList{
		{Provider: shared.ProviderITunes, Title: "Tera Buzz", Artist: "Kamal Raja", ReleaseDate: "2019-05-01"},
		{Provider: shared.ProviderGaana, Title: "Tera Buzz", Artist: "Kamal Raja"},
	})
	for _, want := range []string{"PROVIDER", "itunes", "gaana", "Kamal Raja", "2019"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "itunes") > strings.Index(out, "gaana") {
		t.Error("rows must keep ranking order")
	}
}

func TestRenderOutcomes(t *testing.T) {
	var stats shared.BatchStats
	stats.Record(shared.PipelineOutcome{Kind: shared.OutcomeSucceeded, Title: "Song", Destination: "/music/Song.mp3", Tagged: true})
	stats.Record(shared.PipelineOutcome{Kind: shared.OutcomeSkipped, Entry: shared.PlaylistEntry{RawTitle: "Private"}})
	stats.Record(shared.PipelineOutcome{Kind: shared.OutcomeFailed, Title: "Bad", Err: errors.New("boom")})

	out := RenderOutcomes(stats)
	for _, want := range []string{"/music/Song.mp3", "skipped", "Private", "failed", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTableNoHeaders(t *testing.T) {
	if got := renderTable(nil, nil, nil); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestHandleResolve(t *testing.T) {
	var buf bytes.Buffer
	list := shared.RankedCandidateList{{Provider: shared.ProviderDeezer, Title: "One More Time", Artist: "Daft Punk"}}
	got, err := HandleResolve(context.Background(), stubResolver{list: list}, "one more time", "", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 candidate, got %d", len(got))
	}
	if !strings.Contains(buf.String(), "Chosen: Daft Punk - One More Time (deezer)") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	buf.Reset()
	_, err = HandleResolve(context.Background(), stubResolver{err: shared.ErrMetadataNotFound}, "nothing", "", &buf)
	if !errors.Is(err, shared.ErrMetadataNotFound) {
		t.Errorf("expected ErrMetadataNotFound, got %v", err)
	}
	if !strings.Contains(buf.String(), "No results found.") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
