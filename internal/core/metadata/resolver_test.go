package metadata

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"tuneharvest/internal/interfaces"
	"tuneharvest/internal/shared"
)

type stubAdapter struct {
	provider shared.Provider
	results  map[string][]shared.TrackCandidate
	err      error
	panics   bool
	delay    time.Duration
	calls    int32
	queries  []string
}

func (s *stubAdapter) Provider() shared.Provider { return s.provider }

func (s *stubAdapter) Query(ctx context.Context, query string) ([]shared.TrackCandidate, error) {
	atomic.AddInt32(&s.calls, 1)
	s.queries = append(s.queries, query)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panics {
		panic("adapter exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

func candidates(provider shared.Provider, prefix string, n int) []shared.TrackCandidate {
	out := make([]shared.TrackCandidate, n)
	for i := range out {
		out[i] = shared.TrackCandidate{Provider: provider, Title: fmt.Sprintf("%s%d", prefix, i)}
	}
	return out
}

func titles(list shared.RankedCandidateList) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Title
	}
	return out
}

func rankingFixture() []interfaces.ProviderAdapter {
	return []interfaces.ProviderAdapter{
		&stubAdapter{provider: shared.ProviderITunes, results: map[string][]shared.TrackCandidate{"q": candidates(shared.ProviderITunes, "A", 12)}},
		&stubAdapter{provider: shared.ProviderSpotify, results: map[string][]shared.TrackCandidate{}},
		&stubAdapter{provider: shared.ProviderGaana, results: map[string][]shared.TrackCandidate{"q": candidates(shared.ProviderGaana, "C", 3)}},
	}
}

func TestResolveRankingOrder(t *testing.T) {
	want := []string{"A0", "A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "C0", "C1", "C2", "A10", "A11"}

	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			r := NewResolver(rankingFixture(), Options{Parallel: parallel}, nil, nil)
			list, err := r.Resolve(context.Background(), "q")
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			got := titles(list)
			if fmt.Sprint(got) != fmt.Sprint(want) {
				t.Errorf("ranking = %v\nwant      %v", got, want)
			}
		})
	}
}

func TestResolvePrefersFirstProviderWithResults(t *testing.T) {
	adapters := []interfaces.ProviderAdapter{
		&stubAdapter{provider: shared.ProviderITunes, results: map[string][]shared.TrackCandidate{
			"Tera Buzz": {{Provider: shared.ProviderITunes, Title: "Tera Buzz", Artist: "Kamal Raja"}},
		}},
		&stubAdapter{provider: shared.ProviderSpotify},
		&stubAdapter{provider: shared.ProviderGaana, results: map[string][]shared.TrackCandidate{
			"Tera Buzz": {{Provider: shared.ProviderGaana, Title: "Tera Buzz"}},
		}},
	}
	r := NewResolver(adapters, Options{}, nil, nil)

	list, err := r.Resolve(context.Background(), "Tera Buzz")
	if err != nil {
		t.Fatal(err)
	}
	best, ok := list.Best()
	if !ok {
		t.Fatal("expected a chosen candidate")
	}
	if best.Provider.String() != "itunes" {
		t.Errorf("chosen provider = %s, want itunes", best.Provider)
	}
}

func TestResolveSkipsFailingProviders(t *testing.T) {
	warnings := shared.NewWarningCollector(true)
	adapters := []interfaces.ProviderAdapter{
		&stubAdapter{provider: shared.ProviderITunes, err: errors.New("timeout")},
		&stubAdapter{provider: shared.ProviderSpotify, panics: true},
		&stubAdapter{provider: shared.ProviderGaana, results: map[string][]shared.TrackCandidate{"q": candidates(shared.ProviderGaana, "G", 1)}},
	}
	r := NewResolver(adapters, Options{}, warnings, nil)

	list, err := r.Resolve(context.Background(), "q")
	if err != nil {
		t.Fatalf("one working provider must be enough: %v", err)
	}
	if len(list) != 1 || list[0].Provider != shared.ProviderGaana {
		t.Errorf("unexpected result %+v", list)
	}
	if got := len(warnings.GetWarningsByType()[shared.ProviderQueryWarning]); got != 2 {
		t.Errorf("expected 2 provider warnings, got %d", got)
	}
}

func TestResolveNotFound(t *testing.T) {
	tests := []struct {
		name     string
		adapters []interfaces.ProviderAdapter
	}{
		{"all empty", []interfaces.ProviderAdapter{
			&stubAdapter{provider: shared.ProviderITunes},
			&stubAdapter{provider: shared.ProviderGaana},
		}},
		{"all failing", []interfaces.ProviderAdapter{
			&stubAdapter{provider: shared.ProviderITunes, err: errors.New("boom")},
			&stubAdapter{provider: shared.ProviderGaana, panics: true},
		}},
		{"no providers", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.adapters, Options{}, nil, nil)
			_, err := r.Resolve(context.Background(), "nothing")
			if !errors.Is(err, shared.ErrMetadataNotFound) {
				t.Errorf("expected ErrMetadataNotFound, got %v", err)
			}
		})
	}
}

func TestResolveStampsMissingProvider(t *testing.T) {
	adapter := &stubAdapter{provider: shared.ProviderDeezer, results: map[string][]shared.TrackCandidate{
		"q": {{Title: "untagged"}},
	}}
	r := NewResolver([]interfaces.ProviderAdapter{adapter}, Options{}, nil, nil)
	list, err := r.Resolve(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if list[0].Provider != shared.ProviderDeezer {
		t.Errorf("expected deezer, got %s", list[0].Provider)
	}
}

func TestResolveWithFallback(t *testing.T) {
	t.Run("primary result short-circuits", func(t *testing.T) {
		adapter := &stubAdapter{provider: shared.ProviderITunes, results: map[string][]shared.TrackCandidate{
			"cleaned": {{Title: "weak match"}},
			"display": {{Title: "better match"}},
		}}
		r := NewResolver([]interfaces.ProviderAdapter{adapter}, Options{}, nil, nil)

		list, err := r.ResolveWithFallback(context.Background(), "cleaned", "display")
		if err != nil {
			t.Fatal(err)
		}
		if list[0].Title != "weak match" {
			t.Errorf("expected primary result, got %s", list[0].Title)
		}
		if fmt.Sprint(adapter.queries) != "[cleaned]" {
			t.Errorf("alternate query must not run, queries = %v", adapter.queries)
		}
	})

	t.Run("alternate used on not found", func(t *testing.T) {
		adapter := &stubAdapter{provider: shared.ProviderITunes, results: map[string][]shared.TrackCandidate{
			"display": {{Title: "found"}},
		}}
		r := NewResolver([]interfaces.ProviderAdapter{adapter}, Options{}, nil, nil)

		list, err := r.ResolveWithFallback(context.Background(), "cleaned", "display")
		if err != nil {
			t.Fatal(err)
		}
		if list[0].Title != "found" {
			t.Errorf("expected alternate result, got %s", list[0].Title)
		}
	})

	t.Run("both empty", func(t *testing.T) {
		adapter := &stubAdapter{provider: shared.ProviderITunes}
		r := NewResolver([]interfaces.ProviderAdapter{adapter}, Options{}, nil, nil)

		_, err := r.ResolveWithFallback(context.Background(), "cleaned", "display")
		if !errors.Is(err, shared.ErrMetadataNotFound) {
			t.Errorf("expected ErrMetadataNotFound, got %v", err)
		}
		if len(adapter.queries) != 2 {
			t.Errorf("expected 2 queries, got %v", adapter.queries)
		}
	})

	t.Run("identical alternate is not retried", func(t *testing.T) {
		adapter := &stubAdapter{provider: shared.ProviderITunes}
		r := NewResolver([]interfaces.ProviderAdapter{adapter}, Options{}, nil, nil)

		_, err := r.ResolveWithFallback(context.Background(), "same", " Same ")
		if !errors.Is(err, shared.ErrMetadataNotFound) {
			t.Errorf("expected ErrMetadataNotFound, got %v", err)
		}
		if len(adapter.queries) != 1 {
			t.Errorf("expected 1 query, got %v", adapter.queries)
		}
	})
}

func TestResolveParallelRunsConcurrently(t *testing.T) {
	var adapters []interfaces.ProviderAdapter
	for _, p := range []shared.Provider{shared.ProviderITunes, shared.ProviderGaana, shared.ProviderDeezer} {
		adapters = append(adapters, &stubAdapter{
			provider: p,
			delay:    50 * time.Millisecond,
			results:  map[string][]shared.TrackCandidate{"q": candidates(p, p.String(), 1)},
		})
	}
	r := NewResolver(adapters, Options{Parallel: true}, nil, nil)

	start := time.Now()
	list, err := r.Resolve(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 140*time.Millisecond {
		t.Errorf("parallel resolution took %v", elapsed)
	}
	if got := fmt.Sprint(titles(list)); got != "[itunes0 gaana0 deezer0]" {
		t.Errorf("unexpected order %s", got)
	}
}

func TestRank(t *testing.T) {
	results := [][]shared.TrackCandidate{
		candidates(shared.ProviderITunes, "a", 3),
		candidates(shared.ProviderGaana, "b", 2),
	}
	got := titles(rank(results, 2))
	if fmt.Sprint(got) != "[a0 a1 b0 b1 a2]" {
		t.Errorf("rank = %v", got)
	}
}
