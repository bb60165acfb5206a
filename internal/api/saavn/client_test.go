package saavn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"tuneharvest/internal/shared"
)

func TestQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("__call") != "search.getResults" || q.Get("q") != "kesariya" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"total":1,"results":[{"id":"abc","title":"Kesariya &quot;Love&quot;","year":"2022",
			"image":"https://c.saavncdn.com/img-150x150.jpg",
			"more_info":{"album":"Brahmastra","artistMap":{"primary_artists":[{"name":"Pritam"},{"name":"Arijit Singh"}]}}}]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.MaxRetries = 1
	client := NewClientWithConfig(cfg, nil)

	candidates, err := client.Query(context.Background(), "kesariya")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Provider != shared.ProviderSaavn || c.Title != `Kesariya "Love"` {
		t.Errorf("unexpected candidate %+v", c)
	}
	if c.Artist != "Pritam, Arijit Singh" || c.Album != "Brahmastra" || c.Year() != "2022" {
		t.Errorf("unexpected fields %+v", c)
	}
	if c.ArtworkRef != "https://c.saavncdn.com/img-500x500.jpg" {
		t.Errorf("expected upscaled artwork, got %s", c.ArtworkRef)
	}
}
