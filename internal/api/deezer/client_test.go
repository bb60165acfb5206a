package deezer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"tuneharvest/internal/shared"
)

func newTestServer(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "broken" {
			w.Write([]byte(`{"error":{"type":"DataException","message":"no data","code":800}}`))
			return
		}
		w.Write([]byte(`{"data":[
			{"id":3135556,"title":"Harder, Better, Faster, Stronger","artist":{"name":"Daft Punk"},"album":{"id":302127,"title":"Discovery","cover_xl":"https://e-cdns/cover/1000x1000.jpg"}},
			{"id":42,"title":"Harder Better (Live)","artist":{"name":"Daft Punk"},"album":{"id":7,"title":"Alive 2007"}}
		]}`))
	})
	mux.HandleFunc("/track/3135556", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":3135556,"title":"Harder, Better, Faster, Stronger","track_position":4,"release_date":"2001-03-07","artist":{"name":"Daft Punk"},"album":{"id":302127,"title":"Discovery"}}`))
	})
	mux.HandleFunc("/album/302127", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":302127,"title":"Discovery","genres":{"data":[{"name":"Electro"},{"name":"Dance"}]}}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.RateLimit = 0
	cfg.MaxRetries = 1
	return NewClientWithConfig(cfg, nil)
}

func TestQuery(t *testing.T) {
	client := newTestServer(t)

	candidates, err := client.Query(context.Background(), "harder better")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Provider != shared.ProviderDeezer || candidates[0].NativeID != "3135556" {
		t.Errorf("unexpected first candidate %+v", candidates[0])
	}
	if candidates[0].ArtworkRef != "https://e-cdns/cover/1000x1000.jpg" {
		t.Errorf("unexpected artwork %s", candidates[0].ArtworkRef)
	}
}

func TestQueryAPIError(t *testing.T) {
	client := newTestServer(t)
	if _, err := client.Query(context.Background(), "broken"); err == nil {
		t.Error("expected error for deezer error payload")
	}
}

func TestDetailsBackfillsEmptyFields(t *testing.T) {
	client := newTestServer(t)

	in := shared.TrackCandidate{
		Provider: shared.ProviderDeezer,
		Title:    "Harder, Better, Faster, Stronger",
		Artist:   "Daft Punk (kept)",
		NativeID: "3135556",
	}
	out, err := client.Details(context.Background(), in)
	if err != nil {
		t.Fatalf("Details failed: %v", err)
	}
	if out.Artist != "Daft Punk (kept)" {
		t.Errorf("populated field overwritten: %s", out.Artist)
	}
	if out.TrackNumber != 4 || out.Album != "Discovery" || out.Genre != "Electro" || out.Year() != "2001" {
		t.Errorf("details not backfilled: %+v", out)
	}
}

func TestDetailsWithoutID(t *testing.T) {
	client := newTestServer(t)
	in := shared.TrackCandidate{Provider: shared.ProviderDeezer, Title: "x"}
	out, err := client.Details(context.Background(), in)
	if err == nil {
		t.Error("expected error for candidate without id")
	}
	if out != in {
		t.Errorf("candidate should be returned unchanged, got %+v", out)
	}
}
