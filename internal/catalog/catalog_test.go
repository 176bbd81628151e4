package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const deezerPage = `{"data":[
	{"id":3135556,"title":"Harder Better Faster Stronger","preview":"https://cdn.example/preview/1.mp3","artist":{"name":"Daft Punk"}},
	{"id":3135557,"title":"Aerodynamic","preview":"https://cdn.example/preview/2.mp3","artist":{"name":"Daft Punk"}}
]}`

func newTestClient(t *testing.T, handler http.HandlerFunc, ttl time.Duration) (*Client, *time.Time) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	now := time.Unix(1700000000, 0)
	c := New(srv.URL, ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestSearch_DecodesCatalogResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "daft punk" {
			t.Errorf("q = %q, want daft punk", got)
		}
		w.Write([]byte(deezerPage))
	}, time.Minute)

	tracks, err := c.Search(context.Background(), "Daft Punk")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	want := Track{
		ID:         "3135556",
		Title:      "Harder Better Faster Stronger",
		Artist:     "Daft Punk",
		PreviewURL: "https://cdn.example/preview/1.mp3",
	}
	if tracks[0] != want {
		t.Errorf("tracks[0] = %+v, want %+v", tracks[0], want)
	}
}

func TestSearch_CachesWithinTTL(t *testing.T) {
	var calls int32
	c, now := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(deezerPage))
	}, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := c.Search(context.Background(), "daft punk"); err != nil {
			t.Fatal(err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("upstream called %d times within TTL, want 1", n)
	}

	// Case and whitespace variants hit the same entry.
	if _, err := c.Search(context.Background(), "  DAFT PUNK "); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("normalized query missed the cache, upstream called %d times", n)
	}

	*now = now.Add(2 * time.Minute)
	if _, err := c.Search(context.Background(), "daft punk"); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expired entry should refetch, upstream called %d times", n)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty query must not reach the upstream")
	}, time.Minute)

	tracks, err := c.Search(context.Background(), "   ")
	if err != nil || tracks != nil {
		t.Errorf("Search(blank) = %v, %v", tracks, err)
	}
}

func TestSearch_UpstreamError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, time.Minute)

	if _, err := c.Search(context.Background(), "daft punk"); err == nil {
		t.Error("non-200 upstream response should surface as an error")
	}
}

func TestSearch_ResultIsCopy(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(deezerPage))
	}, time.Minute)

	first, err := c.Search(context.Background(), "daft punk")
	if err != nil {
		t.Fatal(err)
	}
	first[0].Title = "tampered"

	second, err := c.Search(context.Background(), "daft punk")
	if err != nil {
		t.Fatal(err)
	}
	if second[0].Title == "tampered" {
		t.Error("cached tracks must not be shared with callers")
	}
}
