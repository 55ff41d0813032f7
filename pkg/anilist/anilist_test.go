package anilist

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sampleResponse = `{
  "data": {
    "Page": {
      "media": [
        {
          "id": 101922,
          "title": {"english": "Demon Slayer: Kimetsu no Yaiba", "romaji": "Kimetsu no Yaiba"},
          "synonyms": ["KnY"],
          "source": "MANGA",
          "countryOfOrigin": "JP",
          "status": "FINISHED",
          "format": "TV",
          "genres": ["Action", "Supernatural", "Isekai"],
          "coverImage": {"extraLarge": "https://img.example/cover-xl.jpg"},
          "bannerImage": "https://img.example/banner.jpg",
          "startDate": {"year": 2019},
          "studios": {"edges": [
            {"node": {"name": "ufotable", "isAnimationStudio": true}},
            {"node": {"name": "Aniplex", "isAnimationStudio": false}}
          ]}
        },
        {
          "id": 1,
          "title": {"english": null, "romaji": "Something Else"},
          "format": "MOVIE",
          "startDate": {"year": null}
        }
      ]
    }
  }
}`

func TestDecodeMedia(t *testing.T) {
	cands := decodeMedia(sampleResponse)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}

	c := cands[0]
	if c.ID != 101922 || c.TitleEnglish != "Demon Slayer: Kimetsu no Yaiba" || c.TitleRomaji != "Kimetsu no Yaiba" {
		t.Fatalf("titles decoded wrong: %+v", c)
	}
	if c.Format != "TV" || c.StartYear != 2019 || c.Source != "MANGA" || c.Country != "JP" {
		t.Fatalf("scalar fields decoded wrong: %+v", c)
	}
	if len(c.Studios) != 2 || !c.Studios[0].Animation || c.Studios[1].Animation {
		t.Fatalf("studio edges decoded wrong: %+v", c.Studios)
	}
	if c.CoverImageXL != "https://img.example/cover-xl.jpg" || c.BannerImage != "https://img.example/banner.jpg" {
		t.Fatalf("images decoded wrong: %+v", c)
	}

	// Null English title and null year decode to zero values.
	if cands[1].TitleEnglish != "" || cands[1].StartYear != 0 {
		t.Fatalf("null handling wrong: %+v", cands[1])
	}
}

func TestDecodeMediaEmpty(t *testing.T) {
	if got := decodeMedia(`{"data":{"Page":{"media":[]}}}`); got != nil {
		t.Fatalf("expected nil for empty page, got %v", got)
	}
	if got := decodeMedia(`{}`); got != nil {
		t.Fatalf("expected nil for missing page, got %v", got)
	}
}

func TestSearchSendsVariablesAndAuth(t *testing.T) {
	var gotBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody.Store(string(b))
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Error("missing bearer token")
		}
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, Token: "tok", Interval: time.Nanosecond})
	c.sleep = func(time.Duration) {}

	cands, err := c.Search(context.Background(), "Kimetsu no Yaiba", "2019")
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}

	body := gotBody.Load().(string)
	for _, want := range []string{`"search":"Kimetsu no Yaiba"`, `"year":2019`} {
		if !contains(body, want) {
			t.Errorf("request body missing %s: %s", want, body)
		}
	}
}

func TestSearchOmitsNonNumericYear(t *testing.T) {
	var gotBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody.Store(string(b))
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, Interval: time.Nanosecond})
	c.sleep = func(time.Duration) {}

	if _, err := c.Search(context.Background(), "foo", ""); err != nil {
		t.Fatal(err)
	}
	if contains(gotBody.Load().(string), `"year"`) {
		t.Fatal("empty year must not be sent")
	}
}

func TestDoCoolsDownOn429(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := New(Config{URL: srv.URL, Interval: time.Nanosecond})
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	if _, err := c.Search(context.Background(), "foo", "2020"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected retry after 429, got %d calls", calls)
	}

	found := false
	for _, d := range slept {
		if d == rateLimitCooldown {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the 60s cooldown sleep, got %v", slept)
	}
}

func TestSearchRetriesServerErrorsThenFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, Interval: time.Nanosecond})
	c.sleep = func(time.Duration) {}
	c.http.RetryWaitMin = 0
	c.http.RetryWaitMax = 0

	_, err := c.Search(context.Background(), "foo", "2020")
	if err == nil {
		t.Fatal("expected an error once the retry budget is spent")
	}
	if got := atomic.LoadInt32(&calls); got != retryMax+1 {
		t.Fatalf("expected %d attempts (1 + %d retries), got %d", retryMax+1, retryMax, got)
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
