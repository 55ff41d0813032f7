package cmd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
	"github.com/lorenzo-mcc/ani-sync/pkg/match"
	"github.com/lorenzo-mcc/ani-sync/pkg/notion"
)

// One matched record must update both image surfaces in a single pass: the
// Cover files property and the page header cover.
func TestImagesJobWritesCoverAndHeader(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	nc := notion.New(notion.Config{APIKey: "secret", BaseURL: srv.URL})

	cand := catalog.Candidate{
		TitleEnglish: "Foo",
		Format:       "TV",
		StartYear:    2020,
		Source:       "MANGA",
		BannerImage:  "https://img.example/banner.jpg",
		CoverImageXL: "https://img.example/cover-xl.jpg",
	}
	rec := catalog.Record{
		ID: "page-1", EnglishTitle: "foo", Format: "TV", DebutYear: "2020",
		Source: "Manga", CoverURL: "https://img.example/old.jpg", HasBanner: false,
	}

	job := imagesJob(nc, []catalog.Record{rec}, true, true)
	p := match.Pipeline{Search: stubSearcher{cands: []catalog.Candidate{cand}}}
	summary, err := p.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Updated != 1 {
		t.Fatalf("updated = %d, want 1", summary.Updated)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("expected 2 writes (property + header), got %d", len(bodies))
	}
	if !strings.Contains(bodies[0], "cover-xl.jpg") {
		t.Errorf("first write should carry the files cover: %s", bodies[0])
	}
	if !strings.Contains(bodies[1], "banner.jpg") {
		t.Errorf("second write should carry the header cover: %s", bodies[1])
	}
}

// With both overwrite toggles off, an entry that already has a header and a
// cover never reaches the pipeline.
func TestImagesJobScopeHonorsOverwriteToggles(t *testing.T) {
	full := catalog.Record{ID: "page-1", CoverURL: "set", HasBanner: true}
	bare := catalog.Record{ID: "page-2"}

	job := imagesJob(nil, []catalog.Record{full, bare}, false, false)
	if len(job.Records) != 1 || job.Records[0].ID != "page-2" {
		t.Fatalf("scope = %+v, want only page-2", job.Records)
	}
}
