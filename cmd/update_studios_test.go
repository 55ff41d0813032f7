package cmd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
	"github.com/lorenzo-mcc/ani-sync/pkg/match"
	"github.com/lorenzo-mcc/ani-sync/pkg/notion"
)

type stubSearcher struct {
	cands []catalog.Candidate
}

func (s stubSearcher) Search(ctx context.Context, title, year string) ([]catalog.Candidate, error) {
	return s.cands, nil
}

// Entries with an already-populated studio list must still flow through the
// job: a stale value gets rewritten, a current one is skipped.
func TestStudiosJobRefreshesStaleList(t *testing.T) {
	var writes atomic.Int64
	var lastBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writes.Add(1)
		b, _ := io.ReadAll(r.Body)
		lastBody.Store(string(b))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	nc := notion.New(notion.Config{APIKey: "secret", BaseURL: srv.URL})

	cand := catalog.Candidate{
		TitleEnglish: "Foo",
		Format:       "TV",
		StartYear:    2020,
		Source:       "MANGA",
		Studios:      []catalog.Studio{{Name: "Madhouse", Animation: true}},
	}
	stale := catalog.Record{
		ID: "page-1", EnglishTitle: "foo", Format: "TV", DebutYear: "2020",
		Source: "Manga", Studios: "Old Studio",
	}
	current := stale
	current.ID = "page-2"
	current.Studios = "Madhouse"

	job := studiosJob(nc, []catalog.Record{stale, current})
	p := match.Pipeline{Search: stubSearcher{cands: []catalog.Candidate{cand}}}
	summary, err := p.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Updated != 1 || summary.Skipped != 1 {
		t.Fatalf("updated = %d, skipped = %d, want 1 and 1", summary.Updated, summary.Skipped)
	}
	if writes.Load() != 1 {
		t.Fatalf("expected exactly one write, got %d", writes.Load())
	}
	body, _ := lastBody.Load().(string)
	if !strings.Contains(body, "Madhouse") {
		t.Errorf("write payload missing the new studio list: %s", body)
	}
}
