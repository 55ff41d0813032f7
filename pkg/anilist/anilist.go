// Package anilist is a thin client for the AniList GraphQL API, limited to
// the media search the sync jobs need.
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
)

const (
	DefaultURL = "https://graphql.anilist.co"

	// DefaultInterval keeps us under AniList's 30 req/min ceiling with a
	// little headroom.
	DefaultInterval = time.Minute / 28

	rateLimitStatus   = http.StatusTooManyRequests
	rateLimitCooldown = 60 * time.Second
	retryMax          = 3
	retryDelay        = 2 * time.Second
)

// searchQuery requests every field any sync job consumes; jobs ignore what
// they don't need. One page of up to 10 candidates per query.
const searchQuery = `
query ($search: String, $year: Int) {
  Page(page: 1, perPage: 10) {
    media(search: $search, type: ANIME, seasonYear: $year) {
      id
      title {
        english
        romaji
      }
      synonyms
      source
      countryOfOrigin
      status
      format
      genres
      coverImage {
        extraLarge
      }
      bannerImage
      startDate {
        year
      }
      studios {
        edges {
          node {
            name
            isAnimationStudio
          }
        }
      }
    }
  }
}`

// Config carries the constructor inputs. Zero values get defaults.
type Config struct {
	URL      string
	Token    string // optional bearer token; update jobs run unauthenticated
	Interval time.Duration
}

// Client performs rate-limited, retried searches. Safe for reuse across
// jobs; requests are serialized by the rate limiter.
type Client struct {
	http     *retryablehttp.Client
	url      string
	token    string
	interval time.Duration

	mu       sync.Mutex
	lastCall time.Time

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// New builds a client with the shared retry policy: up to 3 retries with a
// fixed delay for transport errors and non-(200|429) statuses. 429 handling
// lives outside the retry budget, in do().
func New(cfg Config) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = retryMax
	rc.RetryWaitMin = retryDelay
	rc.RetryWaitMax = retryDelay
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		if resp.StatusCode == http.StatusOK || resp.StatusCode == rateLimitStatus {
			return false, nil
		}
		return true, nil
	}

	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Client{
		http:     rc,
		url:      url,
		token:    cfg.Token,
		interval: interval,
		sleep:    time.Sleep,
	}
}

// Search queries AniList by title and optional year (a non-numeric or empty
// year is simply omitted from the query). Returns the decoded candidate
// page; an empty slice means no results.
func (c *Client) Search(ctx context.Context, title, year string) ([]catalog.Candidate, error) {
	variables := map[string]interface{}{"search": title}
	if y, err := strconv.Atoi(year); err == nil {
		variables["year"] = y
	}

	body, err := json.Marshal(map[string]interface{}{
		"query":     searchQuery,
		"variables": variables,
	})
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, body)
	if err != nil {
		return nil, err
	}
	return decodeMedia(raw), nil
}

// do sends one GraphQL POST, waiting out the request interval first. A 429
// always triggers the fixed cooldown and an unconditional re-send; it never
// consumes the retry budget.
func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	for {
		c.throttle()

		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return "", fmt.Errorf("anilist: %w", err)
		}

		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("anilist: %w", err)
		}

		if resp.StatusCode == rateLimitStatus {
			utils.Log.Warnf("anilist rate limit hit, cooling down %s", rateLimitCooldown)
			c.sleep(rateLimitCooldown)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("anilist: unexpected status %d", resp.StatusCode)
		}
		return string(raw), nil
	}
}

// throttle enforces the minimum spacing between consecutive API calls.
func (c *Client) throttle() {
	c.mu.Lock()
	elapsed := time.Since(c.lastCall)
	if wait := c.interval - elapsed; wait > 0 {
		c.sleep(wait)
	}
	c.lastCall = time.Now()
	c.mu.Unlock()
}

// decodeMedia turns the GraphQL response into candidates.
func decodeMedia(raw string) []catalog.Candidate {
	media := gjson.Get(raw, "data.Page.media")
	if !media.Exists() {
		return nil
	}

	var out []catalog.Candidate
	media.ForEach(func(_, m gjson.Result) bool {
		c := catalog.Candidate{
			ID:           m.Get("id").Int(),
			TitleEnglish: m.Get("title.english").String(),
			TitleRomaji:  m.Get("title.romaji").String(),
			Format:       m.Get("format").String(),
			StartYear:    int(m.Get("startDate.year").Int()),
			Source:       m.Get("source").String(),
			Country:      m.Get("countryOfOrigin").String(),
			Status:       m.Get("status").String(),
			BannerImage:  m.Get("bannerImage").String(),
			CoverImageXL: m.Get("coverImage.extraLarge").String(),
		}
		for _, s := range m.Get("synonyms").Array() {
			c.Synonyms = append(c.Synonyms, s.String())
		}
		for _, g := range m.Get("genres").Array() {
			c.Genres = append(c.Genres, g.String())
		}
		for _, e := range m.Get("studios.edges").Array() {
			c.Studios = append(c.Studios, catalog.Studio{
				Name:      e.Get("node.name").String(),
				Animation: e.Get("node.isAnimationStudio").Bool(),
			})
		}
		out = append(out, c)
		return true
	})
	return out
}
