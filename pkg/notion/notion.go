// Package notion is a client for the subset of the Notion API the sync
// jobs touch: cursor-paginated database queries and partial page updates
// with typed properties.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"

	rateLimitStatus   = http.StatusTooManyRequests
	rateLimitCooldown = 60 * time.Second
	retryMax          = 3
	retryDelay        = 2 * time.Second
)

// Config carries the constructor inputs.
type Config struct {
	APIKey  string
	BaseURL string // overridden in tests
}

// Client talks to the Notion REST API.
type Client struct {
	http *retryablehttp.Client
	key  string
	base string

	sleep func(time.Duration)
}

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

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	return &Client{
		http:  rc,
		key:   cfg.APIKey,
		base:  strings.TrimSuffix(base, "/"),
		sleep: time.Sleep,
	}
}

// call sends one request, waiting out 429 cooldowns the same way the
// AniList client does.
func (c *Client) call(ctx context.Context, method, path string, body interface{}) (string, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return "", err
		}
	}

	for {
		req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("Notion-Version", apiVersion)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return "", fmt.Errorf("notion: %w", err)
		}

		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("notion: %w", err)
		}

		if resp.StatusCode == rateLimitStatus {
			utils.Log.Warnf("notion rate limit hit, cooling down %s", rateLimitCooldown)
			c.sleep(rateLimitCooldown)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("notion: %s %s: status %d: %s",
				method, path, resp.StatusCode, gjson.Get(string(raw), "message").String())
		}
		return string(raw), nil
	}
}

// QueryDatabase walks every page of a database query, invoking fn per page
// object. The cursor loop continues while has_more is set. filter may be
// nil for an unfiltered scan.
func (c *Client) QueryDatabase(ctx context.Context, dbID string, filter map[string]interface{}, fn func(page gjson.Result) error) error {
	cursor := ""
	for {
		body := map[string]interface{}{}
		if filter != nil {
			body["filter"] = filter
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		raw, err := c.call(ctx, http.MethodPost, "/databases/"+dbID+"/query", body)
		if err != nil {
			return err
		}

		for _, page := range gjson.Get(raw, "results").Array() {
			if err := fn(page); err != nil {
				return err
			}
		}

		if !gjson.Get(raw, "has_more").Bool() {
			return nil
		}
		cursor = gjson.Get(raw, "next_cursor").String()
	}
}

// UpdateProperties patches a subset of a page's properties. Untouched
// properties keep their values.
func (c *Client) UpdateProperties(ctx context.Context, pageID string, props map[string]interface{}) error {
	_, err := c.call(ctx, http.MethodPatch, "/pages/"+pageID, map[string]interface{}{
		"properties": props,
	})
	return err
}

// UpdatePage patches properties together with the page icon and header
// cover. Empty icon/coverURL leave the respective field untouched.
func (c *Client) UpdatePage(ctx context.Context, pageID, icon, coverURL string, props map[string]interface{}) error {
	body := map[string]interface{}{}
	if len(props) > 0 {
		body["properties"] = props
	}
	if icon != "" {
		body["icon"] = emojiIcon(icon)
	}
	if coverURL != "" {
		body["cover"] = externalCover(coverURL)
	}
	_, err := c.call(ctx, http.MethodPatch, "/pages/"+pageID, body)
	return err
}

// CreatePage inserts a new record into a database with icon, header cover,
// and the full property set.
func (c *Client) CreatePage(ctx context.Context, dbID, icon, coverURL string, props map[string]interface{}) error {
	body := map[string]interface{}{
		"parent":     map[string]interface{}{"database_id": dbID},
		"properties": props,
	}
	if icon != "" {
		body["icon"] = emojiIcon(icon)
	}
	if coverURL != "" {
		body["cover"] = externalCover(coverURL)
	}
	_, err := c.call(ctx, http.MethodPost, "/pages", body)
	return err
}

// FindPageByTitle returns the id of the first page whose title property
// equals title (case-insensitive), or "" when absent. Used as the import
// duplicate guard.
func (c *Client) FindPageByTitle(ctx context.Context, dbID, property, title string) (string, error) {
	filter := map[string]interface{}{
		"property": property,
		"title":    map[string]interface{}{"equals": title},
	}
	var found string
	err := c.QueryDatabase(ctx, dbID, filter, func(page gjson.Result) error {
		got := TitleText(page, property)
		if strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(title)) && found == "" {
			found = page.Get("id").String()
		}
		return nil
	})
	return found, err
}

// ResolveRelationIDs maps names to page ids in a lookup database (the
// genres database), matching on a rich_text property. Names without a
// counterpart page are dropped.
func (c *Client) ResolveRelationIDs(ctx context.Context, dbID, property string, names []string) ([]string, error) {
	var ids []string
	for _, name := range names {
		if name == "" {
			continue
		}
		filter := map[string]interface{}{
			"property":  property,
			"rich_text": map[string]interface{}{"equals": name},
		}
		var id string
		err := c.QueryDatabase(ctx, dbID, filter, func(page gjson.Result) error {
			if id == "" {
				id = page.Get("id").String()
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func emojiIcon(emoji string) map[string]interface{} {
	return map[string]interface{}{"type": "emoji", "emoji": emoji}
}

func externalCover(url string) map[string]interface{} {
	return map[string]interface{}{
		"type":     "external",
		"external": map[string]interface{}{"url": url},
	}
}
