// Package ai extracts anime titles from screenshots using a vision-capable
// LLM. It is a thin wrapper: one prompt, one parse, no retries beyond the
// HTTP client's.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Config controls the extractor.
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	Endpoint   string
	MaxBatch   int // images per request
	HTTPClient *http.Client
}

// Extractor defines the behavior required to pull titles out of images.
type Extractor interface {
	ExtractTitles(ctx context.Context, images [][]byte) ([]string, error)
}

const (
	defaultProvider = "openai"
	defaultModel    = "gpt-4o"
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultMaxBatch = 4

	prompt = "These images are screenshots listing anime titles. " +
		"Reply with one title per line, exactly as written, nothing else. " +
		"Reply with an empty message if no titles are visible."
)

// NewExtractor builds a concrete Extractor based on the provided config.
func NewExtractor(cfg Config) (Extractor, error) {
	cfg.Provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}
	switch cfg.Provider {
	case "openai":
		return newOpenAIExtractor(cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type openAIExtractor struct {
	apiKey   string
	model    string
	endpoint string
	maxBatch int
	client   httpClient
}

func newOpenAIExtractor(cfg Config) (*openAIExtractor, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("title extraction requires an API key (set openai.api_key in config or OPENAI_API_KEY)")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}

	var client httpClient = cfg.HTTPClient
	if cfg.HTTPClient == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	return &openAIExtractor{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		maxBatch: maxBatch,
		client:   client,
	}, nil
}

// ExtractTitles sends the images in batches and returns the merged,
// de-duplicated title list.
func (e *openAIExtractor) ExtractTitles(ctx context.Context, images [][]byte) ([]string, error) {
	var all []string
	for start := 0; start < len(images); start += e.maxBatch {
		end := start + e.maxBatch
		if end > len(images) {
			end = len(images)
		}
		titles, err := e.extractBatch(ctx, images[start:end])
		if err != nil {
			return nil, err
		}
		all = append(all, titles...)
	}
	return sanitizeTitles(all), nil
}

func (e *openAIExtractor) extractBatch(ctx context.Context, images [][]byte) ([]string, error) {
	content := []interface{}{
		map[string]interface{}{"type": "text", "text": prompt},
	}
	for _, img := range images {
		content = append(content, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]interface{}{
				"url": dataURL(img),
			},
		})
	}

	body, err := json.Marshal(map[string]interface{}{
		"model": e.model,
		"messages": []interface{}{
			map[string]interface{}{"role": "user", "content": content},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction request: status %d", resp.StatusCode)
	}

	return parseCompletion(buf.String()), nil
}

// dataURL encodes an image as a data URL, sniffing the MIME type from its
// leading bytes so jpeg screenshots are not labeled as png.
func dataURL(img []byte) string {
	return "data:" + http.DetectContentType(img) + ";base64," + base64.StdEncoding.EncodeToString(img)
}

// parseCompletion splits the model reply into candidate titles, stripping
// list markers the model tends to add despite the prompt.
func parseCompletion(raw string) []string {
	text := gjson.Get(raw, "choices.0.message.content").String()
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if i := strings.IndexByte(line, '.'); i > 0 && i <= 3 && isDigits(line[:i]) {
			line = strings.TrimSpace(line[i+1:])
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// sanitizeTitles trims and de-duplicates case-insensitively, keeping the
// first spelling seen.
func sanitizeTitles(titles []string) []string {
	seen := make(map[string]struct{}, len(titles))
	var out []string
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
