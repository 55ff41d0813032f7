package ai

import (
	"context"
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"
)

func TestParseCompletion(t *testing.T) {
	raw := `{"choices":[{"message":{"content":"1. Cowboy Bebop\n- Monster\n* Vinland Saga\n\n  Mushishi  \n"}}]}`
	got := parseCompletion(raw)
	want := []string{"Cowboy Bebop", "Monster", "Vinland Saga", "Mushishi"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseCompletionEmpty(t *testing.T) {
	if got := parseCompletion(`{"choices":[{"message":{"content":""}}]}`); got != nil {
		t.Fatalf("expected nil for empty reply, got %v", got)
	}
	if got := parseCompletion(`{}`); got != nil {
		t.Fatalf("expected nil for malformed reply, got %v", got)
	}
}

func TestSanitizeTitles(t *testing.T) {
	in := []string{"Cowboy Bebop ", " cowboy bebop", "", "Monster"}
	got := sanitizeTitles(in)
	want := []string{"Cowboy Bebop", "Monster"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func TestExtractTitlesBatches(t *testing.T) {
	var calls int
	fake := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		if req.Header.Get("Authorization") != "Bearer key" {
			t.Error("missing api key header")
		}
		body := `{"choices":[{"message":{"content":"Title A\nTitle B"}}]}`
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	})

	ex := &openAIExtractor{apiKey: "key", model: "m", endpoint: "http://x", maxBatch: 2, client: fake}
	images := [][]byte{[]byte("a"), []byte("b"), []byte("c")}

	got, err := ex.ExtractTitles(context.Background(), images)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 batches for 3 images with maxBatch=2, got %d", calls)
	}
	// Duplicates across batches collapse.
	if !reflect.DeepEqual(got, []string{"Title A", "Title B"}) {
		t.Fatalf("unexpected titles: %v", got)
	}
}

func TestNewExtractorRequiresKey(t *testing.T) {
	if _, err := NewExtractor(Config{}); err == nil {
		t.Fatal("expected an error without an API key")
	}
	if _, err := NewExtractor(Config{Provider: "anthropic", APIKey: "k"}); err == nil {
		t.Fatal("expected an error for an unsupported provider")
	}
}

func TestDataURLSniffsMIME(t *testing.T) {
	tests := []struct {
		name   string
		img    []byte
		prefix string
	}{
		{"png", []byte("\x89PNG\r\n\x1a\n rest"), "data:image/png;base64,"},
		{"jpeg", []byte("\xff\xd8\xff\xe0 rest"), "data:image/jpeg;base64,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dataURL(tt.img); !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("dataURL prefix = %q, want %q", got[:len(tt.prefix)], tt.prefix)
			}
		})
	}
}
