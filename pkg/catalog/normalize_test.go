package catalog

import (
	"reflect"
	"testing"
)

func TestDedupeOrdered(t *testing.T) {
	got := DedupeOrdered([]string{"A", "B", "A", "C"})
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSourceDisplay(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"MANGA", "Manga"},
		{"LIGHT_NOVEL", "Light Novel"},
		{"ORIGINAL", "Original"},
		{"SOME_FUTURE_CODE", "Other"},
		{"", "N/A"},
	}
	for _, tc := range tests {
		if got := SourceDisplay(tc.code); got != tc.want {
			t.Errorf("SourceDisplay(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestFormatMappingRoundTrip(t *testing.T) {
	for code, display := range map[string]string{
		"TV":       "TV",
		"TV_SHORT": "TV Short",
		"MOVIE":    "Movie",
		"SPECIAL":  "Special",
	} {
		if got := FormatDisplay(code); got != display {
			t.Errorf("FormatDisplay(%q) = %q, want %q", code, got, display)
		}
		if got := FormatCode(display); got != code {
			t.Errorf("FormatCode(%q) = %q, want %q", display, got, code)
		}
	}
	if got := FormatCode("Radio Drama"); got != "" {
		t.Errorf("unknown display format should map to empty code, got %q", got)
	}
}

func TestCountryFromFlag(t *testing.T) {
	if got := CountryFromFlag("🇯🇵"); got != "Japan" {
		t.Errorf("expected Japan, got %q", got)
	}
	if got := CountryFromFlag("🏴‍☠️"); got != "" {
		t.Errorf("unmapped flag should yield empty string, got %q", got)
	}
}

func TestFilterGenres(t *testing.T) {
	got := FilterGenres([]string{"Action", "Isekai", "Drama", "Cooking"})
	want := []string{"Action", "Drama"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseSeason(t *testing.T) {
	tests := []struct {
		title string
		want  int
	}{
		{"Vinland Saga (S2)", 1},
		{"Mob Psycho 100 (S3)", 2},
		{"Cowboy Bebop", 0},
		{"Weird (S0)", 0},
	}
	for _, tc := range tests {
		if got := ParseSeason(tc.title); got != tc.want {
			t.Errorf("ParseSeason(%q) = %d, want %d", tc.title, got, tc.want)
		}
	}
}

func TestSplitSeasonSuffix(t *testing.T) {
	search, full := SplitSeasonSuffix("  Vinland Saga (S2) ")
	if search != "Vinland Saga" || full != "Vinland Saga (S2)" {
		t.Fatalf("unexpected split: %q / %q", search, full)
	}
	search, full = SplitSeasonSuffix("Cowboy Bebop")
	if search != "Cowboy Bebop" || full != "Cowboy Bebop" {
		t.Fatalf("unexpected split: %q / %q", search, full)
	}
}

func TestAnimationStudios(t *testing.T) {
	c := Candidate{Studios: []Studio{
		{Name: "MAPPA", Animation: true},
		{Name: "Aniplex", Animation: false},
		{Name: "MAPPA", Animation: true},
		{Name: "WIT Studio", Animation: true},
	}}
	got := c.AnimationStudios()
	want := []string{"MAPPA", "WIT Studio"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if JoinStudios(got) != "MAPPA, WIT Studio" {
		t.Fatalf("unexpected join: %q", JoinStudios(got))
	}
}
