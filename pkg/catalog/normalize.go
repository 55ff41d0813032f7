package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// Sentinel values written when an external code has no mapping. The Notion
// schema only accepts values from its closed select sets, so unmapped codes
// must degrade instead of failing the write.
const (
	SourceOther = "Other"
	ValueNA     = "N/A"
	GlobeIcon   = "🌐"
)

// formatDisplay maps AniList format codes to the displayed select values.
var formatDisplay = map[string]string{
	"TV":       "TV",
	"TV_SHORT": "TV Short",
	"MOVIE":    "Movie",
	"OVA":      "OVA",
	"ONA":      "ONA",
	"SPECIAL":  "Special",
}

// formatCode is the reverse of formatDisplay, used when a Notion display
// value has to be compared against a raw AniList code.
var formatCode = map[string]string{
	"TV":       "TV",
	"TV Short": "TV_SHORT",
	"Movie":    "MOVIE",
	"OVA":      "OVA",
	"ONA":      "ONA",
	"Special":  "SPECIAL",
}

var sourceDisplay = map[string]string{
	"MANGA":               "Manga",
	"LIGHT_NOVEL":         "Light Novel",
	"VISUAL_NOVEL":        "Visual Novel",
	"WEB_NOVEL":           "Web Novel",
	"NOVEL":               "Novel",
	"ORIGINAL":            "Original",
	"VIDEO_GAME":          "Video Game",
	"GAME":                "Game",
	"MULTIMEDIA_PROJECT":  "Multimedia Project",
	"DOUJINSHI":           "Doujinshi",
	"COMIC":               "Comic",
	"OTHER":               "Other",
}

var countryName = map[string]string{
	"JP": "Japan",
	"KR": "South Korea",
	"CN": "China",
	"TW": "Taiwan",
	"US": "USA",
	"CA": "Canada",
	"GB": "United Kingdom",
	"FR": "France",
}

var countryFlag = map[string]string{
	"JP": "🇯🇵",
	"KR": "🇰🇷",
	"CN": "🇨🇳",
	"TW": "🇹🇼",
	"US": "🇺🇸",
	"CA": "🇨🇦",
	"GB": "🇬🇧",
	"FR": "🇫🇷",
}

// flagCountry reverses countryFlag for the country job, which derives the
// Country select from the page icon emoji.
var flagCountry map[string]string

func init() {
	flagCountry = make(map[string]string, len(countryFlag))
	for code, flag := range countryFlag {
		flagCountry[flag] = countryName[code]
	}
}

// AllowedGenres is the closed set of genre tags the catalogue accepts.
var AllowedGenres = []string{
	"Action", "Adventure", "Comedy", "Drama", "Ecchi", "Fantasy",
	"Horror", "Mecha", "Mystery", "Music", "Psychological", "Romance",
	"Sci-Fi", "Slice of Life", "Sports", "Supernatural", "Thriller",
}

var allowedGenreSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(AllowedGenres))
	for _, g := range AllowedGenres {
		m[g] = struct{}{}
	}
	return m
}()

// NormalizeTitle prepares a title for equality comparison. The result is
// never used for display.
func NormalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FormatDisplay maps an AniList format code to its select value. Unknown
// codes pass through unchanged so the operator sees the raw value.
func FormatDisplay(code string) string {
	if d, ok := formatDisplay[code]; ok {
		return d
	}
	if code == "" {
		return ValueNA
	}
	return code
}

// FormatCode maps a displayed format back to the AniList enum code, "" when
// unknown (which can never equal a real candidate code).
func FormatCode(display string) string {
	return formatCode[display]
}

// SourceDisplay maps an AniList source code to its select value. Unmapped
// codes degrade to "Other"; an absent code degrades to "N/A".
func SourceDisplay(code string) string {
	if code == "" {
		return ValueNA
	}
	if d, ok := sourceDisplay[code]; ok {
		return d
	}
	return SourceOther
}

// CountryDisplay maps an ISO country code to the select value, "N/A" when
// unmapped.
func CountryDisplay(code string) string {
	if n, ok := countryName[code]; ok {
		return n
	}
	return ValueNA
}

// CountryIcon maps an ISO country code to the flag emoji used as the page
// icon, falling back to the globe.
func CountryIcon(code string) string {
	if f, ok := countryFlag[code]; ok {
		return f
	}
	return GlobeIcon
}

// CountryFromFlag maps a flag emoji back to the country select value, ""
// when the flag is not in the closed set.
func CountryFromFlag(flag string) string {
	return flagCountry[flag]
}

// DedupeOrdered removes repeated items while keeping first-occurrence order.
func DedupeOrdered(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// FilterGenres keeps only tags from the allowed set, preserving order.
func FilterGenres(genres []string) []string {
	var out []string
	for _, g := range genres {
		if _, ok := allowedGenreSet[g]; ok {
			out = append(out, g)
		}
	}
	return out
}

// JoinStudios renders an ordered, de-duplicated studio list the way the
// catalogue stores it.
func JoinStudios(names []string) string {
	return strings.Join(DedupeOrdered(names), ", ")
}

var seasonRe = regexp.MustCompile(`\(S(\d+)\)`)

// ParseSeason extracts the watched-seasons number from a "(S#)" suffix in a
// raw title. Season 1 counts as zero extra seasons; a missing or malformed
// suffix yields 0.
func ParseSeason(title string) int {
	m := seasonRe.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0
	}
	return n - 1
}

// SplitSeasonSuffix strips a trailing parenthesized qualifier from a raw
// import line, returning the searchable title and the original line.
func SplitSeasonSuffix(line string) (search, full string) {
	full = strings.TrimSpace(line)
	search = full
	if i := strings.LastIndex(full, "("); i > 0 && strings.HasSuffix(full, ")") {
		search = strings.TrimSpace(full[:i])
	}
	return search, full
}
