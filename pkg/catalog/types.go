// Package catalog defines the typed records exchanged between the Notion
// catalogue and the AniList metadata API, plus the normalization rules
// applied before they are compared or written back.
package catalog

// Record is one row of the Notion anime catalogue, reduced to the fields
// the sync jobs read and compare. Values are the displayed strings from
// the Notion schema, not AniList enum codes.
type Record struct {
	ID           string // Notion page id
	EnglishTitle string
	RomajiTitle  string
	Format       string // select: TV, TV Short, Movie, OVA, ONA, Special
	DebutYear    string // number rendered as string, "" when absent
	Source       string // select, display string
	Country      string // select, display string
	Studios      string // comma-joined rich text
	Genres       []string
	Icon         string // page icon emoji, "" when not an emoji icon
	CoverURL     string // Cover files property, first external URL
	HasBanner    bool   // page header cover present
	WatchedIDs   []string
	GenreIDs     []string // Genres relation page ids
}

// Studio is one AniList studio edge.
type Studio struct {
	Name      string
	Animation bool
}

// Candidate is a single AniList media search result. It is fetched per
// query and never persisted.
type Candidate struct {
	ID           int64
	TitleEnglish string
	TitleRomaji  string
	Synonyms     []string
	Format       string // AniList enum code, e.g. TV_SHORT
	StartYear    int
	Source       string // AniList enum code, e.g. LIGHT_NOVEL
	Country      string // ISO code from countryOfOrigin
	Status       string
	Genres       []string
	Studios      []Studio
	BannerImage  string
	CoverImageXL string
}

// Title returns the candidate's best comparison title: English when
// present, Romaji otherwise.
func (c Candidate) Title() string {
	if c.TitleEnglish != "" {
		return c.TitleEnglish
	}
	return c.TitleRomaji
}

// AnimationStudios returns the names of studios flagged as animation
// studios, de-duplicated in first-seen order.
func (c Candidate) AnimationStudios() []string {
	var names []string
	for _, s := range c.Studios {
		if s.Animation {
			names = append(names, s.Name)
		}
	}
	return DedupeOrdered(names)
}
