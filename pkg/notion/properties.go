package notion

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
)

// Property names of the anime catalogue database.
const (
	PropEnglishTitle    = "English Title"
	PropRomajiTitle     = "Romaji Title"
	PropFormat          = "Format"
	PropDebutYear       = "Debut Year"
	PropSource          = "Source"
	PropCountry         = "Country"
	PropStudios         = "Studios"
	PropGenres          = "Genres"
	PropGenreNames      = "Genre Names"
	PropWatchedGenres   = "Genres (Watched Anime)"
	PropAnimeWatched    = "Anime Watched"
	PropCover           = "Cover"
	PropWatchedSeasons  = "Watched Seasons"
	PropWatchedEpisodes = "Watched Episodes"
)

// --- extractors (page JSON -> values) ---

// TitleText reads the plain text of a title property.
func TitleText(page gjson.Result, property string) string {
	return page.Get("properties." + property + ".title.0.plain_text").String()
}

// RichTextText reads the plain text of a rich_text property.
func RichTextText(page gjson.Result, property string) string {
	return page.Get("properties." + property + ".rich_text.0.plain_text").String()
}

// SelectName reads the selected option, "" when unset.
func SelectName(page gjson.Result, property string) string {
	return page.Get("properties." + property + ".select.name").String()
}

// NumberString reads a number property rendered as a string, "" when unset.
// Years are compared as strings throughout, so the string form is the
// canonical one.
func NumberString(page gjson.Result, property string) string {
	n := page.Get("properties." + property + ".number")
	if !n.Exists() || n.Type == gjson.Null {
		return ""
	}
	return strconv.FormatInt(n.Int(), 10)
}

// FilesURL reads the URL of the first file in a files property, handling
// both external and uploaded files.
func FilesURL(page gjson.Result, property string) string {
	first := page.Get("properties." + property + ".files.0")
	if !first.Exists() {
		return ""
	}
	if u := first.Get("external.url").String(); u != "" {
		return u
	}
	return first.Get("file.url").String()
}

// RelationIDs reads the related page ids of a relation property.
func RelationIDs(page gjson.Result, property string) []string {
	var ids []string
	for _, r := range page.Get("properties." + property + ".relation").Array() {
		ids = append(ids, r.Get("id").String())
	}
	return ids
}

// RollupStrings flattens a rollup of title/rich_text values into plain
// strings.
func RollupStrings(page gjson.Result, property string) []string {
	var out []string
	for _, item := range page.Get("properties." + property + ".rollup.array").Array() {
		typ := item.Get("type").String()
		if typ != "title" && typ != "rich_text" {
			continue
		}
		for _, span := range item.Get(typ).Array() {
			if txt := span.Get("plain_text").String(); txt != "" {
				out = append(out, txt)
			}
		}
	}
	return out
}

// IconEmoji reads the page icon when it is an emoji icon.
func IconEmoji(page gjson.Result) string {
	return page.Get("icon.emoji").String()
}

// HasCover reports whether the page has a header cover set.
func HasCover(page gjson.Result) bool {
	return page.Get("cover").Exists() && page.Get("cover").Type != gjson.Null
}

// DecodeRecord maps a catalogue page onto the typed record the matching
// logic consumes.
func DecodeRecord(page gjson.Result) catalog.Record {
	return catalog.Record{
		ID:           page.Get("id").String(),
		EnglishTitle: TitleText(page, PropEnglishTitle),
		RomajiTitle:  RichTextText(page, PropRomajiTitle),
		Format:       SelectName(page, PropFormat),
		DebutYear:    NumberString(page, PropDebutYear),
		Source:       SelectName(page, PropSource),
		Country:      SelectName(page, PropCountry),
		Studios:      RichTextText(page, PropStudios),
		Genres:       RollupStrings(page, PropGenreNames),
		Icon:         IconEmoji(page),
		CoverURL:     FilesURL(page, PropCover),
		HasBanner:    HasCover(page),
		GenreIDs:     RelationIDs(page, PropGenres),
		WatchedIDs:   RelationIDs(page, PropWatchedGenres),
	}
}

// --- builders (values -> write payloads) ---

// TitleProp builds a title property value.
func TitleProp(text string) map[string]interface{} {
	return map[string]interface{}{
		"title": []interface{}{textSpan(text)},
	}
}

// RichTextProp builds a rich_text property value.
func RichTextProp(text string) map[string]interface{} {
	return map[string]interface{}{
		"rich_text": []interface{}{textSpan(text)},
	}
}

// SelectProp builds a select property value.
func SelectProp(name string) map[string]interface{} {
	return map[string]interface{}{
		"select": map[string]interface{}{"name": name},
	}
}

// NumberProp builds a number property value; nil clears the number.
func NumberProp(n *int) map[string]interface{} {
	if n == nil {
		return map[string]interface{}{"number": nil}
	}
	return map[string]interface{}{"number": *n}
}

// FilesProp builds a files property holding a single external URL.
func FilesProp(name, url string) map[string]interface{} {
	return map[string]interface{}{
		"files": []interface{}{
			map[string]interface{}{
				"type":     "external",
				"name":     name,
				"external": map[string]interface{}{"url": url},
			},
		},
	}
}

// RelationProp builds a relation property from page ids.
func RelationProp(ids []string) map[string]interface{} {
	rel := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		rel = append(rel, map[string]interface{}{"id": id})
	}
	return map[string]interface{}{"relation": rel}
}

func textSpan(text string) map[string]interface{} {
	return map[string]interface{}{
		"text": map[string]interface{}{"content": text},
	}
}
