package catalog

import (
	"strings"
	"sync"
	"unicode"

	"github.com/pemistahl/lingua-go"
)

const minSynonymLength = 3

// EnglishDetector reports whether a string reads as English text. The
// default implementation uses lingua; tests inject a deterministic one.
type EnglishDetector func(s string) bool

var (
	linguaOnce sync.Once
	linguaDet  lingua.LanguageDetector
)

// detectEnglish lazily builds a detector over the languages that actually
// show up in anime synonyms. Keeping the set small makes classification of
// short strings far more stable.
func detectEnglish(s string) bool {
	linguaOnce.Do(func() {
		linguaDet = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.Japanese, lingua.French, lingua.Spanish, lingua.German).
			Build()
	})
	lang, ok := linguaDet.DetectLanguageOf(s)
	return ok && lang == lingua.English
}

// IsEnglishASCII reports whether s is a usable English synonym: pure ASCII,
// at least three characters after trimming, and language-detected English.
func IsEnglishASCII(s string, detect EnglishDetector) bool {
	if detect == nil {
		detect = detectEnglish
	}
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	if len(strings.TrimSpace(s)) < minSynonymLength {
		return false
	}
	return detect(s)
}

// SelectDisplayTitle picks the title written to the English Title property.
// Precedence: the English title when present, else the first synonym that
// passes IsEnglishASCII, else the Romaji title, else the caller's fallback,
// else "Unknown". The result is trimmed.
func SelectDisplayTitle(english string, synonyms []string, romaji, fallback string, detect EnglishDetector) string {
	pick := english
	if pick == "" {
		for _, s := range synonyms {
			if IsEnglishASCII(s, detect) {
				pick = s
				break
			}
		}
	}
	if pick == "" {
		pick = romaji
	}
	if pick == "" {
		pick = fallback
	}
	if pick == "" {
		pick = "Unknown"
	}
	return strings.TrimSpace(pick)
}
