// internal/resource/naming.go
//
// English noun inflection used to derive the plural path segment.
//
// The rules are a heuristic, not a dictionary: an irregular table first,
// then suffix rules (sibilants → “es”, consonant + y → “ies”, f/fe → “ves”),
// then plain “s”.  Anything unusual can be fixed per resource through the
// configure callback or the `plural` config key.
package resource

import "strings"

// irregular maps lower-case singular nouns to their plural.  Uncountable
// nouns map to themselves.
var irregular = map[string]string{
	"child":       "children",
	"person":      "people",
	"man":         "men",
	"woman":       "women",
	"foot":        "feet",
	"tooth":       "teeth",
	"goose":       "geese",
	"mouse":       "mice",
	"ox":          "oxen",
	"index":       "indices",
	"matrix":      "matrices",
	"vertex":      "vertices",
	"analysis":    "analyses",
	"crisis":      "crises",
	"thesis":      "theses",
	"datum":       "data",
	"medium":      "media",
	"criterion":   "criteria",
	"quiz":        "quizzes",
	"equipment":   "equipment",
	"information": "information",
	"money":       "money",
	"news":        "news",
	"series":      "series",
	"sheep":       "sheep",
	"species":     "species",
	"fish":        "fish",
	"deer":        "deer",
}

// fExceptions end in f/fe but only take an “s”.
var fExceptions = map[string]bool{
	"roof":   true,
	"belief": true,
	"chef":   true,
	"chief":  true,
	"proof":  true,
	"safe":   true,
	"cafe":   true,
}

// Pluralize returns the English plural of word.  Case of the first letter
// is preserved for irregular forms; suffix rules keep the stem as given.
func Pluralize(word string) string {
	if word == "" {
		return ""
	}
	lower := strings.ToLower(word)

	if p, ok := irregular[lower]; ok {
		if word[0] >= 'A' && word[0] <= 'Z' {
			return strings.ToUpper(p[:1]) + p[1:]
		}
		return p
	}

	switch {
	case strings.HasSuffix(lower, "s"),
		strings.HasSuffix(lower, "sh"),
		strings.HasSuffix(lower, "ch"),
		strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "z"):
		return word + "es"

	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(lower[len(lower)-2]):
		return word[:len(word)-1] + "ies"

	case fExceptions[lower]:
		return word + "s"

	case strings.HasSuffix(lower, "fe"):
		return word[:len(word)-2] + "ves"

	case strings.HasSuffix(lower, "f") && !strings.HasSuffix(lower, "ff"):
		return word[:len(word)-1] + "ves"

	case strings.HasSuffix(lower, "o") && len(lower) > 1 && !isVowel(lower[len(lower)-2]):
		if oTakesES[lower] {
			return word + "es"
		}
		return word + "s"
	}
	return word + "s"
}

// oTakesES lists consonant + o nouns whose plural is “oes”.
var oTakesES = map[string]bool{
	"hero":    true,
	"potato":  true,
	"tomato":  true,
	"echo":    true,
	"veto":    true,
	"torpedo": true,
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
