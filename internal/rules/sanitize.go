package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxCommandLength bounds the input size so the regex and parser passes stay
// cheap.
const MaxCommandLength = 10000

// checkInput rejects byte sequences no legitimate command line contains.
func checkInput(s string) (reason string, ok bool) {
	if len(s) > MaxCommandLength {
		return "command exceeds maximum length", false
	}
	if !utf8.ValidString(s) {
		return "command is not valid UTF-8", false
	}
	for _, r := range s {
		switch {
		case r == 0:
			return "command contains null bytes", false
		case invisibleRunes[r]:
			return "command contains invisible formatting characters", false
		case unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r':
			return "command contains control characters", false
		}
	}
	return "", true
}

// NormalizeUnicode folds compatibility forms (fullwidth letters and the like)
// with NFKC and maps cross-script homoglyphs to ASCII.
func NormalizeUnicode(s string) string {
	s = norm.NFKC.String(s)
	s = stripConfusables(s)
	// Replacing a base character can form new composition pairs.
	return norm.NFKC.String(s)
}

// confusableMap maps the commonest Cyrillic, Greek and small-capital
// lookalikes to ASCII.
var confusableMap = map[rune]rune{
	// Cyrillic
	'\u0430': 'a', // а
	'\u0435': 'e', // е
	'\u0456': 'i', // і
	'\u0458': 'j', // ј
	'\u043E': 'o', // о
	'\u0440': 'p', // р
	'\u0441': 'c', // с
	'\u0455': 's', // ѕ
	'\u0443': 'y', // у
	'\u0445': 'x', // х
	'\u0410': 'A', // А
	'\u0412': 'B', // В
	'\u0415': 'E', // Е
	'\u041A': 'K', // К
	'\u041C': 'M', // М
	'\u041D': 'H', // Н
	'\u041E': 'O', // О
	'\u0420': 'P', // Р
	'\u0421': 'C', // С
	'\u0422': 'T', // Т
	'\u0425': 'X', // Х
	// Greek
	'\u03B1': 'a', // α
	'\u03B5': 'e', // ε
	'\u03B9': 'i', // ι
	'\u03BF': 'o', // ο
	'\u03C1': 'p', // ρ
	'\u03BA': 'k', // κ
	'\u0391': 'A', // Α
	'\u0392': 'B', // Β
	'\u0395': 'E', // Ε
	'\u0397': 'H', // Η
	'\u0399': 'I', // Ι
	'\u039A': 'K', // Κ
	'\u039C': 'M', // Μ
	'\u039D': 'N', // Ν
	'\u039F': 'O', // Ο
	'\u03A1': 'P', // Ρ
	'\u03A4': 'T', // Τ
	'\u03A7': 'X', // Χ
	'\u0396': 'Z', // Ζ
	// Latin small capitals, which NFKC leaves alone
	'\u1D00': 'a', // ᴀ
	'\u1D04': 'c', // ᴄ
	'\u1D05': 'd', // ᴅ
	'\u1D07': 'e', // ᴇ
	'\u029C': 'h', // ʜ
	'\u026A': 'i', // ɪ
	'\u1D0B': 'k', // ᴋ
	'\u029F': 'l', // ʟ
	'\u1D0D': 'm', // ᴍ
	'\u0274': 'n', // ɴ
	'\u1D0F': 'o', // ᴏ
	'\u1D18': 'p', // ᴘ
	'\u0280': 'r', // ʀ
	'\uA731': 's', // ꜱ
	'\u1D1B': 't', // ᴛ
	'\u1D1C': 'u', // ᴜ
}

// invisibleRunes are zero-width and bidi formatting characters. They render as
// nothing but split tokens, so "r\u200bm" would slip past a literal match.
var invisibleRunes = map[rune]bool{
	'\u00AD': true, // soft hyphen
	'\u034F': true, // combining grapheme joiner
	'\u061C': true, // arabic letter mark
	'\u180E': true, // mongolian vowel separator
	'\u200B': true, // zero-width space
	'\u200C': true, // zero-width non-joiner
	'\u200D': true, // zero-width joiner
	'\u200E': true, // left-to-right mark
	'\u200F': true, // right-to-left mark
	'\u202A': true, // left-to-right embedding
	'\u202B': true, // right-to-left embedding
	'\u202C': true, // pop directional formatting
	'\u202D': true, // left-to-right override
	'\u202E': true, // right-to-left override
	'\u2060': true, // word joiner
	'\u2061': true, // function application
	'\u2062': true, // invisible times
	'\u2063': true, // invisible separator
	'\u2064': true, // invisible plus
	'\uFEFF': true, // zero-width no-break space
}

func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		if invisibleRunes[r] {
			return -1
		}
		return r
	}, s)
}

func stripConfusables(s string) string {
	return strings.Map(func(r rune) rune {
		if ascii, ok := confusableMap[r]; ok {
			return ascii
		}
		return r
	}, s)
}
