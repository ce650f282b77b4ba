package keywords

import (
	"regexp"
	"strings"
	"unicode"
)

// sentenceEndRe matches terminal punctuation, optional closing quotes or
// brackets, and the whitespace that follows.
var sentenceEndRe = regexp.MustCompile(`[.!?]+["'”’)\]]*\s+`)

var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "sr": {}, "jr": {}, "st": {},
	"vs": {}, "etc": {}, "e.g": {}, "i.e": {}, "fig": {}, "vol": {}, "approx": {},
	"inc": {}, "ltd": {}, "co": {}, "jan": {}, "feb": {}, "mar": {}, "apr": {}, "jun": {},
	"jul": {}, "aug": {}, "sep": {}, "sept": {}, "oct": {}, "nov": {}, "dec": {},
}

// SplitSentences splits text into trimmed sentences. Breaks happen after
// terminal punctuation followed by whitespace, and at blank lines. A period
// does not break after a common abbreviation or a run of initials at the
// start of a sentence ("J. R. Tolkien").
func SplitSentences(text string) []string {
	var sentences []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		start := 0
		for _, loc := range sentenceEndRe.FindAllStringIndex(para, -1) {
			if para[loc[0]] == '.' && isAbbreviation(para[start:loc[0]]) {
				continue
			}
			sentences = appendSentence(sentences, para[start:loc[1]])
			start = loc[1]
		}
		sentences = appendSentence(sentences, para[start:])
	}
	return sentences
}

func appendSentence(sentences []string, s string) []string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return sentences
	}
	return append(sentences, s)
}

// isAbbreviation looks at the last word of before, the text of the current
// sentence up to a period.
func isAbbreviation(before string) bool {
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return false
	}
	last := strings.ToLower(strings.TrimLeft(fields[len(fields)-1], "(\"'"))
	if _, ok := abbreviations[last]; ok {
		return true
	}
	for _, f := range fields {
		if !isInitial(f) {
			return false
		}
	}
	return true
}

// isInitial reports whether word is one upper-case letter, optionally
// followed by its period.
func isInitial(word string) bool {
	runes := []rune(strings.TrimSuffix(word, "."))
	return len(runes) == 1 && unicode.IsUpper(runes[0])
}
