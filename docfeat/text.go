package docfeat

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Canonical structural elements injected by detection heuristics.
const (
	elementTitlePage    = "титульный лист"
	elementIntroduction = "введение"
	elementMainBody     = "основная часть"
)

var (
	// numberedHeadingRe matches "1. Обзор", "2 Методы" and similar.
	numberedHeadingRe = regexp.MustCompile(`^\d+\.?\s`)

	// numberPrefixRe strips leading numbering from a heading label.
	numberPrefixRe = regexp.MustCompile(`^\d+\.?\s*`)

	// chapterRe marks a numbered chapter heading ("1. ..."), which implies
	// the document has a main body.
	chapterRe = regexp.MustCompile(`^\d+\.`)

	// sectionNameRe matches the canonical section names of a coursework
	// document at the start of a line.
	sectionNameRe = regexp.MustCompile(`^(содержание|оглавление|определения|обозначения и сокращения|введение|заключение|список (использованных|литературы|источников)|приложения|\d+\.?\s?[\p{L}\d]+|глава \d+)`)

	// introRe captures text between an introduction heading and the next
	// structural marker.
	introRe = regexp.MustCompile(`(?is)(введение|introduction)\s*([\s\S]*?)\s*(\d+\.?\s|глава|основная часть|заключение|conclusion|references|приложения|appendix|список|section)`)

	// wordRe tokenizes text for word counting.
	wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// titleKeywords mark a title page when found near the start of a document.
var titleKeywords = []string{
	"курсовая работа",
	"дипломная работа",
	"студент",
	"преподаватель",
	"университет",
	"факультет",
	"москва",
	"год",
}

// hasTitleKeyword reports whether lower contains any title-page keyword.
func hasTitleKeyword(lower string) bool {
	for _, kw := range titleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// stripNumberPrefix lowercases a heading and removes its leading numbering.
func stripNumberPrefix(text string) string {
	return numberPrefixRe.ReplaceAllString(strings.ToLower(text), "")
}

// isAllUpper reports whether s contains at least one letter and no
// lowercase letters.
func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		hasLetter = true
		if unicode.IsLower(r) {
			return false
		}
	}
	return hasLetter
}

// extractIntroduction pulls the introduction body out of the full document
// text. When no introduction marker is found the first fallbackChars
// characters are returned instead, so content rules still have something
// to inspect.
func extractIntroduction(fullText string, fallbackChars int) string {
	m := introRe.FindStringSubmatch(strings.ToLower(fullText))
	if m != nil {
		return strings.TrimSpace(m[2])
	}
	runes := []rune(fullText)
	if len(runes) > fallbackChars {
		runes = runes[:fallbackChars]
	}
	return string(runes)
}

func countWords(text string) int {
	return len(wordRe.FindAllString(text, -1))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func ptr[T any](v T) *T { return &v }

// appendElement adds a detected element once, preserving document order.
func appendElement(elements []string, el string) []string {
	for _, e := range elements {
		if e == el {
			return elements
		}
	}
	return append(elements, el)
}
