package docfeat

import (
	"strings"
	"testing"
)

func TestStripNumberPrefix(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1. Обзор литературы", "обзор литературы"},
		{"2 Методы исследования", "методы исследования"},
		{"ВВЕДЕНИЕ", "введение"},
		{"10. Выводы", "выводы"},
	}
	for _, tt := range tests {
		if got := stripNumberPrefix(tt.in); got != tt.want {
			t.Errorf("stripNumberPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsAllUpper(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ВВЕДЕНИЕ", true},
		{"ЗАКЛЮЧЕНИЕ", true},
		{"Введение", false},
		{"1.2.3", false}, // no letters
		{"ГЛАВА 1", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := isAllUpper(tt.in); got != tt.want {
			t.Errorf("isAllUpper(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractIntroduction(t *testing.T) {
	full := "Титульный лист Содержание ВВЕДЕНИЕ Актуальность темы обусловлена ростом требований. " +
		"Цель работы сформулирована ниже. 1. Обзор литературы Основной текст."

	intro := extractIntroduction(full, 1000)
	if !strings.Contains(intro, "актуальность темы") {
		t.Errorf("introduction missing body: %q", intro)
	}
	if strings.Contains(intro, "обзор литературы") {
		t.Errorf("introduction leaked past next heading: %q", intro)
	}
}

func TestExtractIntroductionFallback(t *testing.T) {
	full := strings.Repeat("слово ", 300)
	intro := extractIntroduction(full, 100)
	if got := len([]rune(intro)); got != 100 {
		t.Errorf("fallback length = %d, want 100", got)
	}
}

func TestCountWords(t *testing.T) {
	if got := countWords("Цель работы: повысить качество, снизить затраты."); got != 6 {
		t.Errorf("countWords = %d, want 6", got)
	}
	if got := countWords(""); got != 0 {
		t.Errorf("countWords(empty) = %d, want 0", got)
	}
}

func TestHasTitleKeyword(t *testing.T) {
	if !hasTitleKeyword("курсовая работа по дисциплине") {
		t.Error("expected keyword match")
	}
	if hasTitleKeyword("обычный текст абзаца") {
		t.Error("unexpected keyword match")
	}
}

func TestAppendElement(t *testing.T) {
	els := appendElement(nil, "введение")
	els = appendElement(els, "заключение")
	els = appendElement(els, "введение")
	if len(els) != 2 || els[0] != "введение" || els[1] != "заключение" {
		t.Errorf("appendElement = %v", els)
	}
}
