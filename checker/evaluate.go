package checker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/msklnkk/Electronic-corrector/docfeat"
	"github.com/msklnkk/Electronic-corrector/rules"
)

// Evaluate applies one rule to the extracted features. Dispatch is an
// exhaustive switch over the check type: every known type has a branch
// and unknown values produce an explicit failed result, never a silent
// no-op. A feature the document never yielded produces a failed
// "setting is absent" result instead of a crash.
func Evaluate(rule rules.Rule, features *docfeat.DocumentFeatures) ValidationResult {
	actual := features.Field(rule.Field)
	if actual == nil {
		return absentResult(rule)
	}

	switch rule.Check {
	case rules.CheckEquals:
		return checkEquals(rule, actual)
	case rules.CheckContains:
		return checkContains(rule, actual)
	case rules.CheckListPresence:
		return checkListPresence(rule, actual)
	case rules.CheckMinValue:
		return checkMinValue(rule, actual)
	case rules.CheckMaxValue:
		return checkMaxValue(rule, actual)
	case rules.CheckRange:
		return checkRange(rule, actual)
	case rules.CheckObjectEquals:
		return checkObject(rule, actual, true)
	case rules.CheckObjectContains:
		return checkObject(rule, actual, false)
	default:
		return result(rule, false,
			fmt.Sprintf("Неизвестный тип проверки: %s", rule.Check), actual)
	}
}

// absentResult is the shared fallback for features the extractor never
// recovered from the document.
func absentResult(rule rules.Rule) ValidationResult {
	res := result(rule, false,
		fmt.Sprintf("В документе отсутствует значение поля «%s»", rule.Field), nil)
	res.Suggestion = fmt.Sprintf("Добавьте в документ данные для проверки «%s»", rule.Title)
	return res
}

func result(rule rules.Rule, passed bool, message string, actual any) ValidationResult {
	return ValidationResult{
		RuleID:   rule.ID,
		Section:  rule.Section,
		Title:    rule.Title,
		Severity: rule.Severity,
		IsPassed: passed,
		Message:  message,
		Expected: rule.Expected,
		Actual:   actual,
	}
}

func checkEquals(rule rules.Rule, actual any) ValidationResult {
	if valuesEqual(rule.Expected, actual) {
		return result(rule, true,
			fmt.Sprintf("Соответствует требованию: %v", rule.Expected), actual)
	}
	return result(rule, false,
		fmt.Sprintf("Не соответствует: ожидалось %v, получено %v", rule.Expected, actual), actual)
}

func checkContains(rule rules.Rule, actual any) ValidationResult {
	expected := fmt.Sprintf("%v", rule.Expected)
	text, _ := actual.(string)
	passed := strings.Contains(strings.ToLower(text), strings.ToLower(expected))
	shown := truncate(text, 100)
	if passed {
		return result(rule, true,
			fmt.Sprintf("Текст содержит требуемое: «%s»", expected), shown)
	}
	return result(rule, false,
		fmt.Sprintf("Текст не содержит требуемое: «%s»", expected), shown)
}

// checkListPresence verifies that every expected item (or one of its
// synonyms) occurs as a case-insensitive substring of the actual value.
// The actual value is either the detected element list or a body of text
// such as the introduction.
func checkListPresence(rule rules.Rule, actual any) ValidationResult {
	reqs := rule.Requirements()
	if len(reqs) == 0 {
		return result(rule, false, "Правило не содержит ожидаемых элементов", actual)
	}

	var missing []string
	for _, req := range reqs {
		if !requirementMet(req, actual) {
			missing = append(missing, req.Name)
		}
	}

	intro := rule.Type == rules.TypeContent
	shownActual := actual
	if text, ok := actual.(string); ok {
		shownActual = truncate(text, 200)
	}

	if len(missing) == 0 {
		msg := "Все обязательные элементы присутствуют"
		if intro {
			msg = "Введение содержит все обязательные элементы"
		}
		return result(rule, true, msg, shownActual)
	}

	msg := fmt.Sprintf("Отсутствуют элементы: %s", strings.Join(missing, ", "))
	suggestion := fmt.Sprintf("Добавьте недостающие элементы: %s", strings.Join(missing, ", "))
	if intro {
		msg = fmt.Sprintf("В введении отсутствуют: %s", strings.Join(missing, ", "))
		suggestion = fmt.Sprintf("Добавьте в введение: %s", strings.Join(missing, ", "))
	}
	res := result(rule, false, msg, shownActual)
	res.Suggestion = suggestion
	res.Details = map[string]any{"missing": missing}
	return res
}

func requirementMet(req rules.Requirement, actual any) bool {
	phrases := append([]string{req.Name}, req.Synonyms...)
	switch v := actual.(type) {
	case []string:
		for _, phrase := range phrases {
			p := strings.ToLower(phrase)
			for _, el := range v {
				if strings.Contains(strings.ToLower(el), p) {
					return true
				}
			}
		}
	case string:
		lower := strings.ToLower(v)
		for _, phrase := range phrases {
			if strings.Contains(lower, strings.ToLower(phrase)) {
				return true
			}
		}
	}
	return false
}

// checkObject compares expected keys against an actual object. A missing
// key is reported by name, distinct from a value mismatch. strict toggles
// object_equals wording versus object_contains.
func checkObject(rule rules.Rule, actual any, strict bool) ValidationResult {
	expected, ok := rule.Expected.(map[string]any)
	if !ok {
		return result(rule, false, "Правило задаёт не объектное ожидаемое значение", actual)
	}
	actualMap, ok := actual.(map[string]any)
	if !ok {
		return result(rule, false,
			fmt.Sprintf("Ожидался объект параметров, получено %v", actual), actual)
	}

	var mismatches []string
	for _, key := range sortedKeys(expected) {
		want := expected[key]
		got, present := actualMap[key]
		switch {
		case !present:
			mismatches = append(mismatches, fmt.Sprintf("%s: отсутствует в документе", key))
		case !valuesEqual(want, got):
			mismatches = append(mismatches, fmt.Sprintf("%s: ожидалось %v, получено %v", key, want, got))
		}
	}

	if len(mismatches) == 0 {
		msg := "Все параметры соответствуют требованиям"
		if !strict {
			msg = "Содержит все требуемые свойства"
		}
		return result(rule, true, msg, actualMap)
	}

	msg := fmt.Sprintf("Несоответствия: %s", strings.Join(mismatches, "; "))
	if !strict {
		msg = fmt.Sprintf("Отсутствуют или неверны свойства: %s", strings.Join(mismatches, "; "))
	}
	res := result(rule, false, msg, actualMap)
	res.Details = map[string]any{"mismatches": mismatches}
	return res
}

func checkMinValue(rule rules.Rule, actual any) ValidationResult {
	min, okMin := asFloat(rule.Expected)
	val, okVal := asFloat(actual)
	if !okMin || !okVal {
		return result(rule, false,
			fmt.Sprintf("Нечисловое значение для проверки минимума: %v", actual), actual)
	}
	if val >= min {
		return result(rule, true,
			fmt.Sprintf("Значение %v не меньше минимально допустимого %v", actual, rule.Expected), actual)
	}
	return result(rule, false,
		fmt.Sprintf("Значение %v меньше минимально допустимого %v", actual, rule.Expected), actual)
}

func checkMaxValue(rule rules.Rule, actual any) ValidationResult {
	max, okMax := asFloat(rule.Expected)
	val, okVal := asFloat(actual)
	if !okMax || !okVal {
		return result(rule, false,
			fmt.Sprintf("Нечисловое значение для проверки максимума: %v", actual), actual)
	}
	if val <= max {
		return result(rule, true,
			fmt.Sprintf("Значение %v не больше максимально допустимого %v", actual, rule.Expected), actual)
	}
	return result(rule, false,
		fmt.Sprintf("Значение %v больше максимально допустимого %v", actual, rule.Expected), actual)
}

// checkRange reports which bound was violated, not merely that the value
// is out of range.
func checkRange(rule rules.Rule, actual any) ValidationResult {
	min, max, ok := rangeBounds(rule.Expected)
	val, okVal := asFloat(actual)
	if !ok || !okVal {
		return result(rule, false,
			fmt.Sprintf("Невозможно проверить диапазон для значения %v", actual), actual)
	}
	switch {
	case val < min:
		return result(rule, false,
			fmt.Sprintf("Значение %v меньше минимально допустимого %v", actual, min), actual)
	case val > max:
		return result(rule, false,
			fmt.Sprintf("Значение %v больше максимально допустимого %v", actual, max), actual)
	default:
		return result(rule, true,
			fmt.Sprintf("Значение %v находится в допустимом диапазоне [%v, %v]", actual, min, max), actual)
	}
}

// rangeBounds accepts {min: x, max: y} objects and [min, max] pairs.
func rangeBounds(expected any) (min, max float64, ok bool) {
	switch v := expected.(type) {
	case map[string]any:
		min, okMin := asFloat(v["min"])
		max, okMax := asFloat(v["max"])
		return min, max, okMin && okMax
	case []any:
		if len(v) != 2 {
			return 0, 0, false
		}
		min, okMin := asFloat(v[0])
		max, okMax := asFloat(v[1])
		return min, max, okMin && okMax
	}
	return 0, 0, false
}

// valuesEqual compares scalars with numeric normalization: YAML/JSON
// decoding yields a mix of int and float64 that must compare equal when
// the numbers match.
func valuesEqual(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic message order regardless of map iteration.
	sort.Strings(keys)
	return keys
}
