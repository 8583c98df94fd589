package filter

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Trim strips spaces, tabs, line breaks, NUL and vertical tabs from both ends.
func Trim(text string) string {
	return strings.Trim(text, " \t\n\r\x00\x0B")
}

// ReverseUTF8 reverses text rune by rune. Unless all is set, runs of ASCII
// digits keep their reading order, so "impresscms 2008" becomes
// "2008 smcsserpmi".
func ReverseUTF8(text string, all bool) string {
	r := []rune(text)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	if all {
		return string(r)
	}

	for i := 0; i < len(r); {
		if !isDigit(r[i]) {
			i++
			continue
		}
		j := i
		for j < len(r) && isDigit(r[j]) {
			j++
		}
		for a, b := i, j-1; a < b; a, b = a+1, b-1 {
			r[a], r[b] = r[b], r[a]
		}
		i = j
	}
	return string(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

type mlTag struct {
	name string
	re   *regexp.Regexp
}

func compileMultilang(m MultilangSettings) []mlTag {
	if !m.Enabled {
		return nil
	}
	tags := make([]mlTag, 0, len(m.Tags))
	for _, t := range m.Tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		q := regexp.QuoteMeta(t)
		tags = append(tags, mlTag{
			name: t,
			re:   regexp.MustCompile(`(?s)\[` + q + `\](.*?)\[/` + q + `\]`),
		})
	}
	return tags
}

// Substr cuts text to length runes starting at start, ending the result with
// marker when anything was dropped. With multi-language tags enabled, every
// [lang]...[/lang] section is cut on its own and re-wrapped.
func (f *Filter) Substr(text string, start, length int, marker string) string {
	type section struct{ tag, body string }

	var sections []section
	for _, t := range f.mlTags {
		if m := t.re.FindStringSubmatch(text); m != nil {
			sections = append(sections, section{t.name, m[1]})
		}
	}
	if len(sections) == 0 {
		return truncate(text, start, length, marker)
	}

	var b strings.Builder
	for _, s := range sections {
		b.WriteString("[" + s.tag + "]")
		b.WriteString(truncate(s.body, start, length, marker))
		b.WriteString("[/" + s.tag + "]")
	}
	return b.String()
}

func truncate(text string, start, length int, marker string) string {
	r := []rune(text)
	start = max(0, min(start, len(r)))
	length = max(0, length)
	r = r[start:]
	if len(r) <= length {
		return string(r)
	}
	keep := max(0, length-utf8.RuneCountInString(marker))
	return string(r[:keep]) + marker
}

// CleanArray drops empty values from m, descending into nested maps and
// slices. Empty means nil, "", "0", false, a float zero or a container left
// empty after cleaning. Integer zero, including a json.Number "0", is kept.
func CleanArray(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if cleaned, keep := cleanValue(v); keep {
			out[k] = cleaned
		}
	}
	return out
}

func cleanValue(v any) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case string:
		return val, val != "" && val != "0"
	case bool:
		return val, val
	case float32:
		return val, val != 0
	case float64:
		return val, val != 0
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return val, true
		}
		f, err := val.Float64()
		return val, err != nil || f != 0
	case map[string]any:
		cleaned := CleanArray(val)
		return cleaned, len(cleaned) > 0
	case []any:
		cleaned := make([]any, 0, len(val))
		for _, item := range val {
			if c, keep := cleanValue(item); keep {
				cleaned = append(cleaned, c)
			}
		}
		return cleaned, len(cleaned) > 0
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Map, reflect.Slice:
			return v, rv.Len() > 0
		}
		return v, true
	}
}
