package filter

import (
	"regexp"
	"strings"
)

type censorRule struct {
	re   *regexp.Regexp
	repl string
}

func compileCensor(c CensorSettings) []censorRule {
	if !c.Enabled {
		return nil
	}

	repl := strings.ReplaceAll(c.Replacement, "$", "$$")
	rules := make([]censorRule, 0, len(c.Words)*3)
	for _, word := range c.Words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		q := regexp.QuoteMeta(word)
		rules = append(rules,
			censorRule{regexp.MustCompile(`(?is)(\s)` + q), "${1}" + repl},
			censorRule{regexp.MustCompile(`(?is)^` + q), repl},
			censorRule{regexp.MustCompile(`(?is)\]` + q), "]" + repl},
		)
	}
	return rules
}

// CensorString replaces configured bad words that start the text or follow
// whitespace or a closing bracket. Matching is case-insensitive.
func (f *Filter) CensorString(text string) string {
	for _, rule := range f.censor {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}
	return text
}
