package filter

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// HTMLPurifier strips HTML down to what the BBCode renderer and the
// highlighter can produce, plus the usual user-generated content tags.
type HTMLPurifier struct {
	policy *bluemonday.Policy
}

func NewHTMLPurifier() *HTMLPurifier {
	p := bluemonday.UGCPolicy()

	p.AllowElements("div", "span", "u", "del", "strong", "em", "blockquote", "p", "br", "pre", "code")
	p.AllowAttrs("rel").
		Matching(regexp.MustCompile(`^(external|nofollow|noopener|noreferrer)( (external|nofollow|noopener|noreferrer))*$`)).
		OnElements("a")
	p.AllowAttrs("align").
		Matching(regexp.MustCompile(`^(left|right|center)$`)).
		OnElements("div", "img", "p")
	p.AllowAttrs("class").
		Matching(regexp.MustCompile(`^(icmsCode|icmsQuote)$`)).
		OnElements("div")
	p.AllowAttrs("class").
		Matching(regexp.MustCompile(`^[a-zA-Z0-9 _\-]+$`)).
		OnElements("span", "pre", "code")
	p.AllowStyles("color", "font-size", "font-family").OnElements("span")
	p.AllowStyles("margin", "text-align").OnElements("div")

	return &HTMLPurifier{policy: p}
}

// Purify sanitizes html and appends PurifierMarker.
func (h *HTMLPurifier) Purify(html string) string {
	return h.policy.Sanitize(html) + PurifierMarker
}

func (f *Filter) purify(html string) string {
	if f.purifier == nil {
		return html
	}
	return f.purifier.Purify(html)
}
