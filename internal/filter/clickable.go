package filter

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	clickScheme = regexp.MustCompile(`(?i)(^|[^\]_a-z0-9\-="'/])([a-z]+?)://([^, \r\n"()'<>]+)`)
	clickWWW    = regexp.MustCompile(`(?i)(^|[^\]_a-z0-9\-="'/])www\.([a-z0-9\-]+)\.([^, \r\n"()'<>]+)`)
	clickFTP    = regexp.MustCompile(`(?i)(^|[^\]_a-z0-9\-="'/])ftp\.([a-z0-9\-]+)\.([^,\r\n"()'<>]+)`)

	anchorElement = regexp.MustCompile(`(?is)<a\s[^>]*>.*?</a>`)
	anchorParts   = regexp.MustCompile(`(?is)(<a\s[^>]*>)([^<]*)(</a>)`)
	longLinkStart = regexp.MustCompile(`(?i)^(https?://|ftp://|www\.)`)
)

// MakeClickable wraps bare URLs ("scheme://", "www." and "ftp." forms) in
// anchors with rel="external". URLs already inside an anchor, or glued to a
// quote, "=", "/" or "]", are left alone.
func (f *Filter) MakeClickable(text string) string {
	text = " " + text

	text = outsideAnchors(text, func(seg string) string {
		seg = clickScheme.ReplaceAllString(seg, `${1}<a href="${2}://${3}" rel="external">${2}://${3}</a>`)
		seg = clickWWW.ReplaceAllString(seg, `${1}<a href="http://www.${2}.${3}" rel="external">www.${2}.${3}</a>`)
		seg = clickFTP.ReplaceAllString(seg, `${1}<a href="ftp://ftp.${2}.${3}" rel="external">ftp.${2}.${3}</a>`)
		return seg
	})

	if f.settings.Clickable.Shorten {
		text = f.shortenLinks(text)
	}

	return text[1:]
}

// outsideAnchors applies fn to every stretch of text that is not part of an
// <a>...</a> element.
func outsideAnchors(text string, fn func(string) string) string {
	var b strings.Builder
	last := 0
	for _, loc := range anchorElement.FindAllStringIndex(text, -1) {
		b.WriteString(fn(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(fn(text[last:]))
	return b.String()
}

// shortenLinks abbreviates long link captions to head + " ... " + tail.
func (f *Filter) shortenLinks(text string) string {
	c := f.settings.Clickable
	return anchorParts.ReplaceAllStringFunc(text, func(a string) string {
		parts := anchorParts.FindStringSubmatch(a)
		caption := parts[2]
		n := utf8.RuneCountInString(caption)
		if n <= c.MaxLength || c.Head+c.Tail >= n || !longLinkStart.MatchString(caption) {
			return a
		}
		r := []rune(caption)
		return parts[1] + string(r[:c.Head]) + " ... " + string(r[n-c.Tail:]) + parts[3]
	})
}
