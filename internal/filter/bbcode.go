package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// bbRule is one BBCode substitution. The patterns need backreferences for the
// optional quoting in [url="..."], so they are regexp2 expressions.
type bbRule struct {
	re     *regexp2.Regexp
	render func(g []string) string

	// urlGroup, when set, names the capture group holding an image URL. The
	// whole match is dropped if that URL fails CheckURLString.
	urlGroup int
}

type bbSpec struct {
	pattern  string
	render   func(g []string) string
	urlGroup int
}

// Tag rules are case-sensitive: [B] and [IMG] stay as text. Only the script
// scheme rules ignore case.
const (
	tagOptions    = regexp2.Singleline
	schemeOptions = regexp2.IgnoreCase | regexp2.Singleline
)

// control-code tolerant spellings of script schemes
const (
	jsScheme    = `j[\x01-\x1f]*a[\x01-\x1f]*v[\x01-\x1f]*a[\x01-\x1f]*s[\x01-\x1f]*c[\x01-\x1f]*r[\x01-\x1f]*i[\x01-\x1f]*p[\x01-\x1f]*t[\x01-\x1f]*:`
	aboutScheme = `a[\x01-\x1f]*b[\x01-\x1f]*o[\x01-\x1f]*u[\x01-\x1f]*t[\x01-\x1f]*:`
)

// centerOpen wraps a centred image, or its link when images are off.
const centerOpen = `<div style="margin: 0 auto; text-align: center;">`

func wrap(open string, group int, close string) func([]string) string {
	return func(g []string) string { return open + g[group] + close }
}

func bbSpecs(s Settings, allowImage bool) []bbSpec {
	site := s.SiteURL

	specs := []bbSpec{
		{`\[siteurl=(['"]?)([^"'<>]*?)\1\](.*?)\[/siteurl\]`, func(g []string) string {
			return `<a href="` + site + `/` + g[2] + `">` + g[3] + `</a>`
		}, 0},
		{`\[url=(['"]?)(https?://[^"'<>]*?)\1\](.*?)\[/url\]`, func(g []string) string {
			return `<a href="` + g[2] + `" rel="external">` + g[3] + `</a>`
		}, 0},
		{`\[url=(['"]?)(ftp?://[^"'<>]*?)\1\](.*?)\[/url\]`, func(g []string) string {
			return `<a href="` + g[2] + `" rel="external">` + g[3] + `</a>`
		}, 0},
		{`\[url=(['"]?)([^"'<>]*?)\1\](.*?)\[/url\]`, func(g []string) string {
			return `<a href="http://` + g[2] + `" rel="external">` + g[3] + `</a>`
		}, 0},
		{`\[color=(['"]?)([a-zA-Z0-9]*?)\1\](.*?)\[/color\]`, func(g []string) string {
			return `<span style="color: #` + g[2] + `;">` + g[3] + `</span>`
		}, 0},
		{`\[size=(['"]?)([a-z0-9-]*?)\1\](.*?)\[/size\]`, func(g []string) string {
			return `<span style="font-size: ` + g[2] + `;">` + g[3] + `</span>`
		}, 0},
		{`\[font=(['"]?)([^;<>*()"']*?)\1\](.*?)\[/font\]`, func(g []string) string {
			return `<span style="font-family: ` + g[2] + `;">` + g[3] + `</span>`
		}, 0},
		{`\[email\]([^;<>*()"']*?)\[/email\]`, func(g []string) string {
			return `<a href="mailto:` + g[1] + `">` + g[1] + `</a>`
		}, 0},
		{`\[b\](.*?)\[/b\]`, wrap("<strong>", 1, "</strong>"), 0},
		{`\[i\](.*?)\[/i\]`, wrap("<em>", 1, "</em>"), 0},
		{`\[u\](.*?)\[/u\]`, wrap("<u>", 1, "</u>"), 0},
		{`\[d\](.*?)\[/d\]`, wrap("<del>", 1, "</del>"), 0},
		{`\[center\](.*?)\[/center\]`, wrap(`<div align="center">`, 1, "</div>"), 0},
		{`\[left\](.*?)\[/left\]`, wrap(`<div align="left">`, 1, "</div>"), 0},
		{`\[right\](.*?)\[/right\]`, wrap(`<div align="right">`, 1, "</div>"), 0},
	}

	if allowImage {
		specs = append(specs,
			bbSpec{`\[img align=center\](.*?)\[/img\]`, func(g []string) string {
				return centerOpen + `<img src="` + g[1] + `" alt="" /></div>`
			}, 1},
			bbSpec{`\[img align=(['"]?)(left|right)\1\]([^"()?&'<>]*?)\[/img\]`, func(g []string) string {
				return `<img src="` + g[3] + `" align="` + g[2] + `" alt="" />`
			}, 3},
			bbSpec{`\[img\]([^"()?&'<>]*?)\[/img\]`, func(g []string) string {
				return `<img src="` + g[1] + `" alt="" />`
			}, 1},
			bbSpec{`\[img align=(['"]?)(left|right)\1 id=(['"]?)([0-9]*?)\3\]([^"()?&'<>]*?)\[/img\]`, func(g []string) string {
				return `<img src="` + site + `/image.php?id=` + g[4] + `" align="` + g[2] + `" alt="` + g[5] + `" />`
			}, 0},
			bbSpec{`\[img id=(['"]?)([0-9]*?)\1\]([^"()?&'<>]*?)\[/img\]`, func(g []string) string {
				return `<img src="` + site + `/image.php?id=` + g[2] + `" alt="` + g[3] + `" />`
			}, 0},
		)
	} else {
		specs = append(specs,
			bbSpec{`\[img align=center\](.*?)\[/img\]`, func(g []string) string {
				return centerOpen + `<a href="` + g[1] + `" rel="external">` + g[1] + `</a></div>`
			}, 1},
			bbSpec{`\[img align=(['"]?)(left|right)\1\]([^"()?&'<>]*?)\[/img\]`, func(g []string) string {
				return `<a href="` + g[3] + `" rel="external">` + g[3] + `</a>`
			}, 3},
			bbSpec{`\[img\]([^"()?&'<>]*?)\[/img\]`, func(g []string) string {
				return `<a href="` + g[1] + `" rel="external">` + g[1] + `</a>`
			}, 1},
			bbSpec{`\[img align=(['"]?)(left|right)\1 id=(['"]?)([0-9]*?)\3\]([^"()?&'<>]*?)\[/img\]`, func(g []string) string {
				return `<a href="` + site + `/image.php?id=` + g[4] + `" rel="external">` + g[5] + `</a>`
			}, 0},
			bbSpec{`\[img id=(['"]?)([0-9]*?)\1\]([^"()?&'<>]*?)\[/img\]`, func(g []string) string {
				return `<a href="` + site + `/image.php?id=` + g[2] + `" rel="external">` + g[3] + `</a>`
			}, 0},
		)
	}

	quote := s.QuoteLabel
	specs = append(specs,
		bbSpec{`\[quote\]`, func([]string) string {
			return quote + `<div class="icmsQuote"><blockquote><p>`
		}, 0},
		bbSpec{`\[/quote\]`, func([]string) string {
			return `</p></blockquote></div>`
		}, 0},
	)

	return specs
}

var schemeSpecs = []bbSpec{
	{jsScheme, func([]string) string { return "(script removed)" }, 0},
	{aboutScheme, func([]string) string { return "about :" }, 0},
}

func compileBBCode(s Settings, allowImage bool) ([]bbRule, error) {
	specs := bbSpecs(s, allowImage)
	rules := make([]bbRule, 0, len(specs)+len(schemeSpecs))
	var err error
	if rules, err = appendRules(rules, specs, tagOptions, s.MatchTimeout); err != nil {
		return nil, err
	}
	return appendRules(rules, schemeSpecs, schemeOptions, s.MatchTimeout)
}

func appendRules(rules []bbRule, specs []bbSpec, opts regexp2.RegexOptions, timeout time.Duration) ([]bbRule, error) {
	for _, spec := range specs {
		re, err := regexp2.Compile(spec.pattern, opts)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", spec.pattern, err)
		}
		if timeout > 0 {
			re.MatchTimeout = timeout
		}
		rules = append(rules, bbRule{re: re, render: spec.render, urlGroup: spec.urlGroup})
	}
	return rules, nil
}

func (r bbRule) apply(text string) (string, error) {
	return r.re.ReplaceFunc(text, func(m regexp2.Match) string {
		groups := m.Groups()
		g := make([]string, len(groups))
		for i := range groups {
			g[i] = groups[i].String()
		}
		if r.urlGroup > 0 && !CheckURLString(g[r.urlGroup]) {
			return ""
		}
		return r.render(g)
	}, -1, -1)
}

// CodeDecode converts BBCode to HTML. Images become <img> tags when image is
// true and plain links otherwise. Configured extensions run afterwards.
//
// Tags are not required to nest properly; each rule is applied independently
// in a fixed order.
func (f *Filter) CodeDecode(ctx context.Context, text string, image bool) (string, error) {
	rules := f.linkRules
	if image {
		rules = f.imageRules
	}

	text = strings.ReplaceAll(text, "\x00", "")

	var err error
	for _, rule := range rules {
		if text, err = rule.apply(text); err != nil {
			return "", fmt.Errorf("decode bbcode: %w", err)
		}
	}

	return f.codeDecodeExtensions(ctx, text)
}

func (f *Filter) codeDecodeExtensions(ctx context.Context, text string) (string, error) {
	var err error
	for _, name := range f.settings.Extensions {
		if text, err = f.ExecuteExtension(ctx, name, text); err != nil {
			return "", err
		}
	}
	return text, nil
}
