package filter

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Extension is a named text transform run by CodeDecode after the BBCode rules.
type Extension interface {
	Name() string
	Apply(ctx context.Context, text string) (string, error)
}

// Registry holds extensions by name.
type Registry struct {
	mu   sync.RWMutex
	exts map[string]Extension
}

func NewRegistry(exts ...Extension) *Registry {
	r := &Registry{exts: make(map[string]Extension, len(exts))}
	for _, e := range exts {
		r.Register(e)
	}
	return r
}

// DefaultRegistry returns a registry holding the built-in extensions.
func DefaultRegistry(s Settings) *Registry {
	return NewRegistry(
		NewSyntaxHighlight(s.Highlight),
		YouTube{},
		NewWiki(s.WikiURL),
	)
}

// Register adds e, replacing any extension with the same name.
func (r *Registry) Register(e Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exts[e.Name()] = e
}

func (r *Registry) Get(name string) (Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.exts[name]
	return e, ok
}

// Names lists registered extensions in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.exts))
	for name := range r.exts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExecuteExtension runs a single extension by name. Unknown names leave the
// text unchanged.
func (f *Filter) ExecuteExtension(ctx context.Context, name, text string) (string, error) {
	ext, ok := f.extensions.Get(name)
	if !ok {
		return text, nil
	}
	out, err := ext.Apply(ctx, text)
	if err != nil {
		return "", fmt.Errorf("extension %s: %w", name, err)
	}
	return out, nil
}

var sourceBlock = regexp.MustCompile(`(?is)\[source(?:=([a-z0-9_+#.\-]+))?\](.*?)\[/source\]`)

// SyntaxHighlight renders [source=lang]...[/source] blocks.
//
// In "chroma" mode the block is highlighted for its language (falling back to
// the configured default). "php" mode always uses the PHP lexer. "plain" mode
// only wraps the block in <pre><code>.
type SyntaxHighlight struct {
	settings HighlightSettings
}

func NewSyntaxHighlight(s HighlightSettings) *SyntaxHighlight {
	return &SyntaxHighlight{settings: s}
}

func (s *SyntaxHighlight) Name() string { return "syntaxhighlight" }

func (s *SyntaxHighlight) Apply(_ context.Context, text string) (string, error) {
	var hlErr error
	out := sourceBlock.ReplaceAllStringFunc(text, func(block string) string {
		if hlErr != nil {
			return block
		}
		m := sourceBlock.FindStringSubmatch(block)
		lang, code := m[1], m[2]

		switch s.settings.Mode {
		case "chroma", "php":
			if s.settings.Mode == "php" || lang == "" {
				lang = s.settings.Language
			}
			html, err := s.highlight(lang, UndoHTMLSpecialChars(code))
			if err != nil {
				hlErr = err
				return block
			}
			return `<code>` + html + `</code>`
		default:
			return `<pre><code>` + code + `</code></pre>`
		}
	})
	if hlErr != nil {
		return "", hlErr
	}
	return out, nil
}

func (s *SyntaxHighlight) highlight(lang, code string) (string, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", lang, err)
	}

	var b strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.Format(&b, styles.Get(s.settings.Style), iterator); err != nil {
		return "", fmt.Errorf("format %s: %w", lang, err)
	}
	return b.String(), nil
}

var youtubeBlock = regexp.MustCompile(`(?i)\[youtube\]([a-z0-9_\-]{6,20})\[/youtube\]`)

// YouTube embeds [youtube]id[/youtube] as a player iframe.
type YouTube struct{}

func (YouTube) Name() string { return "youtube" }

func (YouTube) Apply(_ context.Context, text string) (string, error) {
	return youtubeBlock.ReplaceAllString(text,
		`<iframe width="560" height="315" src="https://www.youtube.com/embed/${1}" allowfullscreen></iframe>`), nil
}

var wikiLink = regexp.MustCompile(`\[\[([^\[\]<>"]+?)\]\]`)

// Wiki links [[Page Name]] to a page under a wiki base URL.
type Wiki struct {
	base string
}

func NewWiki(base string) *Wiki {
	return &Wiki{base: strings.TrimRight(base, "/")}
}

func (w *Wiki) Name() string { return "wiki" }

func (w *Wiki) Apply(_ context.Context, text string) (string, error) {
	return wikiLink.ReplaceAllStringFunc(text, func(link string) string {
		page := strings.TrimSpace(wikiLink.FindStringSubmatch(link)[1])
		target := url.PathEscape(strings.ReplaceAll(page, " ", "_"))
		return `<a href="` + w.base + `/` + target + `" rel="external">` + page + `</a>`
	}), nil
}
