// Package filter is the content filtering pipeline.
//
// It turns user supplied text into something safe to store and to render:
//   - escaping for form fields (HTMLSpecialChars, HTMLEntities)
//   - BBCode ("icmsCode") to HTML conversion (CodeDecode)
//   - [code] block protection (CodePreConv / CodeConv)
//   - auto-linking of bare URLs (MakeClickable)
//   - smiley and censor substitution
//   - HTML purification through an allow-list policy
//   - typed variable checks (CheckVar / CheckVarMap)
//
// Every pass is order-sensitive. The pipelines in pipeline.go fix that order,
// and callers are expected to use them rather than chaining passes by hand.
package filter

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// Settings carries everything the pipeline needs from configuration.
//
// The filter package does not import the config package so it can be used by
// the offline CLI and by tests without any environment.
type Settings struct {
	// SiteURL prefixes [siteurl] links and image.php references.
	SiteURL string

	// UploadURL prefixes smiley image paths.
	UploadURL string

	// QuoteLabel is printed in front of every [quote] block.
	QuoteLabel string

	// MatchTimeout bounds every BBCode rule evaluation. Zero means no limit.
	MatchTimeout time.Duration

	// Extensions lists the extension names CodeDecode runs, in order.
	Extensions []string

	// WikiURL is the base used by the "wiki" extension.
	WikiURL string

	Clickable ClickableSettings
	Censor    CensorSettings
	Multilang MultilangSettings
	Highlight HighlightSettings

	// BadEmails holds case-insensitive patterns rejected by email checks
	// when the blacklist option is set.
	BadEmails []string
}

// ClickableSettings controls link shortening in MakeClickable.
type ClickableSettings struct {
	Shorten   bool
	MaxLength int
	Head      int
	Tail      int
}

// CensorSettings controls CensorString.
type CensorSettings struct {
	Enabled     bool
	Words       []string
	Replacement string
}

// MultilangSettings controls the multi-language aware Substr.
type MultilangSettings struct {
	Enabled bool
	Tags    []string
}

// HighlightSettings controls the syntaxhighlight extension.
//
// Mode is one of "chroma", "php" or "plain".
type HighlightSettings struct {
	Mode     string
	Language string
	Style    string
}

// DefaultSettings returns settings suitable for local use.
func DefaultSettings() Settings {
	return Settings{
		SiteURL:      "http://localhost",
		UploadURL:    "http://localhost/uploads",
		QuoteLabel:   "Quote:",
		MatchTimeout: 2 * time.Second,
		WikiURL:      "https://en.wikipedia.org/wiki",
		Clickable: ClickableSettings{
			Shorten:   false,
			MaxLength: 50,
			Head:      35,
			Tail:      10,
		},
		Censor: CensorSettings{
			Replacement: "#OOPS#",
		},
		Multilang: MultilangSettings{
			Tags: []string{"en", "fr"},
		},
		Highlight: HighlightSettings{
			Mode:     "plain",
			Language: "php",
			Style:    "github",
		},
	}
}

// SmileySource lists every known smiley, displayed or not.
type SmileySource interface {
	Smileys(ctx context.Context) ([]Smiley, error)
}

// SpamChecker reports whether an email address is a known spammer.
type SpamChecker interface {
	BadEmail(ctx context.Context, email string) (bool, error)
}

// Purifier removes everything outside an HTML allow-list.
type Purifier interface {
	Purify(html string) string
}

// Filter is the configured pipeline. It is safe for concurrent use once built.
type Filter struct {
	settings Settings

	smileys    SmileySource
	purifier   Purifier
	spam       SpamChecker
	hooks      *Hooks
	extensions *Registry

	// bbcode rules with images rendered as <img> and as plain links.
	imageRules []bbRule
	linkRules  []bbRule

	censor    []censorRule
	badEmails []*regexp.Regexp
	mlTags    []mlTag
}

// Option configures optional collaborators of a Filter.
type Option func(*Filter)

// WithSmileys sets the smiley source. Without one, smiley substitution is a no-op.
func WithSmileys(src SmileySource) Option {
	return func(f *Filter) { f.smileys = src }
}

// WithPurifier sets the HTML purifier. Without one, HTML passes unchanged.
func WithPurifier(p Purifier) Option {
	return func(f *Filter) { f.purifier = p }
}

// WithSpamChecker sets the checker consulted by blacklisted email checks.
func WithSpamChecker(c SpamChecker) Option {
	return func(f *Filter) { f.spam = c }
}

// WithHooks replaces the hook set.
func WithHooks(h *Hooks) Option {
	return func(f *Filter) { f.hooks = h }
}

// WithExtension registers an additional extension.
func WithExtension(e Extension) Option {
	return func(f *Filter) { f.extensions.Register(e) }
}

// New builds a Filter, compiling every rule up front so a bad censor word or
// bad-email pattern fails here instead of on the first request.
func New(settings Settings, opts ...Option) (*Filter, error) {
	f := &Filter{
		settings:   settings,
		hooks:      NewHooks(),
		extensions: DefaultRegistry(settings),
	}
	for _, opt := range opts {
		opt(f)
	}

	var err error
	if f.imageRules, err = compileBBCode(settings, true); err != nil {
		return nil, fmt.Errorf("compile bbcode rules: %w", err)
	}
	if f.linkRules, err = compileBBCode(settings, false); err != nil {
		return nil, fmt.Errorf("compile bbcode rules: %w", err)
	}

	for _, name := range settings.Extensions {
		if _, ok := f.extensions.Get(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownExtension, name)
		}
	}

	f.censor = compileCensor(settings.Censor)
	f.badEmails = compileBadEmails(settings.BadEmails)
	f.mlTags = compileMultilang(settings.Multilang)

	return f, nil
}

// Settings returns the settings the filter was built with.
func (f *Filter) Settings() Settings {
	return f.settings
}

// Hooks exposes the hook set so callers can subscribe to pipeline events.
func (f *Filter) Hooks() *Hooks {
	return f.hooks
}

// Extensions exposes the extension registry.
func (f *Filter) Extensions() *Registry {
	return f.extensions
}
