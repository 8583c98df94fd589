package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/deppfellow/contentfilter/internal/filter"
)

// FilterConfig holds everything the text pipeline reads from configuration.
type FilterConfig struct {
	SiteURL    string `koanf:"site_url" validate:"required,url"`
	UploadURL  string `koanf:"upload_url" validate:"required,url"`
	QuoteLabel string `koanf:"quote_label"`

	// MatchTimeout bounds a single BBCode rule evaluation.
	MatchTimeout time.Duration `koanf:"match_timeout" validate:"min=0"`

	// Extensions lists the CodeDecode extensions to run, in order.
	Extensions []string `koanf:"extensions"`
	WikiURL    string   `koanf:"wiki_url" validate:"omitempty,url"`

	// PurifierEnabled runs HTML through the allow-list purifier.
	PurifierEnabled bool `koanf:"purifier_enabled"`

	Clickable ClickableConfig `koanf:"clickable"`
	Censor    CensorConfig    `koanf:"censor"`
	Multilang MultilangConfig `koanf:"multilang"`
	Highlight HighlightConfig `koanf:"highlight"`

	BadEmails []string `koanf:"bad_emails"`

	// SmileyCacheTTL is how long the smiley list lives in Redis.
	SmileyCacheTTL time.Duration `koanf:"smiley_cache_ttl" validate:"min=1s"`

	// SmileyRefreshInterval schedules the periodic cache refresh job.
	// Zero disables the scheduler.
	SmileyRefreshInterval time.Duration `koanf:"smiley_refresh_interval" validate:"min=0"`
}

type ClickableConfig struct {
	Shorten   bool `koanf:"shorten"`
	MaxLength int  `koanf:"max_length" validate:"min=0"`
	Head      int  `koanf:"head" validate:"min=0"`
	Tail      int  `koanf:"tail" validate:"min=0"`
}

type CensorConfig struct {
	Enabled     bool     `koanf:"enabled"`
	Words       []string `koanf:"words"`
	Replacement string   `koanf:"replacement"`
}

type MultilangConfig struct {
	Enabled bool     `koanf:"enabled"`
	Tags    []string `koanf:"tags"`
}

type HighlightConfig struct {
	Mode     string `koanf:"mode" validate:"oneof=chroma php plain"`
	Language string `koanf:"language"`
	Style    string `koanf:"style"`
}

// DefaultFilterConfig mirrors filter.DefaultSettings plus the service-only
// knobs (purifier, cache, scheduler).
func DefaultFilterConfig() *FilterConfig {
	d := filter.DefaultSettings()
	return &FilterConfig{
		SiteURL:         d.SiteURL,
		UploadURL:       d.UploadURL,
		QuoteLabel:      d.QuoteLabel,
		MatchTimeout:    d.MatchTimeout,
		WikiURL:         d.WikiURL,
		PurifierEnabled: true,
		Clickable: ClickableConfig{
			Shorten:   d.Clickable.Shorten,
			MaxLength: d.Clickable.MaxLength,
			Head:      d.Clickable.Head,
			Tail:      d.Clickable.Tail,
		},
		Censor: CensorConfig{
			Replacement: d.Censor.Replacement,
		},
		Multilang: MultilangConfig{
			Tags: d.Multilang.Tags,
		},
		Highlight: HighlightConfig{
			Mode:     d.Highlight.Mode,
			Language: d.Highlight.Language,
			Style:    d.Highlight.Style,
		},
		SmileyCacheTTL:        10 * time.Minute,
		SmileyRefreshInterval: 5 * time.Minute,
	}
}

var knownExtensions = []string{"syntaxhighlight", "youtube", "wiki"}

// Validate checks cross-field rules.
func (c *FilterConfig) Validate() error {
	for _, name := range c.Extensions {
		if !slices.Contains(knownExtensions, name) {
			return fmt.Errorf("unknown extension: %s", name)
		}
	}
	if c.Clickable.Shorten && c.Clickable.Head+c.Clickable.Tail >= c.Clickable.MaxLength {
		return fmt.Errorf("clickable head + tail must be shorter than max_length")
	}
	if c.Censor.Enabled && c.Censor.Replacement == "" {
		return fmt.Errorf("censor replacement is required when censoring is enabled")
	}
	return nil
}

// Settings converts the configuration into filter.Settings.
func (c *FilterConfig) Settings() filter.Settings {
	return filter.Settings{
		SiteURL:      c.SiteURL,
		UploadURL:    c.UploadURL,
		QuoteLabel:   c.QuoteLabel,
		MatchTimeout: c.MatchTimeout,
		Extensions:   c.Extensions,
		WikiURL:      c.WikiURL,
		Clickable: filter.ClickableSettings{
			Shorten:   c.Clickable.Shorten,
			MaxLength: c.Clickable.MaxLength,
			Head:      c.Clickable.Head,
			Tail:      c.Clickable.Tail,
		},
		Censor: filter.CensorSettings{
			Enabled:     c.Censor.Enabled,
			Words:       c.Censor.Words,
			Replacement: c.Censor.Replacement,
		},
		Multilang: filter.MultilangSettings{
			Enabled: c.Multilang.Enabled,
			Tags:    c.Multilang.Tags,
		},
		Highlight: filter.HighlightSettings{
			Mode:     c.Highlight.Mode,
			Language: c.Highlight.Language,
			Style:    c.Highlight.Style,
		},
		BadEmails: c.BadEmails,
	}
}

// SpamConfig configures the StopForumSpam lookup used by blacklisted email
// checks.
type SpamConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// MinFrequency is how many reports make an address count as spam.
	MinFrequency int `koanf:"min_frequency" validate:"min=1"`

	// Timeout bounds each lookup attempt.
	Timeout  time.Duration `koanf:"timeout" validate:"min=0"`
	Attempts uint          `koanf:"attempts" validate:"min=1"`
}

func DefaultSpamConfig() *SpamConfig {
	return &SpamConfig{
		Enabled:      false,
		BaseURL:      "https://api.stopforumspam.org",
		MinFrequency: 1,
		Timeout:      3 * time.Second,
		Attempts:     3,
	}
}
