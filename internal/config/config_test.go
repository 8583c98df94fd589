package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONTENTFILTER_DATABASE__HOST", "localhost")
	t.Setenv("CONTENTFILTER_DATABASE__USER", "postgres")
	t.Setenv("CONTENTFILTER_DATABASE__NAME", "contentfilter")
	t.Setenv("CONTENTFILTER_REDIS__ADDRESS", "localhost:6379")
	t.Setenv("CONTENTFILTER_AUTH__SECRET_KEY", "sk_test_123")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "filter.censor.enabled", envKey("CONTENTFILTER_FILTER__CENSOR__ENABLED"))
	assert.Equal(t, "database.ssl_mode", envKey("CONTENTFILTER_DATABASE__SSL_MODE"))
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)

	assert.True(t, cfg.Filter.PurifierEnabled)
	assert.Equal(t, []string{"en", "fr"}, cfg.Filter.Multilang.Tags)
	assert.Equal(t, "Quote:", cfg.Filter.QuoteLabel)
	assert.Equal(t, 10*time.Minute, cfg.Filter.SmileyCacheTTL)

	assert.False(t, cfg.Spam.Enabled)
	assert.Equal(t, uint(3), cfg.Spam.Attempts)

	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, "development", cfg.Observability.Environment)
	assert.Equal(t, 100*time.Millisecond, cfg.Observability.Logging.SlowQueryThreshold)
	assert.False(t, cfg.Observability.NewRelicEnabled())
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONTENTFILTER_PRIMARY__ENV", "production")
	t.Setenv("CONTENTFILTER_SERVER__PORT", "9090")
	t.Setenv("CONTENTFILTER_SERVER__CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("CONTENTFILTER_FILTER__MULTILANG__TAGS", "de")
	t.Setenv("CONTENTFILTER_FILTER__CENSOR__ENABLED", "true")
	t.Setenv("CONTENTFILTER_FILTER__CENSOR__WORDS", "darn,heck")
	t.Setenv("CONTENTFILTER_FILTER__MATCH_TIMEOUT", "500ms")
	t.Setenv("CONTENTFILTER_FILTER__EXTENSIONS", "youtube,wiki")
	t.Setenv("CONTENTFILTER_OBSERVABILITY__LOGGING__LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, []string{"de"}, cfg.Filter.Multilang.Tags)
	assert.True(t, cfg.Filter.Censor.Enabled)
	assert.Equal(t, []string{"darn", "heck"}, cfg.Filter.Censor.Words)
	assert.Equal(t, 500*time.Millisecond, cfg.Filter.MatchTimeout)
	assert.Equal(t, []string{"youtube", "wiki"}, cfg.Filter.Extensions)
	assert.Equal(t, "debug", cfg.Observability.GetLogLevel())
	assert.True(t, cfg.Observability.IsProduction())
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("CONTENTFILTER_REDIS__ADDRESS", "localhost:6379")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadConfigInvalidLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONTENTFILTER_OBSERVABILITY__LOGGING__LEVEL", "loud")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid logging level")
}

func TestLoadFilterConfig(t *testing.T) {
	t.Setenv("CONTENTFILTER_FILTER__SITE_URL", "https://cms.example.org")
	t.Setenv("CONTENTFILTER_FILTER__HIGHLIGHT__MODE", "chroma")

	cfg, err := LoadFilterConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://cms.example.org", cfg.SiteURL)

	settings := cfg.Settings()
	assert.Equal(t, "https://cms.example.org", settings.SiteURL)
	assert.Equal(t, "chroma", settings.Highlight.Mode)
	assert.Equal(t, 50, settings.Clickable.MaxLength)
}

func TestLoadFilterConfigRejectsBadMode(t *testing.T) {
	t.Setenv("CONTENTFILTER_FILTER__HIGHLIGHT__MODE", "geshi")

	_, err := LoadFilterConfig()
	require.Error(t, err)
}

func TestFilterConfigValidate(t *testing.T) {
	cfg := DefaultFilterConfig()
	require.NoError(t, cfg.Validate())

	cfg.Extensions = []string{"nope"}
	assert.ErrorContains(t, cfg.Validate(), "unknown extension")

	cfg = DefaultFilterConfig()
	cfg.Clickable = ClickableConfig{Shorten: true, MaxLength: 20, Head: 15, Tail: 10}
	assert.ErrorContains(t, cfg.Validate(), "max_length")

	cfg = DefaultFilterConfig()
	cfg.Censor = CensorConfig{Enabled: true}
	assert.ErrorContains(t, cfg.Validate(), "replacement")
}

func TestObservabilityValidate(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	require.NoError(t, cfg.Validate())

	cfg.HealthChecks.Checks = []string{"database", "kafka"}
	assert.ErrorContains(t, cfg.Validate(), "unknown health check")

	cfg = DefaultObservabilityConfig()
	cfg.Logging.Format = "xml"
	assert.ErrorContains(t, cfg.Validate(), "invalid logging format")
}
