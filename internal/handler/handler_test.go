package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deppfellow/contentfilter/internal/config"
	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/deppfellow/contentfilter/internal/middleware"
	"github.com/deppfellow/contentfilter/internal/repository"
	"github.com/deppfellow/contentfilter/internal/server"
	"github.com/deppfellow/contentfilter/internal/service"
	"github.com/deppfellow/contentfilter/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	smileys []filter.Smiley
	nextID  int64
}

func (m *memoryStore) List(_ context.Context, displayOnly bool) ([]filter.Smiley, error) {
	var out []filter.Smiley
	for _, s := range m.smileys {
		if !displayOnly || s.Display {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, id int64) (filter.Smiley, error) {
	for _, s := range m.smileys {
		if s.ID == id {
			return s, nil
		}
	}
	return filter.Smiley{}, sqlerr.NoRows("smiles")
}

func (m *memoryStore) Create(_ context.Context, in repository.SmileyInput) (filter.Smiley, error) {
	m.nextID++
	s := filter.Smiley{ID: m.nextID, Code: in.Code, URL: in.URL, Emotion: in.Emotion, Display: in.Display}
	m.smileys = append(m.smileys, s)
	return s, nil
}

func (m *memoryStore) Update(_ context.Context, id int64, in repository.SmileyInput) (filter.Smiley, error) {
	for i, s := range m.smileys {
		if s.ID == id {
			m.smileys[i] = filter.Smiley{ID: id, Code: in.Code, URL: in.URL, Emotion: in.Emotion, Display: in.Display}
			return m.smileys[i], nil
		}
	}
	return filter.Smiley{}, sqlerr.NoRows("smiles")
}

func (m *memoryStore) Delete(_ context.Context, id int64) error {
	for i, s := range m.smileys {
		if s.ID == id {
			m.smileys = append(m.smileys[:i], m.smileys[i+1:]...)
			return nil
		}
	}
	return sqlerr.NoRows("smiles")
}

func (m *memoryStore) Import(ctx context.Context, pack []repository.SmileyInput) (int, error) {
	for _, in := range pack {
		if _, err := m.Create(ctx, in); err != nil {
			return 0, err
		}
	}
	return len(pack), nil
}

type testEnv struct {
	echo  *echo.Echo
	store *memoryStore
	h     *Handlers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Filter.SiteURL = "https://example.com"
	cfg.Filter.UploadURL = "https://example.com/uploads"
	cfg.Filter.Censor = config.CensorConfig{Enabled: true, Words: []string{"darn"}, Replacement: "***"}

	log := zerolog.Nop()
	s := &server.Server{Config: cfg, Logger: &log}

	store := &memoryStore{}
	smileys := service.NewSmileyService(store, nil, nil, &log)
	filters, err := service.NewFilterService(cfg.Filter, smileys, nil, &log)
	require.NoError(t, err)

	h := NewHandlers(s, &service.Services{Filter: filters, Smiley: smileys})

	e := echo.New()
	e.JSONSerializer = JSONSerializer{}
	e.HTTPErrorHandler = middleware.NewGlobalMiddlewares(s).GlobalErrorHandler

	e.POST("/filters/textarea/input", Handle(h.Filter.Handler, h.Filter.TextareaInput, http.StatusOK, &TextRequest{}))
	e.POST("/filters/textarea/display", Handle(h.Filter.Handler, h.Filter.TextareaDisplay, http.StatusOK, &DisplayRequest{}))
	e.POST("/filters/html/input", Handle(h.Filter.Handler, h.Filter.HTMLInput, http.StatusOK, &HTMLRequest{}))
	e.POST("/filters/bbcode", Handle(h.Filter.Handler, h.Filter.BBCode, http.StatusOK, &BBCodeRequest{}))
	e.POST("/filters/censor", Handle(h.Filter.Handler, h.Filter.Censor, http.StatusOK, &TextRequest{}))
	e.POST("/filters/escape", Handle(h.Filter.Handler, h.Filter.Escape, http.StatusOK, &EscapeRequest{}))
	e.POST("/checks", Handle(h.Check.Handler, h.Check.Check, http.StatusOK, &CheckRequest{}))
	e.POST("/checks/batch", Handle(h.Check.Handler, h.Check.CheckBatch, http.StatusOK, &BatchCheckRequest{}))
	e.POST("/text/truncate", Handle(h.Text.Handler, h.Text.Truncate, http.StatusOK, &TruncateRequest{}))
	e.POST("/text/reverse", Handle(h.Text.Handler, h.Text.Reverse, http.StatusOK, &ReverseRequest{}))
	e.POST("/text/clean", Handle(h.Text.Handler, h.Text.Clean, http.StatusOK, &CleanRequest{}))
	e.GET("/smileys", Handle(h.Smiley.Handler, h.Smiley.List, http.StatusOK, &ListSmileysRequest{}))
	e.POST("/admin/smileys", Handle(h.Smiley.Handler, h.Smiley.Create, http.StatusCreated, &SmileyRequest{}))
	e.POST("/admin/smileys/import", Handle(h.Smiley.Handler, h.Smiley.Import, http.StatusOK, &ImportSmileysRequest{}))
	e.POST("/admin/smileys/refresh", Handle(h.Smiley.Handler, h.Smiley.Refresh, http.StatusAccepted, &NoBody{}))
	e.GET("/admin/smileys/export", HandleFile(h.Smiley.Handler, h.Smiley.Export, http.StatusOK, &NoBody{}, "smileys.yaml", "application/yaml"))
	e.GET("/admin/smileys/:id", Handle(h.Smiley.Handler, h.Smiley.Get, http.StatusOK, &SmileyIDRequest{}))
	e.PUT("/admin/smileys/:id", Handle(h.Smiley.Handler, h.Smiley.Update, http.StatusOK, &SmileyRequest{}))
	e.DELETE("/admin/smileys/:id", HandleNoContent(h.Smiley.Handler, h.Smiley.Delete, http.StatusNoContent, &SmileyIDRequest{}))
	e.GET("/status", h.Health.CheckHealth)
	e.GET("/docs", h.OpenAPI.ServeOpenAPIUI)

	return &testEnv{echo: e, store: store, h: h}
}

func (env *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestFilterEndpoints(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path string
		body string
		want string
	}{
		{"/filters/textarea/input", `{"text":"<b>hi</b>"}`, "&lt;b&gt;hi&lt;/b&gt;"},
		{"/filters/textarea/display", `{"text":"[b]x[/b]"}`, "<strong>x</strong>"},
		{"/filters/bbcode", `{"text":"[img]https://x.test/a.png[/img]"}`, `<img src="https://x.test/a.png" alt="" />`},
		{"/filters/bbcode", `{"text":"[img]https://x.test/a.png[/img]","image":false}`, `<a href="https://x.test/a.png" rel="external">https://x.test/a.png</a>`},
		{"/filters/censor", `{"text":"oh darn"}`, "oh ***"},
		{"/filters/escape", `{"text":"é<","mode":"entities"}`, "&#233;&lt;"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decode[OutputResponse](t, rec).Output)
		})
	}
}

func TestHTMLInputPurifies(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/filters/html/input", `{"text":"<p>ok</p><script>x()</script>"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode[OutputResponse](t, rec).Output
	assert.NotContains(t, out, "<script")
	assert.True(t, strings.HasSuffix(out, filter.PurifierMarker+filter.InputMarker))
}

func TestEscapeRejectsUnknownMode(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/filters/escape", `{"text":"x","mode":"rot13"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/checks", `{"data":"42","kind":"int","options":{"min":1,"max":100}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "42", decode[OutputResponse](t, rec).Output)

	rec = env.do(http.MethodPost, "/checks", `{"data":"not a url","kind":"url"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(http.MethodPost, "/checks", `{"data":"","kind":"str"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMPTY_INPUT")

	rec = env.do(http.MethodPost, "/checks", `{"data":"x","kind":"colour"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be a known filter kind")

	rec = env.do(http.MethodPost, "/checks", `{"data":"5","kind":"int","options":{"min":1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckBatchEndpoint(t *testing.T) {
	env := newTestEnv(t)

	body := `{
		"input": {"age": 30, "site": "http://go.dev", "bad": "nope", "extra": "<b>"},
		"filters": {"age": {"kind": "int"}, "site": {"kind": "url"}, "bad": {"kind": "email"}},
		"strict": true
	}`
	rec := env.do(http.MethodPost, "/checks/batch", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[MapResponse](t, rec).Output
	assert.Equal(t, "30", out["age"])
	assert.Equal(t, "http://go.dev", out["site"])
	assert.Equal(t, false, out["bad"])
	assert.NotContains(t, out, "extra")

	rec = env.do(http.MethodPost, "/checks/batch", `{"input":{"a":"b"},"filters":{"a":{"kind":"nope"}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTextEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/text/truncate", `{"text":"hello world","length":8,"marker":"..."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello...", decode[OutputResponse](t, rec).Output)

	rec = env.do(http.MethodPost, "/text/truncate", `{"text":"hello world","length":8}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello...", decode[OutputResponse](t, rec).Output, "marker defaults to ...")

	rec = env.do(http.MethodPost, "/text/truncate", `{"text":"hello world","length":8,"marker":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello wo", decode[OutputResponse](t, rec).Output)

	rec = env.do(http.MethodPost, "/text/truncate", `{"text":"x","length":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/text/reverse", `{"text":"abc 2008"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2008 cba", decode[OutputResponse](t, rec).Output)

	rec = env.do(http.MethodPost, "/text/clean", `{"input":{"a":"","b":"x","c":0,"d":{"e":null}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"b": "x", "c": float64(0)}, decode[MapResponse](t, rec).Output)
}

func TestSmileyLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/admin/smileys", `{"code":":-)","smile_url":"smile.gif","emotion":"Smile","display":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[filter.Smiley](t, rec)
	assert.Equal(t, int64(1), created.ID)

	rec = env.do(http.MethodPost, "/admin/smileys", `{"smile_url":"x.gif"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/admin/smileys/1", `{"code":":)","smile_url":"smile.gif","display":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ":)", decode[filter.Smiley](t, rec).Code)

	rec = env.do(http.MethodGet, "/smileys", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[SmileyListResponse](t, rec).Smileys)

	rec = env.do(http.MethodGet, "/smileys?all=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[SmileyListResponse](t, rec).Smileys, 1)

	rec = env.do(http.MethodGet, "/admin/smileys/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, "/admin/smileys/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/admin/smileys/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "SMILE_NOT_FOUND")
}

func TestSmileyImportExport(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/admin/smileys/import",
		`{"smileys":[{"code":":D","smile_url":"grin.gif","display":true},{"code":" ;) ","smile_url":"wink.gif"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[ImportResponse](t, rec).Imported)

	rec = env.do(http.MethodPost, "/admin/smileys/import", `{"smileys":[{"code":":D"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/admin/smileys/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=smileys.yaml", rec.Header().Get(echo.HeaderContentDisposition))

	pack, err := service.ParseSmileyPack(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, pack, 2)
	assert.ElementsMatch(t, []string{":D", ";)"}, []string{pack[0].Code, pack[1].Code})
}

func TestSmileyRefreshWithoutQueue(t *testing.T) {
	env := newTestEnv(t)
	env.store.smileys = []filter.Smiley{{ID: 1, Code: ":-)", URL: "smile.gif", Display: true}}

	rec := env.do(http.MethodPost, "/admin/smileys/refresh", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "queued", decode[StatusResponse](t, rec).Status)

	rec = env.do(http.MethodPost, "/filters/textarea/display", `{"text":":-)"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[OutputResponse](t, rec).Output, "smile.gif")
}

func TestHealthWithoutChecks(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, rec)["status"])
}

func TestHealthReportsFailures(t *testing.T) {
	env := newTestEnv(t)
	env.h.Health.checks = map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}

	rec := env.do(http.MethodGet, "/status", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "unhealthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"].(map[string]any)["status"])
	assert.Equal(t, "connection refused", checks["redis"].(map[string]any)["error"])
}

func TestServeOpenAPIUI(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openapi.html"), []byte("<html>docs</html>"), 0o644))
	env.h.OpenAPI.dir = dir

	rec := env.do(http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "<html>docs</html>", rec.Body.String())

	env.h.OpenAPI.dir = filepath.Join(dir, "missing")
	rec = env.do(http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewRequestIsFresh(t *testing.T) {
	template := &TextRequest{Text: "stale"}
	got := newRequest(template)
	assert.NotSame(t, template, got)
	assert.Empty(t, got.Text)
}
