package filter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSmileys []Smiley

func (s staticSmileys) Smileys(context.Context) ([]Smiley, error) { return s, nil }

type failingSmileys struct{}

func (failingSmileys) Smileys(context.Context) ([]Smiley, error) {
	return nil, errors.New("db down")
}

var testSmileys = staticSmileys{
	{ID: 1, Code: ":-)", URL: "smile.gif", Emotion: "Smile", Display: true},
	{ID: 2, Code: ":-))", URL: "laugh.gif", Emotion: "Laugh", Display: true},
	{ID: 3, Code: ":(", URL: "sad.gif", Emotion: "Sad", Display: false},
}

func newTestFilter(t *testing.T, mutate func(*Settings), opts ...Option) *Filter {
	t.Helper()

	s := DefaultSettings()
	s.SiteURL = "https://example.com"
	s.UploadURL = "https://example.com/uploads"
	if mutate != nil {
		mutate(&s)
	}

	f, err := New(s, opts...)
	require.NoError(t, err)
	return f
}

func TestNewRejectsUnknownExtension(t *testing.T) {
	s := DefaultSettings()
	s.Extensions = []string{"youtube", "nope"}

	_, err := New(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownExtension)
}

func TestHTMLSpecialChars(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"specials", `<b>"Tom's" & Jerry</b>`, `&lt;b&gt;&quot;Tom&#039;s&quot; & Jerry&lt;/b&gt;`},
		{"entity kept", "&copy; 2024", "&copy; 2024"},
		{"nbsp shown", "a&nbsp;b", "a&amp;nbsp;b"},
		{"plain", "hello", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HTMLSpecialChars(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, HTMLSpecialChars(got), "escaping twice must not change the result")
		})
	}
}

func TestUndoHTMLSpecialChars(t *testing.T) {
	assert.Equal(t, `<a href="x">'y' & z</a>`, UndoHTMLSpecialChars(`&lt;a href=&quot;x&quot;&gt;&#039;y&#039; &amp; z&lt;/a&gt;`))
	assert.Equal(t, "&lt;", UndoHTMLSpecialChars("&amp;lt;"))
}

func TestHTMLEntities(t *testing.T) {
	assert.Equal(t, "caf&#233; &lt;x&gt;", HTMLEntities("café <x>"))
	assert.Equal(t, "&#26085;&#26412;", HTMLEntities("日本"))
}

func TestNL2BR(t *testing.T) {
	assert.Equal(t, "a<br />b<br />c<br />d", NL2BR("a\r\nb\rc\nd"))
}

func TestCheckURLString(t *testing.T) {
	assert.True(t, CheckURLString("https://example.com/a.png"))
	assert.False(t, CheckURLString("JavaScript:alert(1)"))
	assert.False(t, CheckURLString("vbscript:x"))
	assert.False(t, CheckURLString("http://x\n.png"))
	assert.False(t, CheckURLString("http://x\x1a.png"))
	assert.False(t, CheckURLString("http://x\x1f.png"))
}

func TestCodeDecode(t *testing.T) {
	f := newTestFilter(t, nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "[b]bold[/b]", "<strong>bold</strong>"},
		{"upper case tag", "[B]x[/B]", "[B]x[/B]"},
		{"upper case image", "[B]x[/B] [IMG]http://a/b.png[/IMG]", "[B]x[/B] [IMG]http://a/b.png[/IMG]"},
		{"mixed case tags", "[B]x[/b]", "[B]x[/b]"},
		{"multi line", "[i]a\nb[/i]", "<em>a\nb</em>"},
		{"underline and del", "[u]u[/u][d]d[/d]", "<u>u</u><del>d</del>"},
		{"quoted url", `[url="http://go.dev"]Go[/url]`, `<a href="http://go.dev" rel="external">Go</a>`},
		{"unbalanced quotes", `[url='http://go.dev"]Go[/url]`, `[url='http://go.dev"]Go[/url]`},
		{"bare url", "[url=go.dev]Go[/url]", `<a href="http://go.dev" rel="external">Go</a>`},
		{"ftp url", "[url=ftp://files.test/a]F[/url]", `<a href="ftp://files.test/a" rel="external">F</a>`},
		{"site url", "[siteurl=news/]News[/siteurl]", `<a href="https://example.com/news/">News</a>`},
		{"color", "[color=ff0000]red[/color]", `<span style="color: #ff0000;">red</span>`},
		{"size", "[size=12px]x[/size]", `<span style="font-size: 12px;">x</span>`},
		{"font", `[font="Arial"]x[/font]`, `<span style="font-family: Arial;">x</span>`},
		{"email", "[email]a@b.c[/email]", `<a href="mailto:a@b.c">a@b.c</a>`},
		{"center", "[center]c[/center]", `<div align="center">c</div>`},
		{"image", "[img]https://x.test/a.png[/img]", `<img src="https://x.test/a.png" alt="" />`},
		{"aligned image", "[img align=left]https://x.test/a.png[/img]", `<img src="https://x.test/a.png" align="left" alt="" />`},
		{"centred image", "[img align=center]https://x.test/a.png[/img]", `<div style="margin: 0 auto; text-align: center;"><img src="https://x.test/a.png" alt="" /></div>`},
		{"image by id", "[img id=7]cat[/img]", `<img src="https://example.com/image.php?id=7" alt="cat" />`},
		{"aligned image by id", "[img align=right id=7]cat[/img]", `<img src="https://example.com/image.php?id=7" align="right" alt="cat" />`},
		{"script image dropped", "a[img align=center]vbscript:x[/img]b", "ab"},
		{"quote", "[quote]hi[/quote]", `Quote:<div class="icmsQuote"><blockquote><p>hi</p></blockquote></div>`},
		{"javascript", "java\x01script:alert(1)", "(script removed)alert(1)"},
		{"javascript any case", "JavaScript:alert(1)", "(script removed)alert(1)"},
		{"about any case", "ABOUT:blank", "about :blank"},
		{"about", "about:blank", "about :blank"},
		{"nul removed", "a\x00[b]x[/b]", "a<strong>x</strong>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.CodeDecode(context.Background(), tt.in, true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCodeDecodeWithoutImages(t *testing.T) {
	f := newTestFilter(t, nil)

	got, err := f.CodeDecode(context.Background(), "[img]https://x.test/a.png[/img]", false)
	require.NoError(t, err)
	assert.Equal(t, `<a href="https://x.test/a.png" rel="external">https://x.test/a.png</a>`, got)

	got, err = f.CodeDecode(context.Background(), "[img align=center]https://x.test/a.png[/img]", false)
	require.NoError(t, err)
	assert.Equal(t, `<div style="margin: 0 auto; text-align: center;"><a href="https://x.test/a.png" rel="external">https://x.test/a.png</a></div>`, got)

	got, err = f.CodeDecode(context.Background(), "[img id=7]cat[/img]", false)
	require.NoError(t, err)
	assert.Equal(t, `<a href="https://example.com/image.php?id=7" rel="external">cat</a>`, got)
}

func TestCodePreConv(t *testing.T) {
	assert.Equal(t, "x [code]PGE+[/code] y", CodePreConv("x [code]<a>[/code] y", true))
	assert.Equal(t, "x [code]<a>[/code] y", CodePreConv("x [code]<a>[/code] y", false))
}

func TestCodeConv(t *testing.T) {
	f := newTestFilter(t, nil)
	ctx := context.Background()

	got, err := f.CodeConv(ctx, "[code]W2JdeFsvYl0gPGk+[/code]", true, true)
	require.NoError(t, err)
	assert.Equal(t, `<div class="icmsCode"><strong>x</strong> &lt;i&gt;</div>`, got)

	got, err = f.CodeConv(ctx, "[code]W2JdeFsvYl0gPGk+[/code]", false, true)
	require.NoError(t, err)
	assert.Equal(t, "[code]W2JdeFsvYl0gPGk+[/code]", got)
}

func TestCodeSanitizerRawBody(t *testing.T) {
	f := newTestFilter(t, nil)

	got, err := f.CodeSanitizer(context.Background(), `say \"hi\" <b>`, true)
	require.NoError(t, err)
	assert.Equal(t, "say &quot;hi&quot; &lt;b&gt;", got)
}

func TestMakeClickable(t *testing.T) {
	f := newTestFilter(t, nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"scheme", "see http://go.dev now", `see <a href="http://go.dev" rel="external">http://go.dev</a> now`},
		{"www", "www.go.dev", `<a href="http://www.go.dev" rel="external">www.go.dev</a>`},
		{"ftp", "ftp.example.org/file", `<a href="ftp://ftp.example.org/file" rel="external">ftp.example.org/file</a>`},
		{"inside bbcode", "[url=http://go.dev]x[/url]", "[url=http://go.dev]x[/url]"},
		{"existing anchor", `<a href="http://a.b">http://a.b</a>`, `<a href="http://a.b">http://a.b</a>`},
		{"no url", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.MakeClickable(tt.in))
		})
	}
}

func TestMakeClickableShortens(t *testing.T) {
	f := newTestFilter(t, func(s *Settings) {
		s.Clickable = ClickableSettings{Shorten: true, MaxLength: 20, Head: 10, Tail: 5}
	})

	got := f.MakeClickable("http://example.com/a/very/long/path")
	assert.Equal(t, `<a href="http://example.com/a/very/long/path" rel="external">http://exa ... /path</a>`, got)

	got = f.MakeClickable("http://go.dev")
	assert.Equal(t, `<a href="http://go.dev" rel="external">http://go.dev</a>`, got)
}

func TestSmiley(t *testing.T) {
	f := newTestFilter(t, nil, WithSmileys(testSmileys))

	got, err := f.Smiley(context.Background(), "hi :-)) :-) :(")
	require.NoError(t, err)
	assert.Equal(t, `hi <img src="https://example.com/uploads/laugh.gif" alt="" /> `+
		`<img src="https://example.com/uploads/smile.gif" alt="" /> `+
		`<img src="https://example.com/uploads/sad.gif" alt="" />`, got)
}

func TestSmileysDisplayed(t *testing.T) {
	f := newTestFilter(t, nil, WithSmileys(testSmileys))
	ctx := context.Background()

	all, err := f.Smileys(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	shown, err := f.Smileys(ctx, false)
	require.NoError(t, err)
	assert.Len(t, shown, 2)
	for _, s := range shown {
		assert.True(t, s.Display)
	}
}

func TestSmileyWithoutSource(t *testing.T) {
	f := newTestFilter(t, nil)

	got, err := f.Smiley(context.Background(), ":-)")
	require.NoError(t, err)
	assert.Equal(t, ":-)", got)
}

func TestSmileySourceError(t *testing.T) {
	f := newTestFilter(t, nil, WithSmileys(failingSmileys{}))

	_, err := f.Smiley(context.Background(), ":-)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestCensorString(t *testing.T) {
	f := newTestFilter(t, func(s *Settings) {
		s.Censor = CensorSettings{Enabled: true, Words: []string{"darn", ""}, Replacement: "#OOPS#"}
	})

	got := f.CensorString("Darn it, darn! [b]darn[/b] undarned")
	assert.Equal(t, "#OOPS# it, #OOPS#! [b]#OOPS#[/b] undarned", got)
}

func TestCensorStringLiteralReplacement(t *testing.T) {
	f := newTestFilter(t, func(s *Settings) {
		s.Censor = CensorSettings{Enabled: true, Words: []string{"a.b"}, Replacement: "$1"}
	})

	assert.Equal(t, "$1 axb", f.CensorString("a.b axb"))
}

func TestCensorStringDisabled(t *testing.T) {
	f := newTestFilter(t, func(s *Settings) {
		s.Censor = CensorSettings{Enabled: false, Words: []string{"darn"}, Replacement: "#OOPS#"}
	})

	assert.Equal(t, "darn", f.CensorString("darn"))
}

func TestHooks(t *testing.T) {
	f := newTestFilter(t, nil)
	f.Hooks().On(BeforeTextareaInput, func(_ context.Context, _ Event, text string) (string, error) {
		return strings.ToUpper(text), nil
	})
	f.Hooks().On(AfterTextareaInput, func(_ context.Context, _ Event, text string) (string, error) {
		return text + "!", nil
	})

	got, err := f.FilterTextareaInput(context.Background(), "<b>")
	require.NoError(t, err)
	assert.Equal(t, "&lt;B&gt;!", got)
}

func TestHookError(t *testing.T) {
	hooks := NewHooks()
	hooks.On(BeforeHTMLInput, func(context.Context, Event, string) (string, error) {
		return "", errors.New("boom")
	})
	f := newTestFilter(t, nil, WithHooks(hooks))

	_, err := f.FilterHTMLInput(context.Background(), "<p>x</p>", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(BeforeHTMLInput))
}

func TestExtensions(t *testing.T) {
	f := newTestFilter(t, func(s *Settings) {
		s.Extensions = []string{"youtube", "wiki", "syntaxhighlight"}
	})
	ctx := context.Background()

	got, err := f.CodeDecode(ctx, "[youtube]dQw4w9WgXcQ[/youtube]", true)
	require.NoError(t, err)
	assert.Equal(t, `<iframe width="560" height="315" src="https://www.youtube.com/embed/dQw4w9WgXcQ" allowfullscreen></iframe>`, got)

	got, err = f.CodeDecode(ctx, "[[Go Lang]]", true)
	require.NoError(t, err)
	assert.Equal(t, `<a href="https://en.wikipedia.org/wiki/Go_Lang" rel="external">Go Lang</a>`, got)

	got, err = f.CodeDecode(ctx, "[source=go]x := 1[/source]", true)
	require.NoError(t, err)
	assert.Equal(t, "<pre><code>x := 1</code></pre>", got)
}

func TestSyntaxHighlightChroma(t *testing.T) {
	ext := NewSyntaxHighlight(HighlightSettings{Mode: "chroma", Language: "php", Style: "github"})

	got, err := ext.Apply(context.Background(), "before [source=go]if a &lt; b {}[/source] after")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "before <code>"))
	assert.True(t, strings.HasSuffix(got, "</code> after"))
	assert.Contains(t, got, "chroma")
	assert.NotContains(t, got, "[source")
}

func TestExecuteExtensionUnknown(t *testing.T) {
	f := newTestFilter(t, nil)

	got, err := f.ExecuteExtension(context.Background(), "missing", "text")
	require.NoError(t, err)
	assert.Equal(t, "text", got)
}

func TestRegistryNames(t *testing.T) {
	r := DefaultRegistry(DefaultSettings())
	assert.Equal(t, []string{"syntaxhighlight", "wiki", "youtube"}, r.Names())
}
