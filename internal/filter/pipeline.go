package filter

import (
	"context"
	"strings"
)

const (
	// InputMarker is appended to HTML that went through FilterHTMLInput.
	InputMarker = "<!-- input filtered -->"

	// PurifierMarker is appended by HTMLPurifier.
	PurifierMarker = "<!-- filtered with htmlpurifier -->"

	// OutputOnlyMarker flags HTML that reached display without input filtering.
	OutputOnlyMarker = "<!-- warning! output filtered only -->"
)

// DisplayOptions toggles the optional passes of FilterTextareaDisplay.
type DisplayOptions struct {
	Smiley bool `json:"smiley"`
	ICode  bool `json:"icode"`
	Image  bool `json:"image"`
	BR     bool `json:"br"`
}

// DefaultDisplayOptions turns every pass on.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{Smiley: true, ICode: true, Image: true, BR: true}
}

// FilterTextareaInput prepares plain text for storage.
func (f *Filter) FilterTextareaInput(ctx context.Context, text string) (string, error) {
	text, err := f.hooks.Trigger(ctx, BeforeTextareaInput, text)
	if err != nil {
		return "", err
	}

	text = HTMLSpecialChars(text)

	return f.hooks.Trigger(ctx, AfterTextareaInput, text)
}

// FilterTextareaDisplay renders stored plain text as HTML.
func (f *Filter) FilterTextareaDisplay(ctx context.Context, text string, opts DisplayOptions) (string, error) {
	text, err := f.hooks.Trigger(ctx, BeforeTextareaDisplay, text)
	if err != nil {
		return "", err
	}

	text = strings.ReplaceAll(text, InputMarker, "")
	text = strings.ReplaceAll(text, PurifierMarker, "")
	text = HTMLSpecialChars(text)
	text = CodePreConv(text, opts.ICode)
	text = f.MakeClickable(text)

	if opts.Smiley {
		if text, err = f.Smiley(ctx, text); err != nil {
			return "", err
		}
	}
	if opts.ICode {
		if text, err = f.CodeDecode(ctx, text, opts.Image); err != nil {
			return "", err
		}
	}
	if opts.BR {
		text = NL2BR(text)
	}
	if text, err = f.CodeConv(ctx, text, opts.ICode, opts.Image); err != nil {
		return "", err
	}

	return f.hooks.Trigger(ctx, AfterTextareaDisplay, text)
}

// FilterHTMLInput prepares HTML for storage and stamps it with InputMarker.
func (f *Filter) FilterHTMLInput(ctx context.Context, html string, br bool) (string, error) {
	html, err := f.hooks.Trigger(ctx, BeforeHTMLInput, html)
	if err != nil {
		return "", err
	}

	html = strings.ReplaceAll(html, InputMarker, "")
	if html, err = f.convertHTML(ctx, html); err != nil {
		return "", err
	}
	if br && !strings.Contains(html, PurifierMarker) {
		html = NL2BR(html)
	}
	html += InputMarker

	return f.hooks.Trigger(ctx, AfterHTMLInput, html)
}

// FilterHTMLDisplay renders stored HTML. HTML without InputMarker is run
// through the input passes first and flagged with OutputOnlyMarker.
func (f *Filter) FilterHTMLDisplay(ctx context.Context, html string, br bool) (string, error) {
	html, err := f.hooks.Trigger(ctx, BeforeHTMLDisplay, html)
	if err != nil {
		return "", err
	}

	if !strings.Contains(html, InputMarker) {
		if html, err = f.convertHTML(ctx, html); err != nil {
			return "", err
		}
		html += OutputOnlyMarker
		if br || !strings.Contains(html, PurifierMarker) {
			html = NL2BR(html)
		}
	}

	html = f.MakeClickable(html)
	html = f.CensorString(html)

	return f.hooks.Trigger(ctx, AfterHTMLDisplay, html)
}

// convertHTML is the shared body of the HTML pipelines.
func (f *Filter) convertHTML(ctx context.Context, html string) (string, error) {
	html = CodePreConv(html, true)

	html, err := f.Smiley(ctx, html)
	if err != nil {
		return "", err
	}
	if html, err = f.CodeDecode(ctx, html, true); err != nil {
		return "", err
	}
	if html, err = f.CodeConv(ctx, html, true, true); err != nil {
		return "", err
	}

	return f.purify(html), nil
}
