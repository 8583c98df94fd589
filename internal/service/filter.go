package service

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/contentfilter/internal/config"
	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/rs/zerolog"
)

// Pipeline names accepted by FilterService.Run.
const (
	PipelineTextareaInput   = "textarea-input"
	PipelineTextareaDisplay = "textarea-display"
	PipelineHTMLInput       = "html-input"
	PipelineHTMLDisplay     = "html-display"
	PipelineHTMLEdit        = "html-edit"
	PipelineBBCode          = "bbcode"
	PipelineClickable       = "clickable"
	PipelineCensor          = "censor"
	PipelineEscape          = "escape"
)

var Pipelines = []string{
	PipelineTextareaInput, PipelineTextareaDisplay,
	PipelineHTMLInput, PipelineHTMLDisplay, PipelineHTMLEdit,
	PipelineBBCode, PipelineClickable, PipelineCensor, PipelineEscape,
}

// Escape modes accepted by FilterService.Escape.
const (
	EscapeSpecialChars = "specialchars"
	EscapeEntities     = "entities"
	EscapeUndo         = "undo"
)

// FilterService owns the configured filter and exposes its operations to
// the HTTP handlers and the CLI.
type FilterService struct {
	filter *filter.Filter
	logger *zerolog.Logger
}

// NewFilterService builds the filter from configuration. smileys and spam
// may be nil, in which case smiley replacement and spam lookups are off.
func NewFilterService(cfg *config.FilterConfig, smileys filter.SmileySource, spam filter.SpamChecker, logger *zerolog.Logger) (*FilterService, error) {
	hooks := filter.NewHooks()
	for _, event := range []filter.Event{
		filter.AfterTextareaInput, filter.AfterTextareaDisplay,
		filter.AfterHTMLInput, filter.AfterHTMLDisplay,
	} {
		hooks.On(event, traceHook(logger))
	}

	opts := []filter.Option{filter.WithHooks(hooks)}
	if smileys != nil {
		opts = append(opts, filter.WithSmileys(smileys))
	}
	if spam != nil {
		opts = append(opts, filter.WithSpamChecker(spam))
	}
	if cfg.PurifierEnabled {
		opts = append(opts, filter.WithPurifier(filter.NewHTMLPurifier()))
	}

	f, err := filter.New(cfg.Settings(), opts...)
	if err != nil {
		return nil, err
	}

	return &FilterService{filter: f, logger: logger}, nil
}

// traceHook logs the size of every filtered text at debug level.
func traceHook(logger *zerolog.Logger) filter.Hook {
	return func(_ context.Context, event filter.Event, text string) (string, error) {
		logger.Debug().Str("event", string(event)).Int("length", len(text)).Msg("filter hook")
		return text, nil
	}
}

// Filter exposes the underlying filter.
func (s *FilterService) Filter() *filter.Filter {
	return s.filter
}

func (s *FilterService) TextareaInput(ctx context.Context, text string) (string, error) {
	return s.filter.FilterTextareaInput(ctx, text)
}

func (s *FilterService) TextareaDisplay(ctx context.Context, text string, opts filter.DisplayOptions) (string, error) {
	return s.filter.FilterTextareaDisplay(ctx, text, opts)
}

func (s *FilterService) HTMLInput(ctx context.Context, html string, br bool) (string, error) {
	return s.filter.FilterHTMLInput(ctx, html, br)
}

func (s *FilterService) HTMLDisplay(ctx context.Context, html string, br bool) (string, error) {
	return s.filter.FilterHTMLDisplay(ctx, html, br)
}

// HTMLEdit prepares stored HTML for an editor field.
func (s *FilterService) HTMLEdit(ctx context.Context, html string) (string, error) {
	return s.filter.CheckVar(ctx, html, filter.KindHTML, filter.CheckOptions{Mode: "edit"})
}

func (s *FilterService) Decode(ctx context.Context, text string, image bool) (string, error) {
	return s.filter.CodeDecode(ctx, text, image)
}

func (s *FilterService) Clickable(text string) string {
	return s.filter.MakeClickable(text)
}

func (s *FilterService) Censor(text string) string {
	return s.filter.CensorString(text)
}

func (s *FilterService) Escape(text, mode string) (string, error) {
	switch mode {
	case "", EscapeSpecialChars:
		return filter.HTMLSpecialChars(text), nil
	case EscapeEntities:
		return filter.HTMLEntities(text), nil
	case EscapeUndo:
		return filter.UndoHTMLSpecialChars(text), nil
	default:
		return "", fmt.Errorf("unknown escape mode %q", mode)
	}
}

// Check runs one typed check and logs how long it took.
func (s *FilterService) Check(ctx context.Context, data string, kind filter.Kind, opts filter.CheckOptions) (string, error) {
	start := time.Now()
	out, err := s.filter.CheckVar(ctx, data, kind, opts)
	s.logger.Debug().
		Str("kind", string(kind)).
		Str("mode", opts.Mode).
		Bool("ok", err == nil).
		Dur("duration", time.Since(start)).
		Msg("check")
	return out, err
}

func (s *FilterService) CheckBatch(ctx context.Context, input map[string]any, filters map[string]filter.FieldFilter, strict bool) (map[string]any, error) {
	return s.filter.CheckVarMap(ctx, input, filters, strict)
}

func (s *FilterService) Truncate(text string, start, length int, marker string) string {
	return s.filter.Substr(text, start, length, marker)
}

func (s *FilterService) Reverse(text string, all bool) string {
	return filter.ReverseUTF8(text, all)
}

func (s *FilterService) Clean(m map[string]any) map[string]any {
	return filter.CleanArray(m)
}

func (s *FilterService) Smileys(ctx context.Context, all bool) ([]filter.Smiley, error) {
	return s.filter.Smileys(ctx, all)
}

// Run applies the named pipeline with its default options.
func (s *FilterService) Run(ctx context.Context, pipeline, text string) (string, error) {
	switch pipeline {
	case PipelineTextareaInput:
		return s.TextareaInput(ctx, text)
	case PipelineTextareaDisplay:
		return s.TextareaDisplay(ctx, text, filter.DefaultDisplayOptions())
	case PipelineHTMLInput:
		return s.HTMLInput(ctx, text, false)
	case PipelineHTMLDisplay:
		return s.HTMLDisplay(ctx, text, false)
	case PipelineHTMLEdit:
		return s.HTMLEdit(ctx, text)
	case PipelineBBCode:
		return s.Decode(ctx, text, true)
	case PipelineClickable:
		return s.Clickable(text), nil
	case PipelineCensor:
		return s.Censor(text), nil
	case PipelineEscape:
		return s.Escape(text, EscapeSpecialChars)
	default:
		return "", fmt.Errorf("unknown pipeline %q", pipeline)
	}
}
