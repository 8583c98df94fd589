package handler

import (
	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/deppfellow/contentfilter/internal/server"
	"github.com/deppfellow/contentfilter/internal/service"
	"github.com/deppfellow/contentfilter/internal/validation"
	"github.com/labstack/echo/v4"
)

type TextRequest struct {
	Text string `json:"text"`
}

func (r *TextRequest) Validate() error {
	return validation.Struct(r)
}

type DisplayRequest struct {
	Text    string                 `json:"text"`
	Options *filter.DisplayOptions `json:"options"`
}

func (r *DisplayRequest) Validate() error {
	return validation.Struct(r)
}

type HTMLRequest struct {
	Text string `json:"text"`
	BR   bool   `json:"br"`
}

func (r *HTMLRequest) Validate() error {
	return validation.Struct(r)
}

type BBCodeRequest struct {
	Text string `json:"text"`

	// Image allows [img] tags. Unset means allowed.
	Image *bool `json:"image"`
}

func (r *BBCodeRequest) Validate() error {
	return validation.Struct(r)
}

type EscapeRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode" validate:"omitempty,oneof=specialchars entities undo"`
}

func (r *EscapeRequest) Validate() error {
	return validation.Struct(r)
}

type OutputResponse struct {
	Output string `json:"output"`
}

// FilterHandler exposes the text pipelines.
type FilterHandler struct {
	Handler
	filters *service.FilterService
}

func NewFilterHandler(s *server.Server, filters *service.FilterService) *FilterHandler {
	return &FilterHandler{
		Handler: NewHandler(s),
		filters: filters,
	}
}

func (h *FilterHandler) TextareaInput(c echo.Context, req *TextRequest) (OutputResponse, error) {
	out, err := h.filters.TextareaInput(c.Request().Context(), req.Text)
	return OutputResponse{Output: out}, err
}

func (h *FilterHandler) TextareaDisplay(c echo.Context, req *DisplayRequest) (OutputResponse, error) {
	opts := filter.DefaultDisplayOptions()
	if req.Options != nil {
		opts = *req.Options
	}
	out, err := h.filters.TextareaDisplay(c.Request().Context(), req.Text, opts)
	return OutputResponse{Output: out}, err
}

func (h *FilterHandler) HTMLInput(c echo.Context, req *HTMLRequest) (OutputResponse, error) {
	out, err := h.filters.HTMLInput(c.Request().Context(), req.Text, req.BR)
	return OutputResponse{Output: out}, err
}

func (h *FilterHandler) HTMLDisplay(c echo.Context, req *HTMLRequest) (OutputResponse, error) {
	out, err := h.filters.HTMLDisplay(c.Request().Context(), req.Text, req.BR)
	return OutputResponse{Output: out}, err
}

func (h *FilterHandler) HTMLEdit(c echo.Context, req *TextRequest) (OutputResponse, error) {
	out, err := h.filters.HTMLEdit(c.Request().Context(), req.Text)
	return OutputResponse{Output: out}, err
}

func (h *FilterHandler) BBCode(c echo.Context, req *BBCodeRequest) (OutputResponse, error) {
	image := req.Image == nil || *req.Image
	out, err := h.filters.Decode(c.Request().Context(), req.Text, image)
	return OutputResponse{Output: out}, err
}

func (h *FilterHandler) Clickable(c echo.Context, req *TextRequest) (OutputResponse, error) {
	return OutputResponse{Output: h.filters.Clickable(req.Text)}, nil
}

func (h *FilterHandler) Censor(c echo.Context, req *TextRequest) (OutputResponse, error) {
	return OutputResponse{Output: h.filters.Censor(req.Text)}, nil
}

func (h *FilterHandler) Escape(c echo.Context, req *EscapeRequest) (OutputResponse, error) {
	out, err := h.filters.Escape(req.Text, req.Mode)
	return OutputResponse{Output: out}, err
}
