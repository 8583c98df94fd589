package handler

import (
	"github.com/deppfellow/contentfilter/internal/server"
	"github.com/deppfellow/contentfilter/internal/service"
	"github.com/deppfellow/contentfilter/internal/validation"
	"github.com/labstack/echo/v4"
)

type TruncateRequest struct {
	Text   string `json:"text"`
	Start  int    `json:"start" validate:"min=0"`
	Length int    `json:"length" validate:"min=0"`
	// Marker ends a cut text. Omitted means "...", an empty string means none.
	Marker *string `json:"marker"`
}

const defaultTruncateMarker = "..."

func (r *TruncateRequest) marker() string {
	if r.Marker == nil {
		return defaultTruncateMarker
	}
	return *r.Marker
}

func (r *TruncateRequest) Validate() error {
	return validation.Struct(r)
}

type ReverseRequest struct {
	Text string `json:"text"`

	// All also reverses runs of digits.
	All bool `json:"all"`
}

func (r *ReverseRequest) Validate() error {
	return validation.Struct(r)
}

type CleanRequest struct {
	Input map[string]any `json:"input" validate:"required"`
}

func (r *CleanRequest) Validate() error {
	return validation.Struct(r)
}

type TextHandler struct {
	Handler
	filters *service.FilterService
}

func NewTextHandler(s *server.Server, filters *service.FilterService) *TextHandler {
	return &TextHandler{
		Handler: NewHandler(s),
		filters: filters,
	}
}

func (h *TextHandler) Truncate(c echo.Context, req *TruncateRequest) (OutputResponse, error) {
	return OutputResponse{Output: h.filters.Truncate(req.Text, req.Start, req.Length, req.marker())}, nil
}

func (h *TextHandler) Reverse(c echo.Context, req *ReverseRequest) (OutputResponse, error) {
	return OutputResponse{Output: h.filters.Reverse(req.Text, req.All)}, nil
}

func (h *TextHandler) Clean(c echo.Context, req *CleanRequest) (MapResponse, error) {
	return MapResponse{Output: h.filters.Clean(req.Input)}, nil
}
