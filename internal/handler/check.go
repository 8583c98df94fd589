package handler

import (
	"slices"

	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/deppfellow/contentfilter/internal/server"
	"github.com/deppfellow/contentfilter/internal/service"
	"github.com/deppfellow/contentfilter/internal/validation"
	"github.com/labstack/echo/v4"
)

type CheckRequest struct {
	Data    string              `json:"data"`
	Kind    filter.Kind         `json:"kind" validate:"required,filterkind"`
	Options filter.CheckOptions `json:"options"`
}

func (r *CheckRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if (r.Options.Min == nil) != (r.Options.Max == nil) {
		return validation.CustomValidationErrors{{Field: "options", Message: "min and max must be set together"}}
	}
	if r.Options.Min != nil && *r.Options.Min > *r.Options.Max {
		return validation.CustomValidationErrors{{Field: "options.min", Message: "must not exceed max"}}
	}
	return nil
}

type BatchCheckRequest struct {
	Input   map[string]any                `json:"input" validate:"required"`
	Filters map[string]filter.FieldFilter `json:"filters" validate:"dive"`
	Strict  bool                          `json:"strict"`
}

func (r *BatchCheckRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	for key, ff := range r.Filters {
		if !slices.Contains(filter.Kinds, ff.Kind) {
			return validation.CustomValidationErrors{{Field: "filters." + key + ".kind", Message: "must be a known filter kind"}}
		}
	}
	return nil
}

type MapResponse struct {
	Output map[string]any `json:"output"`
}

// CheckHandler runs typed checks. A rejected value answers 422 through the
// global error handler.
type CheckHandler struct {
	Handler
	filters *service.FilterService
}

func NewCheckHandler(s *server.Server, filters *service.FilterService) *CheckHandler {
	return &CheckHandler{
		Handler: NewHandler(s),
		filters: filters,
	}
}

func (h *CheckHandler) Check(c echo.Context, req *CheckRequest) (OutputResponse, error) {
	out, err := h.filters.Check(c.Request().Context(), req.Data, req.Kind, req.Options)
	return OutputResponse{Output: out}, err
}

func (h *CheckHandler) CheckBatch(c echo.Context, req *BatchCheckRequest) (MapResponse, error) {
	out, err := h.filters.CheckBatch(c.Request().Context(), req.Input, req.Filters, req.Strict)
	return MapResponse{Output: out}, err
}
