package handler

import (
	"github.com/deppfellow/contentfilter/internal/errs"
	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/deppfellow/contentfilter/internal/repository"
	"github.com/deppfellow/contentfilter/internal/server"
	"github.com/deppfellow/contentfilter/internal/service"
	"github.com/deppfellow/contentfilter/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type ListSmileysRequest struct {
	All bool `query:"all"`
}

func (r *ListSmileysRequest) Validate() error {
	return nil
}

type SmileyIDRequest struct {
	ID int64 `param:"id" validate:"required,min=1"`
}

func (r *SmileyIDRequest) Validate() error {
	return validation.Struct(r)
}

type SmileyRequest struct {
	ID      int64  `param:"id" json:"-"`
	Code    string `json:"code" validate:"required,max=50"`
	URL     string `json:"smile_url" validate:"required,max=255"`
	Emotion string `json:"emotion" validate:"max=75"`
	Display bool   `json:"display"`
}

func (r *SmileyRequest) Validate() error {
	return validation.Struct(r)
}

func (r *SmileyRequest) input() repository.SmileyInput {
	return repository.SmileyInput{
		Code:    r.Code,
		URL:     r.URL,
		Emotion: r.Emotion,
		Display: r.Display,
	}
}

type ImportSmileysRequest struct {
	Smileys []repository.SmileyInput `json:"smileys"`
}

func (r *ImportSmileysRequest) Validate() error {
	pack := service.SmileyPack{Smileys: r.Smileys}
	if err := pack.Validate(); err != nil {
		return validation.CustomValidationErrors{{Field: "smileys", Message: err.Error()}}
	}
	return nil
}

type NoBody struct{}

func (r *NoBody) Validate() error {
	return nil
}

type SmileyListResponse struct {
	Smileys []filter.Smiley `json:"smileys"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type SmileyHandler struct {
	Handler
	smileys *service.SmileyService
	filters *service.FilterService
}

func NewSmileyHandler(s *server.Server, smileys *service.SmileyService, filters *service.FilterService) *SmileyHandler {
	return &SmileyHandler{
		Handler: NewHandler(s),
		smileys: smileys,
		filters: filters,
	}
}

// List serves the cached list the filter itself uses. Hidden smileys are
// included only with ?all=true.
func (h *SmileyHandler) List(c echo.Context, req *ListSmileysRequest) (SmileyListResponse, error) {
	list, err := h.filters.Smileys(c.Request().Context(), req.All)
	if list == nil {
		list = []filter.Smiley{}
	}
	return SmileyListResponse{Smileys: list}, err
}

func (h *SmileyHandler) Get(c echo.Context, req *SmileyIDRequest) (filter.Smiley, error) {
	return h.smileys.Get(c.Request().Context(), req.ID)
}

func (h *SmileyHandler) Create(c echo.Context, req *SmileyRequest) (filter.Smiley, error) {
	return h.smileys.Create(c.Request().Context(), req.input())
}

func (h *SmileyHandler) Update(c echo.Context, req *SmileyRequest) (filter.Smiley, error) {
	if req.ID < 1 {
		return filter.Smiley{}, errs.NewBadRequestError("Validation failed", true, nil,
			[]errs.FieldError{{Field: "id", Error: "must be at least 1"}}, nil)
	}
	return h.smileys.Update(c.Request().Context(), req.ID, req.input())
}

func (h *SmileyHandler) Delete(c echo.Context, req *SmileyIDRequest) error {
	return h.smileys.Delete(c.Request().Context(), req.ID)
}

func (h *SmileyHandler) Import(c echo.Context, req *ImportSmileysRequest) (ImportResponse, error) {
	n, err := h.smileys.Import(c.Request().Context(), req.Smileys)
	return ImportResponse{Imported: n}, err
}

// Export downloads every smiley as a YAML pack.
func (h *SmileyHandler) Export(c echo.Context, _ *NoBody) ([]byte, error) {
	list, err := h.smileys.List(c.Request().Context(), true)
	if err != nil {
		return nil, err
	}
	return service.MarshalSmileyPack(list)
}

func (h *SmileyHandler) Refresh(c echo.Context, _ *NoBody) (StatusResponse, error) {
	if err := h.smileys.RequestRefresh(c.Request().Context()); err != nil {
		return StatusResponse{}, errors.Wrap(err, "failed to schedule smiley refresh")
	}
	return StatusResponse{Status: "queued"}, nil
}
