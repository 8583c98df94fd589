package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/contentfilter/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Text  string `json:"text" validate:"required"`
	Kind  string `json:"kind" validate:"required,filterkind"`
	Mode  string `json:"mode" validate:"omitempty,oneof=a b"`
	Limit int    `json:"limit" validate:"min=0,max=10"`
}

func (r *sampleRequest) Validate() error {
	return Struct(r)
}

type customRequest struct {
	Start int `json:"start"`
}

func (r *customRequest) Validate() error {
	if r.Start < 0 {
		return CustomValidationErrors{{Field: "start", Message: "must not be negative"}}
	}
	return nil
}

func newContext(body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestBindAndValidateOK(t *testing.T) {
	var req sampleRequest
	err := BindAndValidate(newContext(`{"text":"x","kind":"int","limit":3}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "x", req.Text)
}

func TestBindAndValidateFieldErrors(t *testing.T) {
	var req sampleRequest
	err := BindAndValidate(newContext(`{"kind":"nope","mode":"c","limit":11}`), &req)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.ElementsMatch(t, []errs.FieldError{
		{Field: "text", Error: "is required"},
		{Field: "kind", Error: "must be a known filter kind"},
		{Field: "mode", Error: "must be one of: a b"},
		{Field: "limit", Error: "must not exceed 10"},
	}, httpErr.Errors)
}

func TestBindAndValidateMalformedBody(t *testing.T) {
	var req sampleRequest
	err := BindAndValidate(newContext(`{"text":`), &req)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.NotEmpty(t, httpErr.Message)
	assert.Empty(t, httpErr.Errors)
}

func TestBindAndValidateCustomErrors(t *testing.T) {
	var req customRequest
	err := BindAndValidate(newContext(`{"start":-1}`), &req)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, []errs.FieldError{{Field: "start", Error: "must not be negative"}}, httpErr.Errors)
}
