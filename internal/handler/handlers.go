package handler

import (
	"github.com/deppfellow/contentfilter/internal/server"
	"github.com/deppfellow/contentfilter/internal/service"
)

type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Filter  *FilterHandler
	Check   *CheckHandler
	Text    *TextHandler
	Smiley  *SmileyHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Filter:  NewFilterHandler(s, services.Filter),
		Check:   NewCheckHandler(s, services.Filter),
		Text:    NewTextHandler(s, services.Filter),
		Smiley:  NewSmileyHandler(s, services.Smiley, services.Filter),
	}
}
