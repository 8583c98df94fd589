package router

import (
	"net/http"

	"github.com/deppfellow/contentfilter/internal/handler"
	"github.com/deppfellow/contentfilter/internal/middleware"
	"github.com/labstack/echo/v4"
)

func registerV1Routes(g *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	limited := g.Group("", m.RateLimit.Limit())
	registerFilterRoutes(limited.Group("/filters"), h.Filter)
	registerCheckRoutes(limited.Group("/checks"), h.Check)
	registerTextRoutes(limited.Group("/text"), h.Text)

	g.GET("/smileys", handler.Handle(h.Smiley.Handler, h.Smiley.List, http.StatusOK, &handler.ListSmileysRequest{}))
	registerAdminRoutes(g.Group("/admin", m.Auth.RequireAuth), h.Smiley)
}

func registerFilterRoutes(g *echo.Group, f *handler.FilterHandler) {
	g.POST("/textarea/input", handler.Handle(f.Handler, f.TextareaInput, http.StatusOK, &handler.TextRequest{}))
	g.POST("/textarea/display", handler.Handle(f.Handler, f.TextareaDisplay, http.StatusOK, &handler.DisplayRequest{}))
	g.POST("/html/input", handler.Handle(f.Handler, f.HTMLInput, http.StatusOK, &handler.HTMLRequest{}))
	g.POST("/html/display", handler.Handle(f.Handler, f.HTMLDisplay, http.StatusOK, &handler.HTMLRequest{}))
	g.POST("/html/edit", handler.Handle(f.Handler, f.HTMLEdit, http.StatusOK, &handler.TextRequest{}))
	g.POST("/bbcode", handler.Handle(f.Handler, f.BBCode, http.StatusOK, &handler.BBCodeRequest{}))
	g.POST("/clickable", handler.Handle(f.Handler, f.Clickable, http.StatusOK, &handler.TextRequest{}))
	g.POST("/censor", handler.Handle(f.Handler, f.Censor, http.StatusOK, &handler.TextRequest{}))
	g.POST("/escape", handler.Handle(f.Handler, f.Escape, http.StatusOK, &handler.EscapeRequest{}))
}

func registerCheckRoutes(g *echo.Group, c *handler.CheckHandler) {
	g.POST("", handler.Handle(c.Handler, c.Check, http.StatusOK, &handler.CheckRequest{}))
	g.POST("/batch", handler.Handle(c.Handler, c.CheckBatch, http.StatusOK, &handler.BatchCheckRequest{}))
}

func registerTextRoutes(g *echo.Group, t *handler.TextHandler) {
	g.POST("/truncate", handler.Handle(t.Handler, t.Truncate, http.StatusOK, &handler.TruncateRequest{}))
	g.POST("/reverse", handler.Handle(t.Handler, t.Reverse, http.StatusOK, &handler.ReverseRequest{}))
	g.POST("/clean", handler.Handle(t.Handler, t.Clean, http.StatusOK, &handler.CleanRequest{}))
}

func registerAdminRoutes(g *echo.Group, s *handler.SmileyHandler) {
	g.POST("/smileys", handler.Handle(s.Handler, s.Create, http.StatusCreated, &handler.SmileyRequest{}))
	g.POST("/smileys/import", handler.Handle(s.Handler, s.Import, http.StatusOK, &handler.ImportSmileysRequest{}))
	g.POST("/smileys/refresh", handler.Handle(s.Handler, s.Refresh, http.StatusAccepted, &handler.NoBody{}))
	g.GET("/smileys/export", handler.HandleFile(s.Handler, s.Export, http.StatusOK, &handler.NoBody{},
		"smileys.yaml", "application/yaml"))
	g.GET("/smileys/:id", handler.Handle(s.Handler, s.Get, http.StatusOK, &handler.SmileyIDRequest{}))
	g.PUT("/smileys/:id", handler.Handle(s.Handler, s.Update, http.StatusOK, &handler.SmileyRequest{}))
	g.DELETE("/smileys/:id", handler.HandleNoContent(s.Handler, s.Delete, http.StatusNoContent, &handler.SmileyIDRequest{}))
}
