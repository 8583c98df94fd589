package repository

import (
	"github.com/deppfellow/contentfilter/internal/server"
)

// Repositories groups every repository so services take a single argument.
type Repositories struct {
	Smiley      *SmileyRepository
	SmileyCache *SmileyCache
}

func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Smiley:      NewSmileyRepository(s.DB.Pool),
		SmileyCache: NewSmileyCache(s.Redis, s.Config.Filter.SmileyCacheTTL),
	}
}
