package service

import (
	"fmt"

	"github.com/deppfellow/contentfilter/internal/lib/job"
	"github.com/deppfellow/contentfilter/internal/lib/spam"
	"github.com/deppfellow/contentfilter/internal/repository"
	"github.com/deppfellow/contentfilter/internal/server"
)

type Services struct {
	Auth   *AuthService
	Filter *FilterService
	Smiley *SmileyService
	Job    *job.JobService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	smileys := NewSmileyService(repos.Smiley, repos.SmileyCache, s.Job, s.Logger)

	spamClient := spam.NewClient(s.Config.Spam, s.Logger)

	filterService, err := NewFilterService(s.Config.Filter, smileys, spamClient, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build filter service: %w", err)
	}

	return &Services{
		Auth:   NewAuthService(s),
		Filter: filterService,
		Smiley: smileys,
		Job:    s.Job,
	}, nil
}
