package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/deppfellow/contentfilter/internal/repository"
	"gopkg.in/yaml.v3"
)

// SmileyPack is the YAML document used to import and export smileys:
//
//	smileys:
//	  - code: ":-)"
//	    smile_url: smilies/smile.gif
//	    emotion: Smile
//	    display: true
type SmileyPack struct {
	Smileys []repository.SmileyInput `yaml:"smileys" json:"smileys"`
}

var ErrInvalidPack = errors.New("invalid smiley pack")

// ParseSmileyPack decodes and checks a pack. Codes must be present, unique
// and at most 50 bytes, and every entry needs an image URL.
func ParseSmileyPack(data []byte) ([]repository.SmileyInput, error) {
	var pack SmileyPack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}
	if err := pack.Validate(); err != nil {
		return nil, err
	}
	return pack.Smileys, nil
}

// Validate trims every code in place and then checks the pack.
func (p *SmileyPack) Validate() error {
	if len(p.Smileys) == 0 {
		return fmt.Errorf("%w: no smileys", ErrInvalidPack)
	}

	seen := make(map[string]bool, len(p.Smileys))
	for i := range p.Smileys {
		s := &p.Smileys[i]
		s.Code = strings.TrimSpace(s.Code)
		code := s.Code
		switch {
		case code == "":
			return fmt.Errorf("%w: entry %d has no code", ErrInvalidPack, i)
		case len(code) > 50:
			return fmt.Errorf("%w: code %q is longer than 50 bytes", ErrInvalidPack, code)
		case s.URL == "":
			return fmt.Errorf("%w: code %q has no smile_url", ErrInvalidPack, code)
		case seen[code]:
			return fmt.Errorf("%w: duplicate code %q", ErrInvalidPack, code)
		}
		seen[code] = true
	}
	return nil
}

// MarshalSmileyPack renders list as a pack that ParseSmileyPack accepts.
func MarshalSmileyPack(list []filter.Smiley) ([]byte, error) {
	pack := SmileyPack{Smileys: make([]repository.SmileyInput, 0, len(list))}
	for _, s := range list {
		pack.Smileys = append(pack.Smileys, repository.SmileyInput{
			Code:    s.Code,
			URL:     s.URL,
			Emotion: s.Emotion,
			Display: s.Display,
		})
	}
	return yaml.Marshal(pack)
}
