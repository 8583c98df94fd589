package filter

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Smiley maps a typed code such as ":-)" to an image.
type Smiley struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	URL     string `json:"smile_url"`
	Emotion string `json:"emotion"`
	Display bool   `json:"display"`
}

// Smileys returns the known smileys. With all set to false only the ones
// flagged for display in the picker are returned.
func (f *Filter) Smileys(ctx context.Context, all bool) ([]Smiley, error) {
	if f.smileys == nil {
		return []Smiley{}, nil
	}

	list, err := f.smileys.Smileys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load smileys: %w", err)
	}
	if all {
		return list, nil
	}

	shown := make([]Smiley, 0, len(list))
	for _, s := range list {
		if s.Display {
			shown = append(shown, s)
		}
	}
	return shown, nil
}

// Smiley replaces every smiley code in text with its image tag. Replacement is
// a single pass with longer codes tried first, so ":-))" is never split into
// ":-)" followed by ")" and a replaced tag is never scanned again.
func (f *Filter) Smiley(ctx context.Context, text string) (string, error) {
	list, err := f.Smileys(ctx, true)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return text, nil
	}

	sorted := make([]Smiley, 0, len(list))
	for _, s := range list {
		if s.Code != "" {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Code) > len(sorted[j].Code)
	})

	pairs := make([]string, 0, len(sorted)*2)
	for _, s := range sorted {
		pairs = append(pairs, s.Code, f.smileyImage(s))
	}
	return strings.NewReplacer(pairs...).Replace(text), nil
}

func (f *Filter) smileyImage(s Smiley) string {
	return `<img src="` + f.settings.UploadURL + `/` + escapeSpecial(s.URL) + `" alt="" />`
}
