package service

import (
	"strings"
	"testing"

	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/deppfellow/contentfilter/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSmileyPack(t *testing.T) {
	data := []byte(`
smileys:
  - code: ":-)"
    smile_url: smilies/smile.gif
    emotion: Smile
    display: true
  - code: ":-("
    smile_url: smilies/sad.gif
`)

	got, err := ParseSmileyPack(data)
	require.NoError(t, err)
	assert.Equal(t, []repository.SmileyInput{
		{Code: ":-)", URL: "smilies/smile.gif", Emotion: "Smile", Display: true},
		{Code: ":-(", URL: "smilies/sad.gif"},
	}, got)
}

func TestParseSmileyPackTrimsCodes(t *testing.T) {
	data := []byte("smileys:\n  - {code: \" :-) \", smile_url: smile.gif}\n  - {code: \":-)\", smile_url: other.gif}\n")

	_, err := ParseSmileyPack(data)
	assert.ErrorIs(t, err, ErrInvalidPack, "codes are compared after trimming")

	got, err := ParseSmileyPack([]byte("smileys:\n  - {code: \" :-) \", smile_url: smile.gif}\n"))
	require.NoError(t, err)
	assert.Equal(t, ":-)", got[0].Code)
}

func TestParseSmileyPackInvalid(t *testing.T) {
	tests := map[string]string{
		"not yaml":  "smileys: [",
		"empty":     "smileys: []",
		"no code":   "smileys:\n  - smile_url: a.gif\n",
		"no url":    "smileys:\n  - code: x\n",
		"duplicate": "smileys:\n  - {code: x, smile_url: a.gif}\n  - {code: x, smile_url: b.gif}\n",
		"long code": "smileys:\n  - {code: " + strings.Repeat("a", 51) + ", smile_url: a.gif}\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSmileyPack([]byte(data))
			assert.ErrorIs(t, err, ErrInvalidPack)
		})
	}
}

func TestMarshalSmileyPackRoundTrip(t *testing.T) {
	list := []filter.Smiley{{ID: 3, Code: ":D", URL: "grin.gif", Emotion: "Grin", Display: true}}

	data, err := MarshalSmileyPack(list)
	require.NoError(t, err)

	got, err := ParseSmileyPack(data)
	require.NoError(t, err)
	assert.Equal(t, []repository.SmileyInput{{Code: ":D", URL: "grin.gif", Emotion: "Grin", Display: true}}, got)
}
