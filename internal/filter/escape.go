package filter

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	specialReplacer = strings.NewReplacer(
		"&", "&amp;",
		`"`, "&quot;",
		"'", "&#039;",
		"<", "&lt;",
		">", "&gt;",
	)

	undoReplacer = strings.NewReplacer(
		"&amp;", "&",
		"&quot;", `"`,
		"&#039;", "'",
		"&#39;", "'",
		"&#x27;", "'",
		"&lt;", "<",
		"&gt;", ">",
	)

	lineBreakReplacer = strings.NewReplacer(
		"\r\n", "<br />",
		"\r", "<br />",
		"\n", "<br />",
	)

	ampEntity  = regexp.MustCompile(`(?i)&amp;`)
	nbspEntity = regexp.MustCompile(`(?i)&nbsp;`)
	anyEntity  = regexp.MustCompile(`&(?:[a-zA-Z][a-zA-Z0-9]*|#[0-9]+|#[xX][0-9a-fA-F]+);`)

	blockedSchemes = regexp.MustCompile(`(?i)^(javascript|vbscript|about):`)
)

// HTMLSpecialChars escapes text for display inside HTML form fields.
//
// The five special characters are encoded, then "&amp;" is turned back into
// "&" so entities the user typed survive and running it twice is harmless.
// "&nbsp;" is the one entity kept visible as text.
func HTMLSpecialChars(text string) string {
	text = specialReplacer.Replace(strings.ToValidUTF8(text, "�"))
	text = ampEntity.ReplaceAllLiteralString(text, "&")
	return nbspEntity.ReplaceAllLiteralString(text, "&amp;nbsp;")
}

// UndoHTMLSpecialChars reverses the standard special character encodings.
func UndoHTMLSpecialChars(text string) string {
	return undoReplacer.Replace(text)
}

// HTMLEntities behaves like HTMLSpecialChars and also encodes every non-ASCII
// rune as a numeric character reference.
func HTMLEntities(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToValidUTF8(text, "�") {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '"':
			b.WriteString("&quot;")
		case r == '\'':
			b.WriteString("&#039;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case r > 127:
			writeNumericRef(&b, r)
		default:
			b.WriteRune(r)
		}
	}
	text = ampEntity.ReplaceAllLiteralString(b.String(), "&")
	return nbspEntity.ReplaceAllLiteralString(text, "&amp;nbsp;")
}

// NL2BR replaces every line break (CRLF, CR or LF) with "<br />".
func NL2BR(text string) string {
	return lineBreakReplacer.Replace(text)
}

// CheckURLString reports whether text is acceptable as a link target: no
// control codes and no script-ish scheme.
func CheckURLString(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] < 0x20 {
			return false
		}
	}
	return !blockedSchemes.MatchString(text)
}

// escapeSpecial is the plain special-chars encoding, without the entity
// preserving fix-ups of HTMLSpecialChars.
func escapeSpecial(text string) string {
	return specialReplacer.Replace(text)
}

// escapeKeepEntities encodes special characters but leaves existing entities
// alone, so "&amp;" is not turned into "&amp;amp;".
func escapeKeepEntities(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range anyEntity.FindAllStringIndex(text, -1) {
		b.WriteString(specialReplacer.Replace(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(specialReplacer.Replace(text[last:]))
	return b.String()
}

func writeNumericRef(b *strings.Builder, r rune) {
	b.WriteString("&#")
	b.WriteString(strconv.Itoa(int(r)))
	b.WriteByte(';')
}
