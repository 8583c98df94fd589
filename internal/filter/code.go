package filter

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

var codeBlock = regexp.MustCompile(`(?s)\[code\](.*?)\[/code\]`)

// CodePreConv hides the body of every [code] block by base64 encoding it, so
// passes that run before CodeConv (clickable links, smileys, BBCode) cannot
// touch it. The [code] wrappers are kept for CodeConv to find.
func CodePreConv(text string, enabled bool) string {
	if !enabled {
		return text
	}
	return codeBlock.ReplaceAllStringFunc(text, func(block string) string {
		body := codeBlock.FindStringSubmatch(block)[1]
		return "[code]" + base64.StdEncoding.EncodeToString([]byte(body)) + "[/code]"
	})
}

// CodeConv turns the blocks protected by CodePreConv into rendered code divs.
func (f *Filter) CodeConv(ctx context.Context, text string, enabled, image bool) (string, error) {
	if !enabled {
		return text, nil
	}

	var convErr error
	out := codeBlock.ReplaceAllStringFunc(text, func(block string) string {
		if convErr != nil {
			return block
		}
		body := codeBlock.FindStringSubmatch(block)[1]
		sanitized, err := f.CodeSanitizer(ctx, body, image)
		if err != nil {
			convErr = err
			return block
		}
		return `<div class="icmsCode">` + sanitized + `</div>`
	})
	if convErr != nil {
		return "", fmt.Errorf("convert code block: %w", convErr)
	}
	return out, nil
}

// CodeSanitizer decodes a protected code body and renders it: escaped quotes
// are restored, the text is escaped, then BBCode inside it is decoded.
//
// A body that is not valid base64 is treated as raw code.
func (f *Filter) CodeSanitizer(ctx context.Context, body string, image bool) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		decoded = []byte(body)
	}

	text := strings.ReplaceAll(string(decoded), `\"`, `"`)
	text = HTMLSpecialChars(text)
	return f.CodeDecode(ctx, text, image)
}
