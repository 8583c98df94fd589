package filter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Kind selects the validation applied by CheckVar.
type Kind string

const (
	KindURL     Kind = "url"
	KindEmail   Kind = "email"
	KindIP      Kind = "ip"
	KindStr     Kind = "str"
	KindSpecial Kind = "special"
	KindInt     Kind = "int"
	KindHTML    Kind = "html"
	KindText    Kind = "text"
)

// Kinds lists every kind CheckVar understands.
var Kinds = []Kind{KindURL, KindEmail, KindIP, KindStr, KindSpecial, KindInt, KindHTML, KindText}

// CheckOptions tunes a CheckVar call. Mode is interpreted per kind:
//
//	url      scheme (default) | host | path | query
//	ip       ipv4 (default) | ipv6 | rfc | res
//	str      noencode | striplow | striphigh | encodelow | encodehigh | encodeamp
//	special  striplow | striphigh | encodehigh
//	html     input (default) | output | edit | print
//	text     input (default) | output | print
type CheckOptions struct {
	Mode string `json:"mode,omitempty"`

	// Encode percent-encodes a valid URL.
	Encode bool `json:"encode,omitempty"`

	// Protect rewrites a valid email as "user at example dot com".
	Protect bool `json:"protect,omitempty"`

	// Blacklist rejects emails matching bad-email patterns or flagged as spam.
	Blacklist bool `json:"blacklist,omitempty"`

	// Min and Max bound an int check. Both must be set to take effect.
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

var validModes = map[Kind][]string{
	KindURL:     {"scheme", "host", "path", "query"},
	KindIP:      {"ipv4", "ipv6", "rfc", "res"},
	KindStr:     {"noencode", "striplow", "striphigh", "encodelow", "encodehigh", "encodeamp"},
	KindSpecial: {"striplow", "striphigh", "encodehigh"},
	KindHTML:    {"input", "output", "print", "edit"},
	KindText:    {"input", "output", "print"},
}

var defaultModes = map[Kind]string{
	KindURL:  "scheme",
	KindIP:   "ipv4",
	KindHTML: "input",
	KindText: "input",
}

// normalize replaces an unknown mode with the kind's default.
func (o CheckOptions) normalize(kind Kind) CheckOptions {
	if !slices.Contains(validModes[kind], o.Mode) {
		o.Mode = defaultModes[kind]
	}
	return o
}

var intPattern = regexp.MustCompile(`^[+-]?(0|[1-9][0-9]*)$`)

// CheckVar sanitizes and validates a single value.
//
// Empty data, including the string "0", returns ErrEmptyInput. An unknown
// kind returns ErrUnknownKind and a value that fails validation ErrRejected.
func (f *Filter) CheckVar(ctx context.Context, data string, kind Kind, opts CheckOptions) (string, error) {
	if data == "" || data == "0" {
		return "", ErrEmptyInput
	}
	if !slices.Contains(Kinds, kind) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	opts = opts.normalize(kind)

	switch kind {
	case KindURL:
		return checkURL(data, opts)
	case KindEmail:
		return f.checkEmail(ctx, data, opts)
	case KindIP:
		return checkIP(data, opts.Mode)
	case KindStr:
		return sanitizeStr(data, opts.Mode), nil
	case KindSpecial:
		return sanitizeSpecial(data, opts.Mode), nil
	case KindInt:
		return checkInt(data, opts)
	case KindHTML:
		switch opts.Mode {
		case "edit":
			if strings.Contains(data, InputMarker) {
				data = strings.ReplaceAll(data, InputMarker, "")
				data = strings.ReplaceAll(data, PurifierMarker, "")
			}
			return escapeKeepEntities(data), nil
		case "output", "print":
			return f.FilterHTMLDisplay(ctx, data, false)
		default:
			return f.FilterHTMLInput(ctx, data, false)
		}
	default:
		if opts.Mode == "output" || opts.Mode == "print" {
			return f.FilterTextareaDisplay(ctx, data, DefaultDisplayOptions())
		}
		return f.FilterTextareaInput(ctx, data)
	}
}

// hostlessSchemes may omit the authority; every other scheme needs a host.
var hostlessSchemes = map[string]bool{"mailto": true, "news": true, "file": true}

func checkURL(data string, opts CheckOptions) (string, error) {
	data = sanitizeURL(data)

	u, err := url.Parse(data)
	if err != nil || u.Scheme == "" {
		return "", ErrRejected
	}
	if u.Host == "" && !hostlessSchemes[strings.ToLower(u.Scheme)] {
		return "", ErrRejected
	}
	if u.Host != "" && !validHost(u.Hostname()) {
		return "", ErrRejected
	}
	switch opts.Mode {
	case "path":
		if u.Path == "" {
			return "", ErrRejected
		}
	case "query":
		if u.RawQuery == "" {
			return "", ErrRejected
		}
	}

	if opts.Encode {
		return percentEncode(data), nil
	}
	return data, nil
}

func (f *Filter) checkEmail(ctx context.Context, data string, opts CheckOptions) (string, error) {
	data = sanitizeEmail(data)
	if validate.Var(data, "required,email") != nil {
		return "", ErrRejected
	}

	if opts.Blacklist {
		for _, re := range f.badEmails {
			if re.MatchString(data) {
				return "", ErrRejected
			}
		}
		if f.spam != nil {
			bad, err := f.spam.BadEmail(ctx, data)
			if err != nil {
				return "", fmt.Errorf("check spam list: %w", err)
			}
			if bad {
				return "", ErrRejected
			}
		}
	}

	if opts.Protect {
		data = strings.NewReplacer("@", " at ", ".", " dot ").Replace(data)
	}
	return data, nil
}

func checkInt(data string, opts CheckOptions) (string, error) {
	data = strings.TrimSpace(data)
	if !intPattern.MatchString(data) {
		return "", ErrRejected
	}
	n, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return "", ErrRejected
	}
	if opts.Min != nil && opts.Max != nil && (n < *opts.Min || n > *opts.Max) {
		return "", ErrRejected
	}
	return strconv.FormatInt(n, 10), nil
}

func compileBadEmails(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(p))
		}
		out = append(out, re)
	}
	return out
}

// FieldFilter is the filter applied to one key by CheckVarMap.
type FieldFilter struct {
	Kind    Kind         `json:"kind" validate:"required"`
	Options CheckOptions `json:"options"`
}

// CheckVarMap filters every value of input with the filter registered for its
// key. Nested maps and lists reuse their parent's filter. Keys without a
// filter are dropped when strict, and filtered as str otherwise. Rejected
// values come back as false.
func (f *Filter) CheckVarMap(ctx context.Context, input map[string]any, filters map[string]FieldFilter, strict bool) (map[string]any, error) {
	out := make(map[string]any, len(input))
	for key, value := range input {
		ff, ok := filters[key]
		if !ok {
			if strict {
				continue
			}
			ff = FieldFilter{Kind: KindStr}
		}

		checked, err := f.checkValue(ctx, value, ff)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		out[key] = checked
	}
	return out, nil
}

func (f *Filter) checkValue(ctx context.Context, value any, ff FieldFilter) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			checked, err := f.checkValue(ctx, item, ff)
			if err != nil {
				return nil, err
			}
			out[k] = checked
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			checked, err := f.checkValue(ctx, item, ff)
			if err != nil {
				return nil, err
			}
			out[i] = checked
		}
		return out, nil
	case nil:
		return false, nil
	case string:
		return f.checkScalar(ctx, v, ff)
	default:
		return f.checkScalar(ctx, fmt.Sprint(v), ff)
	}
}

func (f *Filter) checkScalar(ctx context.Context, data string, ff FieldFilter) (any, error) {
	out, err := f.CheckVar(ctx, data, ff.Kind, ff.Options)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, ErrEmptyInput), errors.Is(err, ErrRejected), errors.Is(err, ErrUnknownKind):
		return false, nil
	default:
		return nil, err
	}
}
