package filter

import (
	"net/netip"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	urlExtraChars   = "$-_.+!*'(),{}|\\^~[]`<>#%\";/?:@&="
	emailExtraChars = "!#$%&'*+-=?^_`{|}~@.[]"
)

var hostPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_\-.]*[a-zA-Z0-9])?$`)

// reserved address blocks rejected by the "res" ip mode
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("::/128"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("::ffff:0:0/96"),
	netip.MustParsePrefix("fe80::/10"),
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func keepChars(s, extra string) string {
	return strings.Map(func(r rune) rune {
		if isASCIIAlnum(r) || strings.ContainsRune(extra, r) {
			return r
		}
		return -1
	}, s)
}

func sanitizeURL(s string) string { return keepChars(s, urlExtraChars) }

func sanitizeEmail(s string) string { return keepChars(s, emailExtraChars) }

func validHost(host string) bool {
	if _, err := netip.ParseAddr(host); err == nil {
		return true
	}
	return hostPattern.MatchString(host)
}

// percentEncode keeps ASCII letters, digits and "-._" and encodes every other
// byte as %XX.
func percentEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isASCIIAlnum(rune(c)) || c == '-' || c == '.' || c == '_' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func checkIP(data, mode string) (string, error) {
	if validate.Var(data, "ip") != nil {
		return "", ErrRejected
	}
	addr, err := netip.ParseAddr(data)
	if err != nil {
		return "", ErrRejected
	}

	switch mode {
	case "ipv6":
		if !addr.Is6() {
			return "", ErrRejected
		}
	case "rfc":
		if addr.IsPrivate() {
			return "", ErrRejected
		}
	case "res":
		for _, p := range reservedPrefixes {
			if p.Contains(addr) {
				return "", ErrRejected
			}
		}
	default:
		if !addr.Is4() {
			return "", ErrRejected
		}
	}
	return data, nil
}

func sanitizeStr(data, mode string) string {
	switch mode {
	case "noencode":
		return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(data)
	case "striplow":
		return strings.Map(func(r rune) rune {
			if r < 0x20 {
				return -1
			}
			return r
		}, data)
	case "striphigh":
		return strings.Map(func(r rune) rune {
			if r > 0x7f {
				return -1
			}
			return r
		}, data)
	case "encodelow":
		return encodeRunes(data, func(r rune) bool { return r < 0x20 })
	case "encodehigh":
		return encodeRunes(data, func(r rune) bool { return r > 0x7f })
	case "encodeamp":
		return strings.ReplaceAll(data, "&", "&#38;")
	default:
		return escapeSpecial(data)
	}
}

// sanitizeSpecial encodes ' " < > & and low control characters as numeric
// references.
func sanitizeSpecial(data, mode string) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, r := range data {
		switch {
		case r < 0x20:
			if mode != "striplow" {
				writeNumericRef(&b, r)
			}
		case r > 0x7f:
			switch mode {
			case "striphigh":
			case "encodehigh":
				writeNumericRef(&b, r)
			default:
				b.WriteRune(r)
			}
		case strings.ContainsRune(`'"<>&`, r):
			writeNumericRef(&b, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func encodeRunes(data string, match func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, r := range data {
		if match(r) {
			writeNumericRef(&b, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
