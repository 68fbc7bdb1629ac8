package normalize

import (
	"regexp"
	"strings"
)

// rutPattern accepts a RUT body either as dot-grouped digit triplets
// ("12.345.678") or as a bare 7-8 digit run, always followed by a hyphen
// and the verification character.
var rutPattern = regexp.MustCompile(`^(\d{1,3}(?:\.\d{3}){0,2}|\d{7,8})-[0-9Kk]$`)

// RUT validates a Chilean RUT (Rol Único Tributario) and returns it
// reformatted. The input must include the hyphen before the verification
// digit; dots are optional. The verification digit is recomputed with the
// modulo-11 algorithm and compared case-insensitively.
//
// When withDots is true the returned body is grouped with dots
// ("12.345.678-5"); otherwise dots are stripped ("12345678-5").
// Invalid input returns ("", false).
func RUT(raw string, withDots bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	if !rutPattern.MatchString(raw) {
		return "", false
	}

	cleaned := strings.ToUpper(strings.NewReplacer(".", "", "-", "").Replace(raw))
	if len(cleaned) < 8 || len(cleaned) > 9 {
		return "", false
	}

	body := cleaned[:len(cleaned)-1]
	dv := cleaned[len(cleaned)-1:]

	if ComputeDV(body) != dv {
		return "", false
	}

	return formatRUTBody(body, withDots) + "-" + dv, true
}

// ComputeDV computes the modulo-11 verification digit for a RUT body.
// Digits are weighted 2..7 cycling from the least significant position;
// remainder 11 maps to "0" and 10 to "K".
func ComputeDV(body string) string {
	sum := 0
	multiplier := 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * multiplier
		if multiplier == 7 {
			multiplier = 2
		} else {
			multiplier++
		}
	}

	switch dv := 11 - (sum % 11); dv {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return string(rune('0' + dv))
	}
}

func formatRUTBody(body string, withDots bool) string {
	if !withDots {
		return body
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		b.WriteByte(body[i])
		rest := len(body) - 1 - i
		if rest != 0 && rest%3 == 0 {
			b.WriteByte('.')
		}
	}
	return b.String()
}
