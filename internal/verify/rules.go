// Package verify holds the pure validation rules for the identity
// verification dialogue. Every rule is a function of (input, student record)
// only; none of them touch the repository or the session.
package verify

import (
	"strings"
	"unicode"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
	appErrors "github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/errors"
)

const prnLength = 8

// NormalizePRN trims the raw input, maps any Unicode decimal digits to their
// ASCII equivalents and verifies the result is exactly 8 ASCII digits.
func NormalizePRN(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		if d := digitValue(r); d >= 0 {
			b.WriteByte(byte('0' + d))
			continue
		}
		b.WriteRune(r)
	}
	prn := b.String()

	if len(prn) != prnLength || !allASCIIDigits(prn) {
		return "", appErrors.ErrMalformedPRN
	}
	return prn, nil
}

// MatchName compares the submitted full name against the canonical record
// name, ignoring case and surrounding whitespace. On mismatch the returned
// error echoes the canonical name so the requester can correct formatting;
// the requester already passed the PRN lookup, so this leaks nothing new.
func MatchName(input string, record *models.StudentRecord) error {
	submitted := strings.ToUpper(strings.TrimSpace(input))
	canonical := strings.ToUpper(strings.TrimSpace(record.FullName))
	if submitted != canonical {
		return appErrors.Clone(appErrors.ErrNameMismatch,
			"name does not match database record ("+canonical+")")
	}
	return nil
}

// MatchPhone compares the submitted phone number against the registered one.
// The comparison is exact: no normalisation beyond trimming the input, so a
// missing or extra leading zero is a mismatch.
func MatchPhone(input string, record *models.StudentRecord) error {
	if strings.TrimSpace(input) != record.Phone {
		return appErrors.ErrPhoneMismatch
	}
	return nil
}

// digitValue returns the numeric value of any Unicode decimal digit, or -1.
// Each Nd range starts on a zero digit and spans a multiple of ten code
// points, so the value is the offset from the range start modulo ten. Some
// ranges pack several zero-to-nine runs (the mathematical digits span fifty
// code points in one range).
func digitValue(r rune) int {
	if r >= '0' && r <= '9' {
		return int(r - '0')
	}
	if !unicode.Is(unicode.Nd, r) {
		return -1
	}
	if lo, ok := ndRangeStart(r); ok {
		return int(r-lo) % 10
	}
	return -1
}

func ndRangeStart(r rune) (rune, bool) {
	for _, rng := range unicode.Nd.R16 {
		if r < rune(rng.Lo) {
			break
		}
		if r <= rune(rng.Hi) {
			return rune(rng.Lo), true
		}
	}
	for _, rng := range unicode.Nd.R32 {
		if r < rune(rng.Lo) {
			break
		}
		if r <= rune(rng.Hi) {
			return rune(rng.Lo), true
		}
	}
	return 0, false
}

func allASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
