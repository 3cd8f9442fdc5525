// Package joincode generates and validates the human-typed codes students
// use to enter a live session. Codes are 9 symbols grouped XXX-XXX-XXX,
// drawn from an alphabet that drops the visually confusable characters
// 0, O, I, 1 and L.
package joincode

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

// Alphabet is the symbol set codes are drawn from: A-Z minus I, L, O plus
// the digits 2-9.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

var codePattern = regexp.MustCompile(`^[A-HJ-KM-NP-Z2-9]{3}-[A-HJ-KM-NP-Z2-9]{3}-[A-HJ-KM-NP-Z2-9]{3}$`)

// Generate returns a fresh candidate join code in canonical form. It draws
// uniformly at random and performs no I/O beyond the system's entropy
// source; uniqueness against live sessions is the caller's concern.
func Generate() (string, error) {
	// Bytes at or above limit are discarded so the modulo below stays
	// uniform over the alphabet.
	const limit = 256 - 256%len(Alphabet)

	code := make([]byte, 0, 9)
	buf := make([]byte, 16)
	for len(code) < 9 {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit || len(code) == 9 {
				continue
			}
			code = append(code, Alphabet[int(b)%len(Alphabet)])
		}
	}
	return string(code[0:3]) + "-" + string(code[3:6]) + "-" + string(code[6:9]), nil
}

// IsValidFormat reports whether s is a syntactically valid join code. The
// check is case-insensitive and tolerates surrounding whitespace, so it can
// run on raw user input before any store lookup.
func IsValidFormat(s string) bool {
	return codePattern.MatchString(Canonicalize(s))
}

// Canonicalize trims and uppercases raw input into the stored form.
func Canonicalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
