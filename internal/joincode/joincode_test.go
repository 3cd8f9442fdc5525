package joincode_test

import (
	"strings"
	"testing"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/joincode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_FormatAndAlphabet(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := joincode.Generate()
		require.NoError(t, err)

		assert.Len(t, code, 11, "code should be XXX-XXX-XXX")
		assert.True(t, joincode.IsValidFormat(code), "generated code %q should validate", code)

		for _, forbidden := range []string{"0", "O", "I", "1", "L"} {
			assert.NotContains(t, code, forbidden, "code %q contains confusable character", code)
		}
	}
}

func TestIsValidFormat_AcceptsCanonicalAndLowercase(t *testing.T) {
	assert.True(t, joincode.IsValidFormat("ABC-DEF-234"))
	assert.True(t, joincode.IsValidFormat("abc-def-234"), "input is case-insensitive")
	assert.True(t, joincode.IsValidFormat("  ABC-DEF-234 "), "input is trimmed")
}

func TestIsValidFormat_RejectsMalformedCodes(t *testing.T) {
	cases := map[string]string{
		"wrong grouping":       "AB-CDEF-234",
		"missing hyphens":      "ABCDEF234",
		"too short":            "AB-CDE-234",
		"too long":             "ABCD-DEF-234",
		"forbidden letter O":   "ABC-1O1-XYZ",
		"forbidden letter I":   "ABC-DEF-2I4",
		"forbidden letter L":   "ABL-DEF-234",
		"forbidden digit 0":    "ABC-DEF-230",
		"forbidden digit 1":    "ABC-DEF-231",
		"empty":                "",
		"interior whitespace":  "ABC DEF 234",
		"punctuation alphabet": "AB!-DEF-234",
	}
	for name, input := range cases {
		assert.False(t, joincode.IsValidFormat(input), "%s: %q should be rejected", name, input)
	}
}

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, "ABC-DEF-234", joincode.Canonicalize(" abc-def-234\n"))
}

func TestGenerate_NoObviousRepeats(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code, err := joincode.Generate()
		require.NoError(t, err)
		_, dup := seen[code]
		assert.False(t, dup, "generated duplicate code %q within 1000 draws", code)
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, 1000)
	// sanity: hyphens in fixed positions only
	for code := range seen {
		assert.Equal(t, 2, strings.Count(code, "-"))
	}
}

func TestGenerate_SymbolsRoughlyUniform(t *testing.T) {
	counts := make(map[rune]int, len(joincode.Alphabet))
	const draws = 4000
	for i := 0; i < draws; i++ {
		code, err := joincode.Generate()
		require.NoError(t, err)
		for _, r := range code {
			if r != '-' {
				counts[r]++
			}
		}
	}

	assert.Len(t, counts, len(joincode.Alphabet), "every alphabet symbol should appear")

	// 36000 symbols over 31 buckets averages ~1161 per symbol; a uniform
	// draw stays well inside a 25% band around that.
	mean := float64(draws*9) / float64(len(joincode.Alphabet))
	for symbol, n := range counts {
		assert.InDelta(t, mean, float64(n), mean*0.25, "symbol %q occurs %d times, expected about %.0f", symbol, n, mean)
	}
}
