package format

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeEscapes_NoBackslashIsIdentity(t *testing.T) {
	for _, s := range []string{"", "abc", "%s-%d", "tab\there", "ünïcödé", "100%%"} {
		assert.Equal(t, s, DecodeEscapes(s))
	}
}

func TestDecodeEscapes_SingleLetter(t *testing.T) {
	tests := map[string]string{
		`\a`:      "\a",
		`\b`:      "\b",
		`\f`:      "\f",
		`\n`:      "\n",
		`\r`:      "\r",
		`\t`:      "\t",
		`\v`:      "\v",
		`\\`:      `\`,
		`\?`:      "?",
		`\'`:      "'",
		`\"`:      `"`,
		`%s\n`:    "%s\n",
		`a\tb\tc`: "a\tb\tc",
		`\\n`:     `\n`,
	}
	for in, want := range tests {
		assert.Equal(t, want, DecodeEscapes(in), "input %q", in)
	}
}

func TestDecodeEscapes_Hex(t *testing.T) {
	for v := 0; v < 256; v++ {
		lower := fmt.Sprintf(`\x%02x`, v)
		upper := fmt.Sprintf(`\x%02X`, v)
		// The escape needs two characters after the x, so pad the tail.
		assert.Equal(t, string([]byte{byte(v), '!'}), DecodeEscapes(lower+"!"), lower)
		assert.Equal(t, string([]byte{byte(v), '!'}), DecodeEscapes(upper+"!"), upper)
	}
}

func TestDecodeEscapes_Octal(t *testing.T) {
	for a := 1; a <= 9; a++ {
		for b := 0; b <= 9; b++ {
			for c := 0; c <= 9; c++ {
				in := fmt.Sprintf(`\%d%d%d.`, a, b, c)
				want := string([]byte{byte(a*64 + b*8 + c), '.'})
				assert.Equal(t, want, DecodeEscapes(in), in)
			}
		}
	}
	assert.Equal(t, "\n.", DecodeEscapes(`\012.`))
}

func TestDecodeEscapes_ZeroTruncates(t *testing.T) {
	assert.Equal(t, "ab", DecodeEscapes(`ab\0`))
	assert.Equal(t, "ab", DecodeEscapes(`ab\0cd\n`))
	assert.Equal(t, "", DecodeEscapes(`\0%s`))
}

// Numeric escapes of zero keep a NUL byte; only a bare \0 truncates.
func TestDecodeEscapes_NumericZeroKeepsNUL(t *testing.T) {
	assert.Equal(t, "a\x00b", DecodeEscapes(`a\x00b`))
	assert.Equal(t, "a\x00b", DecodeEscapes(`a\000b`))
	assert.Equal(t, "a", DecodeEscapes(`a\0b`))
	assert.Equal(t, "[alice]\x00", render([]string{`[%s]\x00`, "Owner"}, 1))
}

func TestDecodeEscapes_FallsThrough(t *testing.T) {
	tests := map[string]string{
		`\q`:       `\q`,
		`a\zb`:     `a\zb`,
		`\x4`:      `\x4`,
		`\xZZ!`:    `\xZZ!`,
		`\x4G!`:    `\x4G!`,
		`\12`:      `\12`,
		`\1a2`:     `\1a2`,
		`trail\`:   `trail\`,
		`\q\t`:     "\\q\t",
		`%d\x41\q`: `%dA\q`,
	}
	for in, want := range tests {
		assert.Equal(t, want, DecodeEscapes(in), "input %q", in)
	}
}

func TestDecodeEscapes_IdempotentOnDecoded(t *testing.T) {
	for _, in := range []string{`%s\n`, `\tOwner=%s\r\n`, `\x41\102C`} {
		once := DecodeEscapes(in)
		assert.Equal(t, once, DecodeEscapes(once), in)
	}
}
