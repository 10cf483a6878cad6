package sessioncontext

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims", "  hello  ", "hello"},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"control chars", "a\x00b\x07c\td", "abc\td"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"empty", "   \n\t ", ""},
		{"cyrillic kept", "Отвечай кратко", "Отвечай кратко"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeTruncatesToMaxLength(t *testing.T) {
	in := strings.Repeat("ж", MaxLength+500)

	out := Sanitize(in)

	assert.Equal(t, MaxLength, utf8.RuneCountInString(out))
	assert.Equal(t, out, Sanitize(out))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "абв", Truncate("абвгд", 3))
}
