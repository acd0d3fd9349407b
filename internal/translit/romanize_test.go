package translit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRomanizer_Hangul(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "family name", input: "김", expected: "gim"},
		{name: "full name", input: "김현종", expected: "gimhyeonjong"},
		{name: "reordered", input: "현종김", expected: "hyeonjonggim"},
		{name: "silent initial", input: "이순신", expected: "isunsin"},
		{name: "spaced", input: "박 지성", expected: "bak jiseong"},
		{name: "latin untouched", input: "Kim 현종", expected: "Kim hyeonjong"},
		{name: "empty", input: "", expected: ""},
	}

	r := New()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, r.Romanize(tt.input))
		})
	}
}

func TestRomanizer_Romanize(t *testing.T) {
	t.Parallel()

	r := New()

	assert.Equal(t, "gimhyeonjong", r.Romanize("김현종"))
	assert.Equal(t, "gim hyeonjong", r.Romanize("  김   현종 "))
	assert.Equal(t, "Kim Hyun Jong", r.Romanize("Kim Hyun Jong"))
	assert.Equal(t, "", r.Romanize(""))
}

func TestRomanizer_NonHangulProducesASCII(t *testing.T) {
	t.Parallel()

	r := New()

	for _, input := range []string{"山田太郎", "Trần Minh Hùng", "Иван Петров"} {
		out := r.Romanize(input)
		assert.NotEmpty(t, out, input)
		for _, ch := range out {
			assert.Less(t, ch, rune(128), "non-ASCII rune in %q", out)
		}
	}
}

func TestIsHangulSyllable(t *testing.T) {
	t.Parallel()

	assert.True(t, isHangulSyllable('가'))
	assert.True(t, isHangulSyllable('힣'))
	assert.False(t, isHangulSyllable('ㄱ'))
	assert.False(t, isHangulSyllable('a'))
	assert.False(t, isHangulSyllable('山'))
}
