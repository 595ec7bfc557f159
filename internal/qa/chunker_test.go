package qa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTextEmpty(t *testing.T) {
	assert.Nil(t, SplitText("", 10, 2))
}

func TestSplitTextShorterThanChunk(t *testing.T) {
	chunks := SplitText("short", 100, 10)
	assert.Equal(t, []string{"short"}, chunks)
}

func TestSplitTextOverlap(t *testing.T) {
	text := "abcdefghij" // 10 runes
	chunks := SplitText(text, 4, 2)

	assert.Equal(t, []string{"abcd", "cdef", "efgh", "ghij"}, chunks)
}

func TestSplitTextNoOverlap(t *testing.T) {
	chunks := SplitText("abcdefghij", 4, 0)
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, chunks)
}

func TestSplitTextMultibyte(t *testing.T) {
	text := strings.Repeat("工伤保险", 3) // 12 runes
	chunks := SplitText(text, 8, 0)

	assert.Len(t, chunks, 2)
	assert.Equal(t, text, chunks[0]+chunks[1])
}

func TestSplitTextInvalidOverlap(t *testing.T) {
	// Overlap >= size would never advance; it is ignored.
	chunks := SplitText("abcdef", 3, 5)
	assert.Equal(t, []string{"abc", "def"}, chunks)
}
