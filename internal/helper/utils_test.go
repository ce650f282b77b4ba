package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID(t *testing.T) {
	id, err := GenerateUUID()
	require.NoError(t, err)
	assert.True(t, ValidUUID(id))
	assert.False(t, ValidUUID("not-a-uuid"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", TruncateRunes("héllo", 4))
	assert.Equal(t, "hi", TruncateRunes("hi", 10))
	assert.Equal(t, "", TruncateRunes("hi", 0))
}

func TestSplitRunes(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, SplitRunes("abcdefg", 3))
	assert.Nil(t, SplitRunes("", 3))
	assert.Equal(t, []string{"äö", "ü"}, SplitRunes("äöü", 2))
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords("   "))
	assert.Equal(t, 3, CountWords(" one two\nthree "))
}
