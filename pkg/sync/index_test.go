package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternIndexOrder(t *testing.T) {
	index := NewPatternIndex()
	index.Put("b", "/b")
	index.Put("a", "/a")
	index.Put("c", "/c")

	assert.Equal(t, []string{"b", "a", "c"}, index.Names())
	assert.Equal(t, 3, index.Len())
}

func TestPatternIndexLastWriteWins(t *testing.T) {
	index := NewPatternIndex()
	index.Put("dup", "/first")
	index.Put("other", "/other")
	index.Put("dup", "/second")

	location, ok := index.Get("dup")
	assert.True(t, ok)
	assert.Equal(t, "/second", location)

	// the overwrite keeps the original position
	assert.Equal(t, []string{"dup", "other"}, index.Names())
	assert.Equal(t, 2, index.Len())
}

func TestPatternIndexGetMissing(t *testing.T) {
	index := NewPatternIndex()
	location, ok := index.Get("nope")
	assert.False(t, ok)
	assert.Empty(t, location)
	assert.False(t, index.Has("nope"))
}
