package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	t.Run("N entries", func(t *testing.T) {
		parts := []string{"a", "b\n", " c "}
		got := Split(parts[0]+sep+parts[1]+sep+parts[2], sep)
		assert.Equal(t, parts, got, "entries keep order and are not trimmed")
	})

	t.Run("drops blank entries", func(t *testing.T) {
		got := Split(sep+"\n  \n"+sep+"x"+sep+sep, sep)
		assert.Equal(t, []string{"x"}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Split("", sep))
		assert.Empty(t, Split(sep+sep+sep, sep))
	})

	t.Run("default separator", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, Split("a"+sep+"b", ""))
	})

	t.Run("custom separator", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, Split("a---b", "---"))
	})
}
