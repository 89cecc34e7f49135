package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnyTermQuery(t *testing.T) {
	t.Run("terms from title and description are OR-joined", func(t *testing.T) {
		got := anyTermQuery("Projector broken", "it flickers")
		assert.Equal(t, "Projector OR broken OR it OR flickers", got)
	})

	t.Run("extra whitespace is collapsed", func(t *testing.T) {
		got := anyTermQuery("  broken   projector ", "")
		assert.Equal(t, "broken OR projector", got)
	})

	t.Run("empty draft yields an empty query", func(t *testing.T) {
		assert.Equal(t, "", anyTermQuery("", "  "))
	})
}
