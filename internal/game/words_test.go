package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordBankPick(t *testing.T) {
	t.Parallel()
	bank := DefaultWordBank()
	rng := rand.New(rand.NewSource(7))

	t.Run("picked words belong to their category", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			category, word := bank.Pick(rng, "en")
			require.NotEmpty(t, category)
			require.NotEmpty(t, word)

			var cat *WordCategory
			for j := range bank.byLang["en"] {
				if bank.byLang["en"][j].Name == category {
					cat = &bank.byLang["en"][j]
				}
			}
			require.NotNil(t, cat)
			assert.Contains(t, cat.Words, word)
		}
	})

	t.Run("unknown languages fall back to english", func(t *testing.T) {
		category, _ := bank.Pick(rng, "xx")
		names := make([]string, 0)
		for _, c := range bank.byLang["en"] {
			names = append(names, c.Name)
		}
		assert.Contains(t, names, category)
	})

	t.Run("german is served natively", func(t *testing.T) {
		category, _ := bank.Pick(rng, "de")
		names := make([]string, 0)
		for _, c := range bank.byLang["de"] {
			names = append(names, c.Name)
		}
		assert.Contains(t, names, category)
	})
}

func TestWordBankLanguages(t *testing.T) {
	t.Parallel()
	langs := DefaultWordBank().Languages()
	assert.ElementsMatch(t, []string{"en", "de"}, langs)
}
