package spotify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapAuraToAudioFeatures(t *testing.T) {
	t.Run("gold fire is high energy", func(t *testing.T) {
		features := MapAuraToAudioFeatures("Gold", "Fire", 90)
		require.Equal(t, []string{"rock", "electronic", "latin"}, features.Genres)
		require.InDelta(t, 0.9, features.Energy, 0.001)
		require.InDelta(t, 0.9, features.Valence, 0.001)
	})

	t.Run("blue water is subdued", func(t *testing.T) {
		features := MapAuraToAudioFeatures("Blue", "Water", 60)
		require.Equal(t, []string{"ambient", "chill", "indie"}, features.Genres)
		require.LessOrEqual(t, features.Energy, 0.4)
		require.GreaterOrEqual(t, features.Energy, 0.1)
	})

	t.Run("element genres win over color genres", func(t *testing.T) {
		features := MapAuraToAudioFeatures("Pink", "Spirit", 75)
		require.Equal(t, []string{"world-music", "new-age", "ambient"}, features.Genres)
	})

	t.Run("unknown color and element keep defaults", func(t *testing.T) {
		features := MapAuraToAudioFeatures("Octarine", "Void", 50)
		require.Equal(t, []string{"pop"}, features.Genres)
		require.InDelta(t, 0.5, features.Valence, 0.001)
		require.InDelta(t, 0.5, features.Danceability, 0.001)
	})

	t.Run("features stay inside the clamp range", func(t *testing.T) {
		low := MapAuraToAudioFeatures("Blue", "Water", 0)
		require.GreaterOrEqual(t, low.Valence, 0.1)
		require.GreaterOrEqual(t, low.Energy, 0.1)

		high := MapAuraToAudioFeatures("Red", "Fire", 100)
		require.LessOrEqual(t, high.Energy, 0.9)
		require.LessOrEqual(t, high.Danceability, 0.9)
	})

	t.Run("case insensitive", func(t *testing.T) {
		require.Equal(t,
			MapAuraToAudioFeatures("PURPLE", "AIR", 70),
			MapAuraToAudioFeatures("purple", "air", 70))
	})
}
