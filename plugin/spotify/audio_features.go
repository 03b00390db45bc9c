package spotify

import "strings"

// AudioFeatures are the recommendation targets derived from an aura
// reading.
type AudioFeatures struct {
	Valence      float64
	Energy       float64
	Danceability float64
	Genres       []string
}

// MapAuraToAudioFeatures translates an aura color, element and score into
// audio-feature targets. The score sets the baseline mood; color and
// element then shift it and pick seed genres, element winning when both
// set genres.
func MapAuraToAudioFeatures(color, element string, score int) AudioFeatures {
	normalized := float64(score) / 100

	valence := normalized
	energy := normalized
	danceability := 0.5
	genres := []string{"pop"}

	switch strings.ToLower(color) {
	case "red":
		energy = min(0.9, energy+0.3)
		danceability = min(0.9, danceability+0.2)
		genres = []string{"rock", "pop", "electronic"}
	case "blue":
		valence = max(0.3, valence-0.2)
		energy = max(0.3, energy-0.2)
		genres = []string{"indie", "alternative", "chill"}
	case "purple":
		danceability = min(0.8, danceability+0.1)
		genres = []string{"electronic", "pop", "dance"}
	case "green":
		energy = max(0.4, energy-0.1)
		genres = []string{"indie", "folk", "acoustic"}
	case "gold", "yellow":
		valence = min(0.9, valence+0.2)
		energy = min(0.8, energy+0.1)
		genres = []string{"pop", "funk", "soul"}
	case "pink":
		valence = min(0.9, valence+0.1)
		danceability = min(0.8, danceability+0.2)
		genres = []string{"pop", "r-n-b", "dance"}
	}

	switch strings.ToLower(element) {
	case "fire":
		energy = min(0.9, energy+0.2)
		genres = []string{"rock", "electronic", "latin"}
	case "water":
		valence = max(0.3, valence-0.1)
		energy = max(0.3, energy-0.2)
		genres = []string{"ambient", "chill", "indie"}
	case "earth":
		energy = max(0.4, energy-0.1)
		genres = []string{"folk", "country", "acoustic"}
	case "air":
		danceability = min(0.8, danceability+0.1)
		genres = []string{"electronic", "synthpop", "indie"}
	case "spirit":
		genres = []string{"world-music", "new-age", "ambient"}
	}

	if len(genres) > 3 {
		genres = genres[:3]
	}
	return AudioFeatures{
		Valence:      clampFeature(valence),
		Energy:       clampFeature(energy),
		Danceability: clampFeature(danceability),
		Genres:       genres,
	}
}

func clampFeature(v float64) float64 {
	return max(0.1, min(0.9, v))
}
