package game

import (
	"math/rand"
)

// WordBank holds the category word lists, keyed by language.
type WordBank struct {
	byLang map[string][]WordCategory
}

// WordCategory groups secret-word candidates under a display name.
type WordCategory struct {
	Name  string
	Words []string
}

// DefaultWordBank returns the built-in bank. The impostor card only
// ever shows the category name, and only when the hint option is on.
func DefaultWordBank() *WordBank {
	return &WordBank{byLang: map[string][]WordCategory{
		"en": {
			{Name: "Animals", Words: []string{"elephant", "penguin", "octopus", "giraffe", "hedgehog", "dolphin", "kangaroo", "owl"}},
			{Name: "Food", Words: []string{"pizza", "sushi", "pancake", "burrito", "croissant", "dumpling", "lasagna", "waffle"}},
			{Name: "Places", Words: []string{"airport", "library", "lighthouse", "stadium", "hospital", "casino", "museum", "harbor"}},
			{Name: "Jobs", Words: []string{"firefighter", "dentist", "pilot", "plumber", "magician", "barista", "locksmith", "referee"}},
			{Name: "Objects", Words: []string{"umbrella", "telescope", "typewriter", "compass", "lantern", "anchor", "violin", "hammock"}},
		},
		"de": {
			{Name: "Tiere", Words: []string{"Elefant", "Pinguin", "Oktopus", "Giraffe", "Igel", "Delfin", "Känguru", "Eule"}},
			{Name: "Essen", Words: []string{"Pizza", "Sushi", "Pfannkuchen", "Brezel", "Knödel", "Lasagne", "Waffel", "Currywurst"}},
			{Name: "Orte", Words: []string{"Flughafen", "Bibliothek", "Leuchtturm", "Stadion", "Krankenhaus", "Museum", "Hafen", "Schwimmbad"}},
			{Name: "Berufe", Words: []string{"Feuerwehrmann", "Zahnarzt", "Pilot", "Klempner", "Zauberer", "Barista", "Schiedsrichter", "Bäcker"}},
		},
	}}
}

// Pick selects a category and word for the given language, falling
// back to English for unknown languages.
func (b *WordBank) Pick(rng *rand.Rand, lang string) (category, word string) {
	cats, ok := b.byLang[lang]
	if !ok || len(cats) == 0 {
		cats = b.byLang["en"]
	}
	cat := cats[rng.Intn(len(cats))]
	return cat.Name, cat.Words[rng.Intn(len(cat.Words))]
}

// Languages lists the languages the bank can serve.
func (b *WordBank) Languages() []string {
	langs := make([]string, 0, len(b.byLang))
	for l := range b.byLang {
		langs = append(langs, l)
	}
	return langs
}
