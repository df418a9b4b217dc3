package devservice

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/bcdh/teicompleter/internal/suggestion"
)

// Content generation constants.
const (
	minGlossWords     = 3
	maxExtraGloss     = 6    // 3-8 words total
	markupProbability = 0.25 // descriptions carrying inline markup
)

// Parts of speech paired with the faker producing matching headwords.
var partsOfSpeech = []struct {
	abbr string
	word func(*gofakeit.Faker) string
}{
	{"n.", (*gofakeit.Faker).Noun},
	{"v.", (*gofakeit.Faker).Verb},
	{"adj.", (*gofakeit.Faker).Adjective},
	{"adv.", (*gofakeit.Faker).Adverb},
}

// generateLexicon creates up to size unique headwords, sorted alphabetically.
// Some descriptions carry HTML markup and entities, as real lexicon services
// tend to return.
func generateLexicon(faker *gofakeit.Faker, size int) []suggestion.Suggestion {
	seen := make(map[string]bool, size)
	out := make([]suggestion.Suggestion, 0, size)
	for range size {
		pos := partsOfSpeech[faker.IntN(len(partsOfSpeech))]
		headword := pos.word(faker)
		if seen[headword] {
			continue
		}
		seen[headword] = true
		out = append(out, suggestion.Suggestion{
			Value:       headword,
			Description: generateGloss(faker, pos.abbr),
		})
	}
	slices.SortFunc(out, func(a, b suggestion.Suggestion) int {
		return cmp.Compare(a.Value, b.Value)
	})
	return out
}

func generateGloss(faker *gofakeit.Faker, abbr string) string {
	gloss := faker.Sentence(minGlossWords + faker.IntN(maxExtraGloss))
	if faker.Float64() < markupProbability {
		return fmt.Sprintf("<i>%s</i>&nbsp;%s", abbr, gloss)
	}
	return abbr + " " + gloss
}
