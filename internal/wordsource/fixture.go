package wordsource

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
)

// maxFixtureWords caps how many words a single offline request returns.
const maxFixtureWords = 101

//go:embed fixtures/words.yml
var fixtureWordsYAML []byte

// FixtureSource serves generated words without any network access.
// Words cycle through a small embedded list; IDs beyond the list get the ID appended to keep them unique.
type FixtureSource struct {
	base []spelling.Word
}

func NewFixtureSource() (*FixtureSource, error) {
	var base []spelling.Word
	if err := yaml.Unmarshal(fixtureWordsYAML, &base); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal > %w", err)
	}
	if len(base) == 0 {
		return nil, fmt.Errorf("no fixture words are embedded")
	}
	return &FixtureSource{base: base}, nil
}

func (source *FixtureSource) FetchWords(ctx context.Context, start, end int) ([]spelling.Word, error) {
	if err := spelling.ValidateRange(start, end); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, classifyTransportError(err)
	}

	words := make([]spelling.Word, 0, min(end-start+1, maxFixtureWords))
	for id := start; id <= end && id < start+maxFixtureWords; id++ {
		base := source.base[(id-1)%len(source.base)]
		word := base.Word
		if id > len(source.base) {
			word += strconv.Itoa(id)
		}
		words = append(words, spelling.Word{
			ID:              id,
			Word:            word,
			PartOfSpeech:    base.PartOfSpeech,
			Pronunciation:   base.Pronunciation,
			Meaning:         base.Meaning,
			ExampleSentence: fmt.Sprintf("This is an example sentence for %s.", base.Word),
		})
	}
	return words, nil
}
