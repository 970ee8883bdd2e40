// Package spelling provides the word and answer model of a spelling session
// together with the pure validation, scoring and selection rules.
package spelling

// Word range bounds of the vocabulary book.
const (
	MinWordID = 1
	MaxWordID = 1900
)

// Word is a vocabulary entry as returned by the words API.
type Word struct {
	ID              int    `json:"id" yaml:"id"`
	Word            string `json:"word" yaml:"word"`
	PartOfSpeech    string `json:"part_of_speech" yaml:"part_of_speech"`
	Pronunciation   string `json:"pronunciation" yaml:"pronunciation"`
	Meaning         string `json:"japanese_meaning" yaml:"meaning"`
	ExampleSentence string `json:"example_sentence" yaml:"example_sentence"`
}

// Answer is one submission recorded in the answer history.
// UserAnswer is kept as typed; CorrectWord is the spelling at submission time.
type Answer struct {
	WordID      int    `json:"wordId" yaml:"word_id"`
	UserAnswer  string `json:"userAnswer" yaml:"user_answer"`
	IsCorrect   bool   `json:"isCorrect" yaml:"is_correct"`
	CorrectWord string `json:"correctWord" yaml:"correct_word"`
}

// NewAnswer grades userAnswer against word and returns the resulting history record.
func NewAnswer(word Word, userAnswer string) Answer {
	return Answer{
		WordID:      word.ID,
		UserAnswer:  userAnswer,
		IsCorrect:   CheckSpelling(userAnswer, word.Word),
		CorrectWord: word.Word,
	}
}
