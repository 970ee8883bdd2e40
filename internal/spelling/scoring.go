package spelling

import (
	"math"
	"math/rand/v2"
	"strings"
)

// Stats counts every answer event of a history.
type Stats struct {
	Total       int `json:"total"`
	Correct     int `json:"correct"`
	Incorrect   int `json:"incorrect"`
	AccuracyPct int `json:"accuracy"`
}

// normalizeSpelling trims, lowercases and collapses whitespace runs to a single space.
func normalizeSpelling(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// CheckSpelling reports whether userAnswer spells correctWord.
// This is the only correctness rule; an empty string on either side never matches.
func CheckSpelling(userAnswer, correctWord string) bool {
	if userAnswer == "" || correctWord == "" {
		return false
	}
	return normalizeSpelling(userAnswer) == normalizeSpelling(correctWord)
}

// LatestAnswers maps each word ID to its most recent answer.
func LatestAnswers(answers []Answer) map[int]Answer {
	latest := make(map[int]Answer, len(answers))
	for _, answer := range answers {
		latest[answer.WordID] = answer
	}
	return latest
}

// AnswerForWord returns the first recorded answer for wordID.
func AnswerForWord(answers []Answer, wordID int) (Answer, bool) {
	for _, answer := range answers {
		if answer.WordID == wordID {
			return answer, true
		}
	}
	return Answer{}, false
}

// pendingIndices returns the indices of words which are unanswered or whose latest answer is wrong.
func pendingIndices(words []Word, answers []Answer) []int {
	latest := LatestAnswers(answers)
	var indices []int
	for i, word := range words {
		answer, ok := latest[word.ID]
		if !ok || !answer.IsCorrect {
			indices = append(indices, i)
		}
	}
	return indices
}

// IsSessionComplete reports whether the latest answer of every word is correct.
func IsSessionComplete(words []Word, answers []Answer) bool {
	return len(pendingIndices(words, answers)) == 0
}

func CalculateStats(answers []Answer) Stats {
	total := len(answers)
	correct := 0
	for _, answer := range answers {
		if answer.IsCorrect {
			correct++
		}
	}
	return Stats{
		Total:       total,
		Correct:     correct,
		Incorrect:   total - correct,
		AccuracyPct: Percentage(correct, total),
	}
}

// Percentage returns round(100*part/whole), or 0 when whole is 0.
func Percentage(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}

// CalculateProgress returns the position of currentIndex in percent.
func CalculateProgress(currentIndex, totalWords int) int {
	if totalWords == 0 {
		return 0
	}
	return Percentage(currentIndex+1, totalWords)
}

func UnansweredWords(words []Word, answers []Answer) []Word {
	answered := make(map[int]struct{}, len(answers))
	for _, answer := range answers {
		answered[answer.WordID] = struct{}{}
	}
	var result []Word
	for _, word := range words {
		if _, ok := answered[word.ID]; !ok {
			result = append(result, word)
		}
	}
	return result
}

// IncorrectWords returns the words which were answered wrong at least once.
func IncorrectWords(words []Word, answers []Answer) []Word {
	missed := make(map[int]struct{})
	for _, answer := range answers {
		if !answer.IsCorrect {
			missed[answer.WordID] = struct{}{}
		}
	}
	var result []Word
	for _, word := range words {
		if _, ok := missed[word.ID]; ok {
			result = append(result, word)
		}
	}
	return result
}

func WordCount(start, end int) int {
	return max(0, end-start+1)
}

// Selector picks questions. The zero value is not usable; use NewSelector or DefaultSelector.
type Selector struct {
	intN func(n int) int
}

// DefaultSelector draws from the global math/rand/v2 source.
var DefaultSelector = Selector{intN: rand.IntN}

// NewSelector returns a Selector drawing from r, which makes selection reproducible in tests.
func NewSelector(r *rand.Rand) Selector {
	return Selector{intN: r.IntN}
}

// NextWordIndex picks uniformly at random among the words not yet mastered.
// ok is false when every word's latest answer is correct, i.e. the session is complete.
func (s Selector) NextWordIndex(words []Word, answers []Answer) (index int, ok bool) {
	pending := pendingIndices(words, answers)
	if len(pending) == 0 {
		return 0, false
	}
	return pending[s.intN(len(pending))], true
}

// InitialWordIndex picks the first question of a freshly loaded session.
func (s Selector) InitialWordIndex(wordCount int) int {
	if wordCount <= 0 {
		return 0
	}
	return s.intN(wordCount)
}

// ShuffleWords returns a shuffled copy of words.
func (s Selector) ShuffleWords(words []Word) []Word {
	shuffled := make([]Word, len(words))
	copy(shuffled, words)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.intN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// NextWordIndex is DefaultSelector.NextWordIndex.
func NextWordIndex(words []Word, answers []Answer) (int, bool) {
	return DefaultSelector.NextWordIndex(words, answers)
}

func InitialWordIndex(wordCount int) int {
	return DefaultSelector.InitialWordIndex(wordCount)
}
