package constitution

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/healing-guide-backend/internal/knowledge"
)

// Answer selects one option of one question. A nil OptionIndex means the option was
// missing from the submission and the answer is malformed.
type Answer struct {
	QuestionID  int  `json:"question_id"`
	OptionIndex *int `json:"option_index"`
}

// Pick answers question with option.
func Pick(question, option int) Answer {
	return Answer{QuestionID: question, OptionIndex: &option}
}

// option returns the chosen option of q, or false when the answer does not name one.
func (a Answer) option(q knowledge.Question) (knowledge.Option, bool) {
	if a.OptionIndex == nil || *a.OptionIndex < 0 || *a.OptionIndex >= len(q.Options) {
		return knowledge.Option{}, false
	}
	return q.Options[*a.OptionIndex], true
}

type Scores struct {
	Vata  int `json:"vata"`
	Pitta int `json:"pitta"`
	Kapha int `json:"kapha"`
}

func (s Scores) Of(d knowledge.Dosha) int {
	switch d {
	case knowledge.Vata:
		return s.Vata
	case knowledge.Pitta:
		return s.Pitta
	case knowledge.Kapha:
		return s.Kapha
	}
	return 0
}

func (s Scores) Total() int { return s.Vata + s.Pitta + s.Kapha }

func (s *Scores) add(o knowledge.Option) {
	s.Vata += o.Vata
	s.Pitta += o.Pitta
	s.Kapha += o.Kapha
}

type Result struct {
	Primary   knowledge.Dosha `json:"primary"`
	Secondary knowledge.Dosha `json:"secondary,omitempty"`
	Scores    Scores          `json:"scores"`
	Label     string          `json:"constitution"`
	// Ignored counts answers with an unknown question or a missing or out-of-range option.
	Ignored int `json:"ignored_answers"`
}

// Doshas returns primary then secondary, when present.
func (r Result) Doshas() []knowledge.Dosha {
	if r.Secondary == "" {
		return []knowledge.Dosha{r.Primary}
	}
	return []knowledge.Dosha{r.Primary, r.Secondary}
}

func (r Result) Has(d knowledge.Dosha) bool {
	return d != "" && (r.Primary == d || r.Secondary == d)
}

// Score sums the chosen option weights per dosha. Answers pointing at an unknown question,
// or with a missing or out-of-range option, are skipped and counted in Result.Ignored.
//
// The primary dosha is the highest total, ties resolved in vata, pitta, kapha order. The
// runner-up becomes secondary when it reaches 80% of the primary total, which means an
// all-zero score yields vata-pitta.
func Score(questions []knowledge.Question, answers []Answer) Result {
	byID := indexQuestions(questions)

	var res Result
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			res.Ignored++
			continue
		}
		o, ok := a.option(q)
		if !ok {
			res.Ignored++
			continue
		}
		res.Scores.add(o)
	}

	ranked := knowledge.Doshas
	sort.SliceStable(ranked[:], func(i, j int) bool {
		return res.Scores.Of(ranked[i]) > res.Scores.Of(ranked[j])
	})

	res.Primary = ranked[0]
	top, second := res.Scores.Of(ranked[0]), res.Scores.Of(ranked[1])
	// second >= 0.8 * top, kept in integers
	if second*5 >= top*4 {
		res.Secondary = ranked[1]
	}
	res.Label = Label(res.Primary, res.Secondary)
	return res
}

func Label(primary, secondary knowledge.Dosha) string {
	if secondary == "" {
		return string(primary)
	}
	return string(primary) + "-" + string(secondary)
}

// ParseLabel splits "primary" or "primary-secondary".
func ParseLabel(label string) (primary, secondary knowledge.Dosha, ok bool) {
	head, tail, hasTail := strings.Cut(strings.ToLower(strings.TrimSpace(label)), "-")
	primary, ok = knowledge.ParseDosha(head)
	if !ok {
		return "", "", false
	}
	if !hasTail {
		return primary, "", true
	}
	secondary, ok = knowledge.ParseDosha(tail)
	if !ok || secondary == primary {
		return "", "", false
	}
	return primary, secondary, true
}

var ErrInvalidAnswer = errors.New("invalid answer")

// Validate reports the first answer Score would skip. Score itself never fails; callers
// that want to reject partial submissions check here first.
func Validate(questions []knowledge.Question, answers []Answer) error {
	byID := indexQuestions(questions)
	for i, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return fmt.Errorf("answer %d: unknown question %d: %w", i, a.QuestionID, ErrInvalidAnswer)
		}
		if a.OptionIndex == nil {
			return fmt.Errorf("answer %d: missing option for question %d: %w", i, a.QuestionID, ErrInvalidAnswer)
		}
		if _, ok := a.option(q); !ok {
			return fmt.Errorf("answer %d: option %d out of range for question %d: %w", i, *a.OptionIndex, a.QuestionID, ErrInvalidAnswer)
		}
	}
	return nil
}

func indexQuestions(questions []knowledge.Question) map[int]knowledge.Question {
	byID := make(map[int]knowledge.Question, len(questions))
	for _, q := range questions {
		if _, dup := byID[q.ID]; !dup {
			byID[q.ID] = q
		}
	}
	return byID
}
