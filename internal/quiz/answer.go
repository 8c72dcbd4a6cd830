package quiz

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"learnpath/internal/models"
)

// PassThreshold is the platform-wide pass mark, in percent.
const PassThreshold = 50.0

type AnswerKind int

const (
	AnswerMissing AnswerKind = iota
	AnswerIndex
	AnswerText
)

// Answer is either a zero-based choice index or a literal text.
type Answer struct {
	Kind  AnswerKind
	Index int
	Text  string
}

func IndexAnswer(i int) Answer { return Answer{Kind: AnswerIndex, Index: i} }

func TextAnswer(s string) Answer {
	s = strings.TrimSpace(s)
	if s == "" {
		return Answer{}
	}
	return Answer{Kind: AnswerText, Text: s}
}

// ParseStoredAnswer reads the canonical answer of a question. Stored data
// comes in three shapes: a number (choice index), a string, or an object
// with a "text" field. Anything else counts as missing.
func ParseStoredAnswer(raw []byte) Answer {
	v, ok := decode(raw)
	if !ok {
		return Answer{}
	}
	switch t := v.(type) {
	case json.Number:
		if i, ok := asIndex(t); ok {
			return IndexAnswer(i)
		}
		return Answer{}
	case string:
		return TextAnswer(t)
	case map[string]interface{}:
		return objectText(t)
	default:
		return Answer{}
	}
}

// ParseSubmittedAnswer reads what a learner sent. Numbers that can be a
// choice index are indexes; objects contribute their "text"; any other value
// is compared by its JSON text.
func ParseSubmittedAnswer(raw []byte) Answer {
	v, ok := decode(raw)
	if !ok || v == nil {
		return Answer{}
	}
	switch t := v.(type) {
	case json.Number:
		if i, ok := asIndex(t); ok {
			return IndexAnswer(i)
		}
		return TextAnswer(t.String())
	case string:
		return TextAnswer(t)
	case map[string]interface{}:
		return objectText(t)
	default:
		return TextAnswer(string(raw))
	}
}

// normalize reduces an answer to the string that is compared. An index
// resolves to the text of the choice it points at.
func normalize(a Answer, choices []string) string {
	switch a.Kind {
	case AnswerIndex:
		if a.Index >= 0 && a.Index < len(choices) {
			return choices[a.Index]
		}
		return ""
	case AnswerText:
		return a.Text
	default:
		return ""
	}
}

// Matches reports whether submitted is correct for stored. A missing side
// is never correct, even when both are missing.
func Matches(stored, submitted Answer, choices []string) bool {
	if stored.Kind == AnswerMissing || submitted.Kind == AnswerMissing {
		return false
	}
	if stored.Kind == AnswerIndex && submitted.Kind == AnswerIndex && stored.Index == submitted.Index {
		return true
	}
	want := normalize(stored, choices)
	got := normalize(submitted, choices)
	// A number that points at no choice is the learner typing a number.
	if got == "" && submitted.Kind == AnswerIndex {
		got = strconv.Itoa(submitted.Index)
	}
	return want != "" && want == got
}

// Evaluate checks one submitted answer against a question.
func Evaluate(q models.Question, submitted json.RawMessage) bool {
	return Matches(ParseStoredAnswer(q.Answer), ParseSubmittedAnswer(submitted), q.ChoiceTexts())
}

type Result struct {
	CorrectCount   int     `json:"correctCount"`
	TotalQuestions int     `json:"totalQuestions"`
	PercentCorrect float64 `json:"percentCorrect"`
	Passed         bool    `json:"isCorrect"`
}

// Score grades a whole session. total is the number of questions the
// session was built with; a question that can no longer be loaded, or was
// not answered, counts as wrong.
func Score(questions []models.Question, answers map[uint]json.RawMessage, total int) Result {
	res := Result{TotalQuestions: total}
	for _, q := range questions {
		raw, ok := answers[q.ID]
		if ok && Evaluate(q, raw) {
			res.CorrectCount++
		}
	}
	if total > 0 {
		pct := float64(res.CorrectCount) / float64(total) * 100
		res.PercentCorrect = math.Round(pct*100) / 100
		res.Passed = pct >= PassThreshold
	}
	return res
}

func decode(raw []byte) (interface{}, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

func asIndex(n json.Number) (int, bool) {
	f, err := n.Float64()
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func objectText(obj map[string]interface{}) Answer {
	switch t := obj["text"].(type) {
	case string:
		return TextAnswer(t)
	case json.Number:
		return TextAnswer(t.String())
	default:
		return Answer{}
	}
}
