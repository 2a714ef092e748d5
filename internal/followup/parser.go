package followup

import "strings"

// Pair is one generated question with its answer.
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

const (
	questionPrefix = "question:"
	answerPrefix   = "answer:"
)

// Parser pairs "Question:" lines with the "Answer:" line that follows them.
//
// A question waits in a single pending slot. A new question overwrites it, an
// answer with nothing pending is ignored, and a question still pending when
// input ends is never emitted.
type Parser struct {
	pending *string
}

// Feed consumes one line. It returns a pair and true when the line completes
// one.
func (p *Parser) Feed(line string) (Pair, bool) {
	s := strings.TrimLeft(strings.TrimSpace(line), "-* \t")

	if q, ok := cutPrefixFold(s, questionPrefix); ok {
		q = strings.TrimSpace(q)
		p.pending = &q
		return Pair{}, false
	}
	if a, ok := cutPrefixFold(s, answerPrefix); ok {
		if p.pending == nil {
			return Pair{}, false
		}
		pair := Pair{
			Question: *p.pending,
			Answer:   strings.TrimSpace(a),
		}
		p.pending = nil
		return pair, true
	}
	return Pair{}, false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// Pending returns the unmatched question, if any.
func (p *Parser) Pending() (string, bool) {
	if p.pending == nil {
		return "", false
	}
	return *p.pending, true
}

// Reset discards any pending question.
func (p *Parser) Reset() { p.pending = nil }

// Parse runs a fresh parser over every line of text. The result is never nil.
func Parse(text string) []Pair {
	pairs := []Pair{}
	var p Parser

	for _, line := range strings.Split(text, "\n") {
		if pair, ok := p.Feed(line); ok {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}
