package followup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_TwoPairs(t *testing.T) {
	text := "- Question: What is the object?\n" +
		"  Answer: A cup.\n" +
		"- Question: What color is it?\n" +
		"  Answer: White.\n"

	got := Parse(text)
	assert.Equal(t, []Pair{
		{Question: "What is the object?", Answer: "A cup."},
		{Question: "What color is it?", Answer: "White."},
	}, got)
}

func TestParser_ConsecutiveQuestions(t *testing.T) {
	var p Parser

	_, ok := p.Feed("Question: A?")
	assert.False(t, ok)
	_, ok = p.Feed("Question: B?")
	assert.False(t, ok)

	pending, ok := p.Pending()
	require.True(t, ok)
	assert.Equal(t, "B?", pending)

	assert.Empty(t, Parse("Question: A?\nQuestion: B?"))
}

func TestParser_OrphanAnswer(t *testing.T) {
	var p Parser
	_, ok := p.Feed("Answer: X")
	assert.False(t, ok)

	_, ok = p.Pending()
	assert.False(t, ok)

	assert.Empty(t, Parse("Answer: X"))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Pair
	}{
		{
			name: "empty",
			text: "",
			want: []Pair{},
		},
		{
			name: "case insensitive prefixes",
			text: "QUESTION: Loud?\nanswer: Quiet.",
			want: []Pair{{Question: "Loud?", Answer: "Quiet."}},
		},
		{
			name: "star markers and CRLF",
			text: "* Question: Q1?\r\n* Answer: A1.\r\n",
			want: []Pair{{Question: "Q1?", Answer: "A1."}},
		},
		{
			name: "blank lines and commentary ignored",
			text: "Here are your questions:\n\n- Question: Q1?\n\n  Answer: A1.\nHope this helps!",
			want: []Pair{{Question: "Q1?", Answer: "A1."}},
		},
		{
			name: "trailing question discarded",
			text: "Question: Q1?\nAnswer: A1.\nQuestion: Q2?",
			want: []Pair{{Question: "Q1?", Answer: "A1."}},
		},
		{
			name: "first of two questions overwritten",
			text: "Question: A?\nQuestion: B?\nAnswer: C.",
			want: []Pair{{Question: "B?", Answer: "C."}},
		},
		{
			name: "second answer without question dropped",
			text: "Question: Q?\nAnswer: one\nAnswer: two",
			want: []Pair{{Question: "Q?", Answer: "one"}},
		},
		{
			name: "more than three pairs accepted",
			text: "Q: no\nQuestion: 1\nAnswer: a\nQuestion: 2\nAnswer: b\nQuestion: 3\nAnswer: c\nQuestion: 4\nAnswer: d",
			want: []Pair{
				{Question: "1", Answer: "a"},
				{Question: "2", Answer: "b"},
				{Question: "3", Answer: "c"},
				{Question: "4", Answer: "d"},
			},
		},
		{
			name: "empty remainders kept",
			text: "Question:\nAnswer:",
			want: []Pair{{Question: "", Answer: ""}},
		},
		{
			name: "prefix must start the line",
			text: "The Question: is this?\nThe Answer: no",
			want: []Pair{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_Reset(t *testing.T) {
	var p Parser
	p.Feed("Question: stale?")
	p.Reset()

	_, ok := p.Feed("Answer: fresh")
	assert.False(t, ok)
}
