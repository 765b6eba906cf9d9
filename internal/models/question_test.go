package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestQuestion_Evaluate(t *testing.T) {
	options := datatypes.JSONSlice[string]{"alpha", "beta", "gamma", "delta"}

	tests := []struct {
		name        string
		options     datatypes.JSONSlice[string]
		correct     string
		answer      string
		wantCorrect bool
		wantAnswer  string
	}{
		{"letter key", options, `"A"`, "alpha", true, "alpha"},
		{"case insensitive", options, `"A"`, "ALPHA", true, "alpha"},
		{"wrong option", options, `"A"`, "beta", false, "alpha"},
		{"index key", options, `2`, "gamma", true, "gamma"},
		{"literal key", options, `"beta"`, "beta", true, "beta"},
		{"empty answer", options, `"A"`, "  ", false, "alpha"},
		{"letter past options", options, `"E"`, "alpha", false, ""},
		{"index past options", options, `7`, "alpha", false, ""},
		{"unparseable key", options, `{`, "alpha", false, ""},
		{"no key", options, ``, "alpha", false, ""},
		{"fraction equals decimal", nil, `["3/4", ".75"]`, "0.75", true, "3/4"},
		{"spaces ignored", nil, `"3/4"`, "3 / 4", true, "3/4"},
		{"numeric key", nil, `12`, "12.0", true, "12"},
		{"wrong number", nil, `12`, "13", false, "12"},
		{"zero denominator", nil, `"1/0"`, "1/0", true, "1/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{ID: "q1", Options: tt.options}
			if tt.correct != "" {
				q.CorrectAnswer = datatypes.JSON(tt.correct)
			}

			ok, want := q.Evaluate(tt.answer)
			assert.Equal(t, tt.wantCorrect, ok)
			assert.Equal(t, tt.wantAnswer, want)
		})
	}
}

func TestQuestion_Type(t *testing.T) {
	assert.Equal(t, QuestionTypeMultipleChoice, Question{Options: datatypes.JSONSlice[string]{"a"}}.Type())
	assert.Equal(t, QuestionTypeUserInput, Question{}.Type())
	assert.Equal(t, QuestionTypeUserInput, Question{
		Options:      datatypes.JSONSlice[string]{"a"},
		QuestionType: QuestionTypeUserInput,
	}.Type())
}

func TestQuestion_CloneDoesNotShareOptions(t *testing.T) {
	q := Question{Options: datatypes.JSONSlice[string]{"a", "b"}, CorrectAnswer: datatypes.JSON(`"A"`)}
	c := q.Clone()
	c.Options[0] = "changed"
	c.CorrectAnswer[1] = 'B'

	assert.Equal(t, "a", q.Options[0])
	assert.Equal(t, `"A"`, string(q.CorrectAnswer))
}

func TestLedgerSnapshot_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		answers map[int]string
		wantErr bool
	}{
		{
			name:    "array answers skip nulls",
			data:    `{"answers":["alpha",null,"7"],"crossed_out":{"0-B":true},"marked_for_review":[2]}`,
			answers: map[int]string{0: "alpha", 2: "7"},
		},
		{
			name:    "object answers",
			data:    `{"answers":{"1":"beta","3":4}}`,
			answers: map[int]string{1: "beta", 3: "4"},
		},
		{
			name:    "missing answers",
			data:    `{}`,
			answers: map[int]string{},
		},
		{name: "non index key", data: `{"answers":{"x":"beta"}}`, wantErr: true},
		{name: "scalar answers", data: `{"answers":"oops"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s LedgerSnapshot
			err := json.Unmarshal([]byte(tt.data), &s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.answers, s.Answers)
			assert.NotNil(t, s.CrossedOut)
		})
	}
}

func TestLedgerSnapshot_SurvivesMarshal(t *testing.T) {
	in := LedgerSnapshot{
		Answers:         map[int]string{0: "alpha", 5: "3/4"},
		CrossedOut:      map[string]bool{"0-B": true},
		MarkedForReview: []int{5},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out LedgerSnapshot
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}
