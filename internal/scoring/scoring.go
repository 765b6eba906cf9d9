// Package scoring converts per-question outcomes into SAT-style scores.
package scoring

import "math"

const (
	sectionFloor = 200
	sectionRange = 600
)

type Section string

const (
	SectionReadingWriting Section = "reading_writing"
	SectionMath           Section = "math"
)

// SectionFor maps a module number onto its section: modules 1-2 are
// reading and writing, everything after is math.
func SectionFor(moduleNumber int) Section {
	if moduleNumber <= 2 {
		return SectionReadingWriting
	}
	return SectionMath
}

type Outcome struct {
	IsCorrect    bool
	ModuleNumber int
}

type Summary struct {
	OverallScore   int `json:"overall_score"`
	ReadingWriting int `json:"reading_writing"`
	Math           int `json:"math"`
	CorrectAnswers int `json:"correct_answers"`
	TotalQuestions int `json:"total_questions"`
}

type tally struct {
	correct int
	total   int
}

// Score computes the overall accuracy and the scaled section scores.
// An empty denominator is treated as 1, so empty sections score 200 and an
// empty exam scores 0 overall.
func Score(outcomes []Outcome) Summary {
	var overall tally
	sections := map[Section]*tally{
		SectionReadingWriting: {},
		SectionMath:           {},
	}

	for _, o := range outcomes {
		t := sections[SectionFor(o.ModuleNumber)]
		t.total++
		overall.total++
		if o.IsCorrect {
			t.correct++
			overall.correct++
		}
	}

	return Summary{
		OverallScore:   round(100 * float64(overall.correct) / float64(denominator(overall.total))),
		ReadingWriting: ScaledSectionScore(sections[SectionReadingWriting].correct, sections[SectionReadingWriting].total),
		Math:           ScaledSectionScore(sections[SectionMath].correct, sections[SectionMath].total),
		CorrectAnswers: overall.correct,
		TotalQuestions: overall.total,
	}
}

// ScaledSectionScore returns round((200 + 600*correct/total) / 10) * 10.
func ScaledSectionScore(correct, total int) int {
	ratio := float64(correct) / float64(denominator(total))
	return round((sectionFloor+sectionRange*ratio)/10) * 10
}

func denominator(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

// round rounds halves up, matching the score tables users already see.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
