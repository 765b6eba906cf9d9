package session

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func testNow() time.Time { return fixedNow }

// mcQuestion builds a multiple-choice question whose correct option is A.
func mcQuestion(id string) models.Question {
	raw, _ := json.Marshal("A")
	return models.Question{
		ID:            id,
		Text:          "Question " + id,
		Options:       datatypes.JSONSlice[string]{"alpha", "beta", "gamma", "delta"},
		CorrectAnswer: datatypes.JSON(raw),
		SubcategoryID: "sub-" + id,
	}
}

func testModule(number, questions, seconds int) models.Module {
	m := models.Module{
		ID:               fmt.Sprintf("mod-%d", number),
		ExamID:           "exam-1",
		ModuleNumber:     number,
		Title:            fmt.Sprintf("Module %d", number),
		TimeLimitSeconds: seconds,
	}
	for i := 0; i < questions; i++ {
		m.Questions = append(m.Questions, mcQuestion(fmt.Sprintf("q%d-%d", number, i)))
	}
	return m
}

func satModules() []models.Module {
	return []models.Module{
		testModule(1, 2, 1920),
		testModule(2, 2, 1920),
		testModule(3, 2, 2100),
		testModule(4, 2, 2100),
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = testNow
	opts.NewID = func() string { return "result-1" }
	return opts
}
