package validator

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
)

// Validator wraps the struct validator with the service's custom tags and
// the question record checks.
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a validator with all custom tags registered once.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates s and converts failures into ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			return ToValidationErrors(err)
		}
		return err
	}
	return nil
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("nav_action", validateNavAction)
	validate.RegisterValidation("option_letter", validateOptionLetter)
	validate.RegisterValidation("module_number", validateModuleNumber)

	// Report json names in errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	switch models.QuestionType(fl.Field().String()) {
	case models.QuestionTypeMultipleChoice, models.QuestionTypeUserInput:
		return true
	}
	return false
}

// Navigation actions accepted by the navigate endpoint.
const (
	NavNext = "next"
	NavPrev = "prev"
	NavGoTo = "goto"
)

func validateNavAction(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case NavNext, NavPrev, NavGoTo:
		return true
	}
	return false
}

func validateOptionLetter(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if len(value) != 1 {
		return false
	}
	r := rune(value[0])
	return r < unicode.MaxASCII && unicode.IsLetter(r)
}

// validateModuleNumber accepts any positive module number. Modules past the
// fourth are scored as math.
func validateModuleNumber(fl validator.FieldLevel) bool {
	return fl.Field().Int() >= 1
}
