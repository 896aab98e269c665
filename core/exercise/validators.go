package exercise

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kitabiapp/kitabi/core"
)

var (
	exerciseTypeTag  = "exercisetype"
	exerciseTypeText = "invalid exercise type"
)

// RegisterValidators registers this package's custom validators on validate.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(exerciseTypeTag, exerciseTypeValidation)
	core.RegisterCustomTranslation(validate, translator, exerciseTypeTag, exerciseTypeText)
}

func exerciseTypeValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, t := range AllTypes {
		if t == val {
			return true
		}
	}
	return false
}
