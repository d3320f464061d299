package cohort

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/cohortgen/core"
)

var (
	archetypeTag  = "archetype"
	archetypeText = "{0} must be one of weak, average, strong or mixed"
)

// InitValidators sets up `validate` for the configuration: core validators plus the archetype tag.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.InitValidators(validate, translator)

	_ = validate.RegisterValidation(archetypeTag, archetypeValidation)
	core.RegisterCustomTranslation(validate, translator, archetypeTag, archetypeText)
}

// NewConfigValidator returns a ready-to-use validator and its translator.
func NewConfigValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	InitValidators(validate, translator)
	return validate, translator
}

// archetypeValidation checks that the field is a known archetype tag (aliases included).
func archetypeValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		_, err := ParseKind(str)
		return err == nil
	}
	return false
}
