package assignment

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/chuoapp/chuo/core"
)

var (
	dueDateTag  = "duedate"
	dueDateText = "must be a calendar date in YYYY-MM-DD format"

	dueTimeTag  = "duetime"
	dueTimeText = "must be a time of day in HH:MM format"

	priorityTag  = "priority"
	priorityText = "must be one of: low, medium, high, urgent"

	openStatusTag  = "openstatus"
	openStatusText = "must be one of: pending, in_progress"
)

// InitValidators registers the assignment validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(dueDateTag, dueDateValidation)
	core.RegisterCustomTranslation(validate, translator, dueDateTag, dueDateText)

	_ = validate.RegisterValidation(dueTimeTag, dueTimeValidation)
	core.RegisterCustomTranslation(validate, translator, dueTimeTag, dueTimeText)

	_ = validate.RegisterValidation(priorityTag, priorityValidation)
	core.RegisterCustomTranslation(validate, translator, priorityTag, priorityText)

	_ = validate.RegisterValidation(openStatusTag, openStatusValidation)
	core.RegisterCustomTranslation(validate, translator, openStatusTag, openStatusText)
}

// Custom Validators

func dueDateValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(dueDateLayout, fl.Field().String())
	return err == nil
}

func dueTimeValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(dueTimeLayout, fl.Field().String())
	return err == nil
}

func priorityValidation(fl validator.FieldLevel) bool {
	return Priority(fl.Field().String()).IsValid()
}

// openStatusValidation allows the statuses an update may set directly;
// completed is only reachable through ToggleStatus.
func openStatusValidation(fl validator.FieldLevel) bool {
	switch Status(fl.Field().String()) {
	case StatusPending, StatusInProgress:
		return true
	}
	return false
}
