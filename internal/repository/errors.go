package repository

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

var validate = validator.New()

// ValidateEntity checks struct tags on an entity before it is written.
func ValidateEntity(entity interface{}) error {
	if err := validate.Struct(entity); err != nil {
		return ValidationError(err)
	}
	return nil
}

// ValidationError converts validator output into ErrValidation naming the
// offending fields.
func ValidationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			"invalid fields: "+strings.Join(fields, ", "))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
}

// NotFound builds ErrNotFound for an entity id.
func NotFound(entity, id string) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", entity, id))
}

// Conflict builds ErrConflict with a message.
func Conflict(message string) error {
	return appErrors.Clone(appErrors.ErrConflict, message)
}

// SessionFull builds ErrSessionFull for a session id.
func SessionFull(sessionID string) error {
	return appErrors.Clone(appErrors.ErrSessionFull, fmt.Sprintf("Class full: session %s has no seats left", sessionID))
}

// InsufficientCredits builds ErrInsufficientCredits for a user id.
func InsufficientCredits(userID string) error {
	return appErrors.Clone(appErrors.ErrInsufficientCredits, fmt.Sprintf("user %s has insufficient package credits", userID))
}

// ValidateWindow checks that a "HH:MM" window is non-empty. Both values are
// zero padded so lexical order equals time order.
func ValidateWindow(start, end string) error {
	if start >= end {
		return Invalid(fmt.Sprintf("start time %s must be before end time %s", start, end))
	}
	return nil
}

// Invalid builds ErrValidation with a message.
func Invalid(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}
