package service

import (
	"errors"

	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

// storageError passes typed repository errors through unchanged and wraps
// anything else as an internal error with message.
func storageError(err error, message string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
