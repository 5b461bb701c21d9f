package service

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrImageGeneration = errors.New("image generation error")
	ErrBlobStorage     = errors.New("blob storage error")
	ErrPersistence     = errors.New("persistence error")
	ErrQuery           = errors.New("query error")
)

// ValidationError carries a message that is safe to return to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
