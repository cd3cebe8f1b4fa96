package services

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrMessageNotFound = errors.New("message not found")
)
