package domain

import "errors"

var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrRecordNotFound        = errors.New("record not found")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrConflict              = errors.New("conflict")
	ErrRateNotFound          = errors.New("rate not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrWebhookSecretMismatch = errors.New("webhook secret mismatch")
)
