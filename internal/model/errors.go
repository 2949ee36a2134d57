package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrDeviceIDRequired   = errors.New("device id is required")
	ErrDeviceIDExists     = errors.New("device id already exists")
	ErrDisplayIDTaken     = errors.New("display id already taken")
	ErrDisplayIDExhausted = errors.New("could not allocate a free display id")
	ErrVerificationFailed = errors.New("unable to verify identity")

	// Submission errors
	ErrInvalidScore         = errors.New("invalid score value")
	ErrInvalidLevel         = errors.New("invalid level value")
	ErrInvalidStats         = errors.New("invalid game statistics")
	ErrDuplicateSubmission  = errors.New("duplicate submission")
	ErrVerificationRequired = errors.New("high scores require verification")

	// Score errors
	ErrScoreExists = errors.New("score already exists")
)
