package domain

import "errors"

var (
	// ErrNicknameRequired is returned when the nickname is empty after trimming.
	ErrNicknameRequired = errors.New("nickname is required")
	// ErrNicknameLength is returned when the nickname is shorter than 2 or longer than 20 characters.
	ErrNicknameLength = errors.New("nickname must be 2-20 characters")
	// ErrInvalidEmail is returned when the email does not look like an address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrQuestionSetNotFound indicates the requested question set could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrSessionNotFound is returned when no live session exists for an id.
	ErrSessionNotFound = errors.New("session not found")
)
