package model

import "errors"

var (
	// Folder related errors
	ErrFolderNotFound = errors.New("folder not found")
	ErrFolderConflict = errors.New("folder already exists")

	// File related errors
	ErrFileNotFound = errors.New("file not found")

	// Event tracking related errors
	ErrEventNotFound      = errors.New("event not found")
	ErrEventAlreadyExists = errors.New("event already exists")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
