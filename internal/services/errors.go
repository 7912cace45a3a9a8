package services

import (
	"errors"

	"todoapp/internal/importer"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("concurrency conflict")
	ErrNoFileSelected = errors.New("no file selected")

	ErrUnsupportedFormat = importer.ErrUnsupportedFormat
	ErrParseFailed       = importer.ErrParseFailed
)
