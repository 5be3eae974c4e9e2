package app

import "errors"

// Upload validation failures. They are detected before anything is written.
var (
	ErrFileRequired        = errors.New("file required")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrTitleRequired       = errors.New("title required")
	ErrDescriptionRequired = errors.New("description required")
)

// ErrBookNotFound indicates no record exists for the requested id.
var ErrBookNotFound = errors.New("book not found")

// IsValidation reports whether err is an upload validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrFileRequired) ||
		errors.Is(err, ErrUnsupportedFileType) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrDescriptionRequired)
}
