package grid

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by grid operations. Callers match them with
// errors.Is; the wrapped messages are written to be shown to users as-is.
var (
	ErrConfig             = errors.New("invalid column configuration")
	ErrCapacity           = errors.New("row capacity reached")
	ErrInvalidColumnName  = errors.New("invalid column name")
	ErrDuplicateColumn    = errors.New("column already exists")
	ErrColumnNameTooLong  = errors.New("column name too long")
	ErrTooManyColumns     = errors.New("too many custom columns")
	ErrUnknownColumn      = errors.New("unknown column")
	ErrRenameIncomplete   = errors.New("rename incomplete")
	ErrRowNotFound        = errors.New("row not found")
	ErrNoEditInProgress   = errors.New("no edit in progress")
	ErrStaleEdit          = errors.New("rows changed since edit started")
	ErrRowsChanged        = errors.New("rows changed since the row was shown")
	ErrNoCustomColumns    = errors.New("no custom columns")
	ErrEmptyNumericField  = errors.New("numeric field is empty")
	ErrInvalidNumberField = errors.New("numeric field is not a number")
)

// ValidationError reports a rejected value in the edit form.
// It unwraps to ErrEmptyNumericField or ErrInvalidNumberField.
type ValidationError struct {
	Field string // Column label
	Value string // Raw staged value
	Err   error
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrEmptyNumericField) {
		return fmt.Sprintf("%s cannot be empty.", e.Field)
	}
	return fmt.Sprintf("Please enter a valid number for %s.", e.Field)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// alertError carries a message meant for the person at the keyboard while
// still matching its sentinel with errors.Is.
type alertError struct {
	kind error
	msg  string
}

func (e *alertError) Error() string { return e.msg }

func (e *alertError) Unwrap() error { return e.kind }

func alert(kind error, format string, args ...any) error {
	return &alertError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// AlertMessage returns the user-facing text carried by err, if any.
func AlertMessage(err error) (string, bool) {
	var ae *alertError
	if errors.As(err, &ae) {
		return ae.msg, true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error(), true
	}
	return "", false
}
