package core

// # Error Codes Reference
//
// Every error shown to a user carries a code for support reference. Codes
// are grouped by category:
//
//	CFG001  - Invalid page configuration (bad column or sort definitions)
//	ROW001  - Row limit reached
//	ROW002  - Row not found
//	COL001  - Column name missing
//	COL002  - Column already exists
//	COL003  - Column name too long
//	COL004  - Too many custom columns
//	COL005  - Unknown column
//	COL006  - Rename needs both a column and a new name
//	COL007  - No custom columns to delete
//	VAL001  - Numeric field left empty
//	VAL002  - Numeric field is not a number
//	EDT001  - No row is being edited
//	EDT002  - Table changed while a row was being edited
//	PAGE001 - Page not found
//	REQ001  - Malformed request
//	REQ002  - Request cancelled
//	REQ003  - Request timed out
//	RATE001 - Too many requests
//	ERR000  - Anything else; check the logs for the technical error
//
// Grid errors are matched with errors.Is against their sentinels. When the
// error carries text written for the user (grid.AlertMessage), that text
// replaces the generic message. Errors from outside the grid fall back to
// case-insensitive pattern matching on the error string.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/carpetgrid/internal/grid"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorKind maps a sentinel to its user message.
type errorKind struct {
	target error
	msg    UserMessage
}

// errorKinds is checked in order; the first errors.Is match wins.
var errorKinds = []errorKind{
	{grid.ErrConfig, UserMessage{"This page is not configured correctly", "Check the page definition files", "CFG001"}},
	{grid.ErrCapacity, UserMessage{"The table is full", "Delete rows before adding more", "ROW001"}},
	{grid.ErrRowNotFound, UserMessage{"That row no longer exists", "Refresh the page and try again", "ROW002"}},
	{grid.ErrRowsChanged, UserMessage{"The table changed since this row was shown", "Check the row and try again", "ROW003"}},
	{grid.ErrInvalidColumnName, UserMessage{"Please enter a column name.", "Type a name for the new column", "COL001"}},
	{grid.ErrDuplicateColumn, UserMessage{"This column already exists!", "Choose a different name", "COL002"}},
	{grid.ErrColumnNameTooLong, UserMessage{"Column name is too long", "Use a shorter name", "COL003"}},
	{grid.ErrTooManyColumns, UserMessage{"There are too many columns added!", "Delete a custom column first", "COL004"}},
	{grid.ErrUnknownColumn, UserMessage{"Unknown column", "Refresh the page and pick a listed column", "COL005"}},
	{grid.ErrRenameIncomplete, UserMessage{"Select a column and enter a new name", "Fill in both fields", "COL006"}},
	{grid.ErrNoCustomColumns, UserMessage{"There are no custom columns", "Add a column first", "COL007"}},
	{grid.ErrEmptyNumericField, UserMessage{"A numeric field is empty", "Enter a number", "VAL001"}},
	{grid.ErrInvalidNumberField, UserMessage{"A numeric field is not a number", "Enter digits only, for example 12.5", "VAL002"}},
	{grid.ErrNoEditInProgress, UserMessage{"No row is being edited", "Click Edit on a row first", "EDT001"}},
	{grid.ErrStaleEdit, UserMessage{"The table changed while this row was being edited", "Open the row again", "EDT002"}},
	{ErrPageNotFound, UserMessage{"Page not found", "Pick a page from the sidebar", "PAGE001"}},
	{ErrBadRequest, UserMessage{"The request could not be understood", "Check the submitted values", "REQ001"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "REQ002"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Please try again", "REQ003"}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that lost their sentinel on the way, such as
// those crossing a process boundary. Matching is case-insensitive.
var errorPatterns = []errorPattern{
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
	{"page not found", UserMessage{"Page not found", "Pick a page from the sidebar", "PAGE001"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "REQ002"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Please try again", "REQ003"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := g.AddCustomColumn("Supplier")
//	msg := MapError(err)
//	// msg.Code == "COL002"
//	// msg.Message == "This column already exists!"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			msg := k.msg
			if text, ok := grid.AlertMessage(err); ok {
				msg.Message = text
			}
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
