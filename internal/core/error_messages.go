package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference.
//
// # Inventory Errors (INV001-INV099)
//
//	INV001 - Validation failed: The form has invalid fields
//	INV002 - Category missing: The selected category does not exist
//	INV003 - Duplicate: Another record already uses this name or SKU
//	INV004 - Not found: The requested category or item does not exist
//	INV005 - In use: The category still has items
//
// # Store Errors (DB001-DB099)
//
//	DB001 - Store unavailable: The inventory store could not be reached
//	DB002 - Duplicate key: The store rejected a duplicate key
//	DB003 - Connection refused
//	DB004 - Timeout
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Rate limited
//
// # Default Error (ERR000)
//
// Sentinel errors are matched first with errors.Is. Anything else falls back
// to case-insensitive substring patterns; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages is checked before any string pattern. Stores may wrap a
// context error together with ErrStoreUnavailable, so ErrStoreUnavailable
// stays last.
var sentinelMessages = []sentinelMessage{
	{ErrValidationFailed, UserMessage{
		Message: "Some fields are invalid",
		Action:  "Correct the highlighted fields and submit again",
		Code:    "INV001",
	}},
	{ErrReferenceNotFound, UserMessage{
		Message: "The selected category does not exist",
		Action:  "Pick another category or create it first",
		Code:    "INV002",
	}},
	{ErrUniquenessConflict, UserMessage{
		Message: "Another record already uses this name or SKU",
		Action:  "Choose a different value or edit the existing record",
		Code:    "INV003",
	}},
	{ErrNotFound, UserMessage{
		Message: "The requested record does not exist",
		Action:  "Return to the category list and try again",
		Code:    "INV004",
	}},
	{ErrCategoryInUse, UserMessage{
		Message: "This category still has items",
		Action:  "Delete or move its items before deleting the category",
		Code:    "INV005",
	}},
	{ErrDuplicateKey, UserMessage{
		Message: "A record with this key already exists",
		Action:  "Reload the page to see the current record",
		Code:    "DB002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{ErrStoreUnavailable, UserMessage{
		Message: "The inventory store is unavailable",
		Action:  "Please try again in a few moments",
		Code:    "DB001",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches driver errors that reach the web layer unwrapped.
var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the inventory store",
			Action:  "Please try again in a few moments",
			Code:    "DB003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "REQ002",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error.
//
// Example:
//
//	msg := MapError(fmt.Errorf("get category: %w", ErrNotFound))
//	// msg.Code == "INV004"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
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

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
