package gearimport

// error_messages.go maps technical errors to messages users can act on.
//
// Codes are quoted to support staff:
//
//	FILE001 file too large          FILE002 invalid csv
//	FILE003 unknown file type       FILE004 no file provided
//	FILE005 empty file              FILE006 malformed workbook
//	IMP001  session expired         IMP002  step not allowed
//	IMP003  nothing imported        IMP004  too many imports
//	MAP001  invalid mapping         MAP002  invalid weight unit
//	MAP003  invalid header row      MAP004  invalid duplicate action
//	CAT001  categories unresolved
//	BAT001  import batch not found  REQ001  malformed request
//	DB001-DB005 database failures   RATE001 rate limited
//	ERR000  anything else, check the logs
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// File errors
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the spreadsheet into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated and quotes are balanced",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unknown file type",
		msg: UserMessage{
			Message: "Unknown file type",
			Action:  "Upload a .csv, .xls or .xlsx file",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a spreadsheet with a header row and gear rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "malformed workbook",
		msg: UserMessage{
			Message: "The workbook could not be read",
			Action:  "Open it in a spreadsheet program and save it again as .xlsx or .csv",
			Code:    "FILE006",
		},
	},

	// =========================================================================
	// Wizard errors
	// =========================================================================
	{
		pattern: "import session expired",
		msg: UserMessage{
			Message: "Your import session has expired",
			Action:  "Please upload the file again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "import step not allowed",
		msg: UserMessage{
			Message: "This import step is not available yet",
			Action:  "Complete the previous step first",
			Code:    "IMP002",
		},
	},
	{
		pattern: "nothing imported",
		msg: UserMessage{
			Message: "No items were imported",
			Action:  "Fix the listed rows and upload the file again",
			Code:    "IMP003",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP004",
		},
	},
	{
		pattern: "invalid mapping",
		msg: UserMessage{
			Message: "The column mapping is incomplete",
			Action:  "Choose the column that holds the item name",
			Code:    "MAP001",
		},
	},
	{
		pattern: "invalid weight unit",
		msg: UserMessage{
			Message: "Unknown weight unit",
			Action:  "Choose kg, g, lbs or oz",
			Code:    "MAP002",
		},
	},
	{
		pattern: "invalid header row",
		msg: UserMessage{
			Message: "That row cannot be used as the header",
			Action:  "Pick a row inside the spreadsheet that contains column names",
			Code:    "MAP003",
		},
	},
	{
		pattern: "invalid duplicate action",
		msg: UserMessage{
			Message: "Unknown duplicate action",
			Action:  "Choose skip or update",
			Code:    "MAP004",
		},
	},
	{
		pattern: "categories unresolved",
		msg: UserMessage{
			Message: "Some categories still need a decision",
			Action:  "Choose skip, create or an existing category for every value",
			Code:    "CAT001",
		},
	},
	{
		pattern: "import batch not found",
		msg: UserMessage{
			Message: "Import not found",
			Action:  "It may already have been reverted",
			Code:    "BAT001",
		},
	},
	{
		pattern: "bad request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the submitted form values and try again",
			Code:    "REQ001",
		},
	},

	// =========================================================================
	// Database errors
	// =========================================================================
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A record with this name already exists",
			Action:  "Rename the duplicate entry and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Reload the page and try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB003",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB005",
		},
	},

	// =========================================================================
	// Rate limiting
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError returns "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
