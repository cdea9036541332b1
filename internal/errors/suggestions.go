package errors

import "errors"

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	ErrPermissionDenied:   "Run 'violet geofence enable' from a terminal and allow access, or 'violet geofence permissions --reset' to be asked again.",
	ErrRegistrationFailed: "Check 'violet daemon status' and try 'violet geofence enable' again.",
	ErrInvalidRadius:      "Use a number of meters, at least 100 (e.g. --radius 150).",
	ErrInvalidCoordinate:  "Longitude must be within [-180, 180] and latitude within [-90, 90].",
	ErrTodoNotFound:       "Use 'violet todo list' to see todo ids.",
	ErrTitleRequired:      "Give the todo a title: violet todo add \"写周报\".",
	ErrInvalidDueDate:     "Try formats like 'friday', '2026-10-20', or 'in 3 days'.",
	ErrWebhookNotFound:    "Use 'violet webhook list' to see configured webhooks.",
	ErrInvalidURL:         "Provide a valid URL starting with https:// (or http:// for localhost).",

	ErrDiskFull:           "Free up disk space and try again.",
	ErrDatabaseCorrupted:  "Move ~/.local/share/violet/db aside and run the command again.",
	ErrNetworkUnavailable: "Check your connection. Webhook deliveries retry automatically.",
	ErrLockHeld:           "The daemon is using the database. Retry in a moment, or run 'violet daemon stop'.",
	ErrTimeout:            "The operation took too long. Try again.",
}

// GetSuggestion returns a suggestion for an error, if available.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}
	for knownErr, suggestion := range Suggestions {
		if errors.Is(err, knownErr) {
			return suggestion
		}
	}
	return ""
}
