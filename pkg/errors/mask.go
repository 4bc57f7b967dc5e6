/*
 * Copyright © AMD. 2025-2026. All rights reserved.
 */

package errors

import "regexp"

var (
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`)
	ninePattern   = regexp.MustCompile(`\b\d{9}\b`)
)

// MaskSensitive redacts emails, bearer tokens and 9-digit identifier
// sequences. Error messages must pass through here before they are
// persisted or returned over HTTP.
func MaskSensitive(s string) string {
	s = emailPattern.ReplaceAllString(s, "[email]")
	s = bearerPattern.ReplaceAllString(s, "[token]")
	s = ninePattern.ReplaceAllString(s, "[id]")
	return s
}

// MaskedMessage returns the masked message of a coded error, or the
// masked err.Error() text for uncoded errors.
func MaskedMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := err.(*Error); ok {
		return MaskSensitive(e.Message)
	}
	return MaskSensitive(err.Error())
}
