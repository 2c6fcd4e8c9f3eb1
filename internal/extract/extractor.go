// Package extract pulls structured fields out of the free-text body of a
// CI/CD notification message. Extraction is total: it never fails, for
// any input.
package extract

import (
	"regexp"
	"strings"
)

// maxBodyLen is the length the stored body copy is truncated to.
const maxBodyLen = 1000

// truncationMarker is appended to bodies longer than maxBodyLen.
const truncationMarker = "..."

// extractFailedPlaceholder is stored as the body when extraction itself
// blows up; the message is still processed with it.
const extractFailedPlaceholder = "failed to extract message content"

// Details holds the fields extracted from one message body. Body and
// Sender are always set; the rest are blank when their pattern did not
// match.
type Details struct {
	// Duration is the reported run time, value and unit joined
	// (e.g., "12 minutes").
	Duration string

	// Error is the free text following an error label, to end of line.
	Error string

	// Result is the reported outcome word (e.g., "passed").
	Result string

	// ReportURL is the first URL found in the body.
	ReportURL string

	// Body is the message body, truncated to maxBodyLen with a marker
	// appended when longer.
	Body string

	// Sender is the address the message came from.
	Sender string
}

// Each pattern is searched independently and only its first match is
// used. All matching is case-insensitive.
var (
	durationPattern = regexp.MustCompile(
		`(?i)(?:time|duration|tiempo|duracion)[:\s]*([0-9:.]+)\s*(seconds|secs|minutos|minutes|ms|s)`,
	)
	errorPattern = regexp.MustCompile(
		`(?i)(?:error|exception|failed|failure)[:\s]*(.+)`,
	)
	resultPattern = regexp.MustCompile(
		`(?i)(?:result|status|estado)[:\s]*(success|failed|passed|completed|completado)`,
	)
	reportURLPattern = regexp.MustCompile(
		`(?i)(https?://[^\s<>"]+|www\.[^\s<>"]+)`,
	)
)

// Extract scans body for the known field patterns and returns the
// extracted details. It never returns an error: an internal failure
// yields details carrying only a placeholder body and the sender.
func Extract(body, sender string) (d Details) {
	defer func() {
		if r := recover(); r != nil {
			d = Details{Body: extractFailedPlaceholder, Sender: sender}
		}
	}()

	d = Details{
		Body:   truncate(body),
		Sender: sender,
	}

	d.Duration = firstMatch(durationPattern, body)
	d.Error = firstMatch(errorPattern, body)
	d.Result = firstMatch(resultPattern, body)
	d.ReportURL = firstMatch(reportURLPattern, body)

	return d
}

// firstMatch returns the first match of pattern in body. A match with
// several capture groups is space-joined into one string; a single
// group is used as-is. No match yields "".
func firstMatch(pattern *regexp.Regexp, body string) string {
	groups := pattern.FindStringSubmatch(body)
	if groups == nil {
		return ""
	}
	return strings.Join(groups[1:], " ")
}

// truncate caps body at maxBodyLen characters, appending the marker
// when anything was cut.
func truncate(body string) string {
	runes := []rune(body)
	if len(runes) <= maxBodyLen {
		return body
	}
	return string(runes[:maxBodyLen]) + truncationMarker
}
