// Package render builds the title and HTML description of a work item
// from a message's outcome category and extracted details. Rendering is
// pure: identical inputs always produce identical output.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/lmedina/mailboard/internal/extract"
	"github.com/lmedina/mailboard/internal/model"
)

// maxSubjectLen caps the subject portion of a work item title.
const maxSubjectLen = 100

// Item is a fully rendered work item, ready to be submitted once.
type Item struct {
	Title       string
	Description string
	Category    model.Category
}

// Title builds the work item title: a category prefix, then the subject
// truncated to maxSubjectLen. Prefixes come from the per-sender table,
// with generic per-category defaults.
func Title(prefixes []model.TitlePrefixes, category model.Category, sender, subject string) string {
	prefix := senderPrefix(prefixes, sender, category)
	if prefix == "" {
		switch category {
		case model.CategoryFailure:
			prefix = "🚨 Execution failed"
		case model.CategorySuccess:
			prefix = "✅ Execution succeeded"
		default:
			prefix = "⚠️ Notification"
		}
	}

	if len([]rune(subject)) > maxSubjectLen {
		subject = string([]rune(subject)[:maxSubjectLen]) + "..."
	}
	return prefix + ": " + subject
}

// senderPrefix looks up the title prefix for a sender and category.
// Senders are matched as case-insensitive substrings, in table order.
func senderPrefix(prefixes []model.TitlePrefixes, sender string, category model.Category) string {
	senderLower := strings.ToLower(strings.TrimSpace(sender))
	for _, entry := range prefixes {
		if strings.Contains(senderLower, strings.ToLower(entry.Sender)) {
			return entry.Prefixes[category]
		}
	}
	return ""
}

// Describe builds the HTML description body for a work item. It always
// emits a sender attribution header, a category-specific section, the
// truncated message body as a preformatted block, and an automation
// disclaimer.
func Describe(category model.Category, d extract.Details) string {
	var b strings.Builder

	b.WriteString("<h3>📧 Auto-generated work item</h3>")
	fmt.Fprintf(&b, "<p><strong>Sender:</strong> %s</p>", html.EscapeString(d.Sender))

	switch category {
	case model.CategoryFailure:
		writeFailureSection(&b, d)
	case model.CategorySuccess:
		writeSuccessSection(&b, d)
	case model.CategoryWarning:
		writeWarningSection(&b, d)
	default:
		b.WriteString("<p>CI/CD system notification</p>")
	}

	if d.Body != "" {
		b.WriteString("<h4>📧 Message body:</h4>")
		fmt.Fprintf(&b, "<pre>%s</pre>", html.EscapeString(d.Body))
	}

	b.WriteString("<p><em>🔄 Created automatically by mailbox monitoring</em></p>")
	return b.String()
}

// writeFailureSection emits the error details relevant to a failed run.
func writeFailureSection(b *strings.Builder, d extract.Details) {
	b.WriteString("<h3>🚨 Execution failed</h3>")
	b.WriteString("<p>An error was detected during the run.</p>")

	if d.Error == "" && d.Duration == "" {
		return
	}
	b.WriteString("<h4>🔍 Error details:</h4><ul>")
	if d.Error != "" {
		fmt.Fprintf(b, "<li><strong>Error:</strong> %s</li>", html.EscapeString(d.Error))
	}
	if d.Duration != "" {
		fmt.Fprintf(b, "<li><strong>Duration:</strong> %s</li>", html.EscapeString(d.Duration))
	}
	b.WriteString("</ul>")
}

// writeSuccessSection emits the run metrics relevant to a successful run.
func writeSuccessSection(b *strings.Builder, d extract.Details) {
	b.WriteString("<h3>✅ Execution succeeded</h3>")
	b.WriteString("<p>The run completed without errors.</p>")

	if d.Duration == "" && d.Result == "" && d.ReportURL == "" {
		return
	}
	b.WriteString("<h4>📊 Run metrics:</h4><ul>")
	if d.Duration != "" {
		fmt.Fprintf(b, "<li><strong>Duration:</strong> %s</li>", html.EscapeString(d.Duration))
	}
	if d.Result != "" {
		fmt.Fprintf(b, "<li><strong>Result:</strong> %s</li>", html.EscapeString(d.Result))
	}
	if d.ReportURL != "" {
		fmt.Fprintf(b, "<li><strong>Report:</strong> <a href='%s'>View report</a></li>",
			html.EscapeString(d.ReportURL))
	}
	b.WriteString("</ul>")
}

// writeWarningSection emits the details relevant to a run needing review.
func writeWarningSection(b *strings.Builder, d extract.Details) {
	b.WriteString("<h3>⚠️ Execution completed with warnings</h3>")
	b.WriteString("<p>The run completed but raised warnings that need review.</p>")

	if d.Error == "" && d.Duration == "" {
		return
	}
	b.WriteString("<h4>📝 Details:</h4><ul>")
	if d.Error != "" {
		fmt.Fprintf(b, "<li><strong>Warning:</strong> %s</li>", html.EscapeString(d.Error))
	}
	if d.Duration != "" {
		fmt.Fprintf(b, "<li><strong>Duration:</strong> %s</li>", html.EscapeString(d.Duration))
	}
	b.WriteString("</ul>")
}
