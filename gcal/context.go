package gcal

import (
	"strings"

	"github.com/mzurek/taskpilot/models"
)

// EventDigest renders upcoming events as a plain-text block suitable for
// feeding the chat assistant as context.
func EventDigest(events []models.CalendarEvent) string {
	var b strings.Builder
	b.WriteString("Upcoming calendar events:\n\n")
	for _, event := range events {
		summary := event.Summary
		if summary == "" {
			summary = "(no title)"
		}
		b.WriteString("- " + summary + "\n")
		switch {
		case event.Start != nil && event.End != nil:
			b.WriteString("  When: " + event.Start.Format("2006-01-02 15:04") +
				" - " + event.End.Format("2006-01-02 15:04") + "\n")
		case event.Start != nil:
			b.WriteString("  Starts: " + event.Start.Format("2006-01-02 15:04") + "\n")
		}
		if event.Description != "" {
			b.WriteString("  Details: " + event.Description + "\n")
		}
		if event.Location != "" {
			b.WriteString("  Location: " + event.Location + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
