package notification

import (
	"fmt"
	"sort"
	"strings"

	"github.com/featreq/feature-requestor/pkg/mailer"
)

// BuildDigestEmail renders one digest email covering all queued events for a
// recipient. Events are grouped by type; groups appear in order of their
// earliest event and events inside a group stay chronological.
func BuildDigestEmail(to, name string, events []Event, baseURL string) *mailer.Email {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var typeOrder []string
	groups := make(map[string][]Event)
	for _, ev := range sorted {
		if _, seen := groups[ev.Type]; !seen {
			typeOrder = append(typeOrder, ev.Type)
		}
		groups[ev.Type] = append(groups[ev.Type], ev)
	}

	subject := fmt.Sprintf("Feature Requestor: %d Notification(s)", len(events))

	var html strings.Builder
	html.WriteString("<html><body>")
	fmt.Fprintf(&html, "<h2>Hi %s, you have %d new notification(s)</h2>", name, len(events))

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s, you have %d new notification(s):\n\n", name, len(events))

	for _, t := range typeOrder {
		heading := typeDisplay(t)
		fmt.Fprintf(&html, "<h3>%s</h3>", heading)
		fmt.Fprintf(&text, "%s\n", heading)

		for _, ev := range groups[t] {
			fmt.Fprintf(&html, "<p>%s<br><small>%s</small>", ev.Message, ev.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Fprintf(&text, "- %s (%s)\n", ev.Message, ev.CreatedAt.Format("2006-01-02 15:04"))
			if ev.Link != "" {
				link := mailer.AbsoluteLink(baseURL, ev.Link)
				fmt.Fprintf(&html, `<br><a href="%s">%s</a>`, link, LinkText(ev.Type))
				fmt.Fprintf(&text, "  %s: %s\n", LinkText(ev.Type), link)
			}
			html.WriteString("</p>")
		}
		text.WriteString("\n")
	}

	html.WriteString("<hr><p>This is a bulk notification email from Feature Requestor. ")
	html.WriteString("You can change your notification preferences in your account settings.</p>")
	html.WriteString("</body></html>")
	text.WriteString("You can change your notification preferences in your account settings.\n")

	return &mailer.Email{
		To:       to,
		Subject:  subject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}
}

// BuildImmediateEmail renders a single-event email for an immediate-preference
// notification
func BuildImmediateEmail(to string, n *Notification, baseURL string) *mailer.Email {
	heading := typeDisplay(n.Type)
	subject := "Feature Requestor: " + heading

	var html strings.Builder
	html.WriteString("<html><body>")
	fmt.Fprintf(&html, "<h2>%s</h2><p>%s</p>", heading, n.Message)

	var text strings.Builder
	fmt.Fprintf(&text, "%s\n\n%s\n", heading, n.Message)

	if n.Link != nil && *n.Link != "" {
		link := mailer.AbsoluteLink(baseURL, *n.Link)
		fmt.Fprintf(&html, `<p><a href="%s">%s</a></p>`, link, LinkText(n.Type))
		fmt.Fprintf(&text, "\n%s: %s\n", LinkText(n.Type), link)
	}

	html.WriteString("<hr><p>This is an immediate notification from Feature Requestor. ")
	html.WriteString("You can change your notification preferences in your account settings.</p>")
	html.WriteString("</body></html>")
	text.WriteString("\nYou can change your notification preferences in your account settings.\n")

	return &mailer.Email{
		To:       to,
		Subject:  subject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}
}
