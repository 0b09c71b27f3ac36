package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDigestEmailGroupsByTypeChronologically(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{NotificationID: 1, Type: TypeRequestComment, Message: "first comment", CreatedAt: base},
		{NotificationID: 2, Type: TypeNewMessage, Message: "hello there", CreatedAt: base.Add(time.Minute)},
		{NotificationID: 3, Type: TypeRequestComment, Message: "second comment", CreatedAt: base.Add(2 * time.Minute)},
	}

	email := BuildDigestEmail("alice@example.com", "Alice", events, "http://localhost:8080")

	assert.Equal(t, "alice@example.com", email.To)
	assert.Equal(t, "Feature Requestor: 3 Notification(s)", email.Subject)

	// Comment group comes first (earliest event) and keeps internal order
	text := email.TextBody
	first := strings.Index(text, "first comment")
	second := strings.Index(text, "second comment")
	hello := strings.Index(text, "hello there")
	require.True(t, first >= 0 && second >= 0 && hello >= 0)
	assert.Less(t, first, second)
	assert.Less(t, second, hello)

	assert.Contains(t, text, "Request Comment")
	assert.Contains(t, text, "New Message")
}

func TestBuildDigestEmailLinksAreAbsolute(t *testing.T) {
	events := []Event{
		{NotificationID: 1, Type: TypeRequestComment, Message: "c", Link: "/requests/7", CreatedAt: time.Now()},
	}

	email := BuildDigestEmail("a@b.c", "A", events, "http://localhost:8080")
	assert.Contains(t, email.HTMLBody, `href="http://localhost:8080/requests/7"`)
	assert.Contains(t, email.TextBody, "View Request: http://localhost:8080/requests/7")
}

func TestBuildImmediateEmail(t *testing.T) {
	link := "/messages/3"
	n := &Notification{
		ID:      5,
		Type:    TypeNewMessage,
		Message: "New message from Bob",
		Link:    &link,
	}

	email := BuildImmediateEmail("alice@example.com", n, "https://featreq.example.com")
	assert.Equal(t, "Feature Requestor: New Message", email.Subject)
	assert.Contains(t, email.TextBody, "New message from Bob")
	assert.Contains(t, email.HTMLBody, `href="https://featreq.example.com/messages/3"`)
}
