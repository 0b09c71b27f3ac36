package notification

import (
	"fmt"
)

// Render produces the display message for a notification type from its data.
// Producers put everything the message needs into data so rendering never
// touches the database.
func Render(notificationType string, data map[string]string) (string, error) {
	switch notificationType {
	case TypeNewRequest:
		return fmt.Sprintf("New feature request '%s' for %s", data["title"], data["app_name"]), nil
	case TypeRequestComment:
		msg := fmt.Sprintf("%s commented on '%s'", data["commenter_name"], data["title"])
		if bid := data["bid_amount"]; bid != "" {
			msg += fmt.Sprintf(" with a bid of %s %s", bid, data["bid_currency"])
		}
		return msg, nil
	case TypeStatusChange:
		return fmt.Sprintf("Feature request '%s' changed status from %s to %s",
			data["title"], data["old_status"], data["new_status"]), nil
	case TypeRequestCompleted:
		return fmt.Sprintf("Feature request '%s' for %s has been completed", data["title"], data["app_name"]), nil
	case TypeDeveloperAdded:
		if name := data["developer_name"]; name != "" {
			return fmt.Sprintf("Developer %s has been added to feature request '%s'", name, data["title"]), nil
		}
		return fmt.Sprintf("You have been added as a developer to feature request '%s'", data["title"]), nil
	case TypeDeveloperRemoved:
		msg := fmt.Sprintf("You have been removed from feature request '%s'", data["title"])
		if reason := data["reason"]; reason != "" {
			msg += ". Reason: " + reason
		}
		return msg, nil
	case TypePaymentReceived:
		return fmt.Sprintf("You received a payment of %s %s for '%s'",
			data["amount"], data["currency"], data["title"]), nil
	case TypeNewMessage:
		return fmt.Sprintf("New message from %s", data["sender_name"]), nil
	case TypePoll:
		return fmt.Sprintf("%s started a poll in your conversation", data["sender_name"]), nil
	default:
		return "", fmt.Errorf("unknown notification type: %s", notificationType)
	}
}

// RenderLink produces the in-app link for a notification, or "" when the
// type has no destination.
func RenderLink(notificationType string, data map[string]string) string {
	switch notificationType {
	case TypeNewRequest, TypeRequestComment, TypeStatusChange, TypeRequestCompleted,
		TypeDeveloperAdded, TypeDeveloperRemoved:
		if id := data["feature_request_id"]; id != "" {
			return "/requests/" + id
		}
	case TypePaymentReceived:
		return "/account/payments"
	case TypeNewMessage, TypePoll:
		if id := data["thread_id"]; id != "" {
			return "/messages/" + id
		}
		return "/messages"
	}
	return ""
}

// LinkText picks the call-to-action label for a notification type in email
func LinkText(notificationType string) string {
	switch notificationType {
	case TypeNewMessage, TypePoll:
		return "View Messages"
	case TypePaymentReceived:
		return "View Payment History"
	case TypeNewRequest, TypeRequestComment, TypeStatusChange, TypeRequestCompleted,
		TypeDeveloperAdded, TypeDeveloperRemoved:
		return "View Request"
	default:
		return "View Details"
	}
}
