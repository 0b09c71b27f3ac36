package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/featreq/feature-requestor/pkg/mailer"
	"github.com/featreq/feature-requestor/pkg/metrics"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
	ErrInvalidPreference    = errors.New("preference must be none, immediate, or bulk")
)

// RecipientLookup resolves a user id to the email address and display name
// used when sending notification email
type RecipientLookup interface {
	Recipient(ctx context.Context, userID int64) (email, name string, err error)
}

// Service handles notification business logic: persisting records, routing
// by user preference, and rendering email
type Service struct {
	repo       *Repository
	queue      *Queue
	mail       mailer.Mailer
	recipients RecipientLookup
	baseURL    string
	logger     *zap.Logger
}

// NewService creates a new notification service
func NewService(repo *Repository, queue *Queue, mail mailer.Mailer, recipients RecipientLookup, baseURL string, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		queue:      queue,
		mail:       mail,
		recipients: recipients,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Create records a notification and routes it according to the recipient's
// preference for its type: none stores it for in-app display only, immediate
// sends a single-event email right away, bulk appends it to the recipient's
// digest and resets the digest deadline. The stored record is never affected
// by email failures.
func (s *Service) Create(ctx context.Context, userID int64, notificationType string, data map[string]string) (*Notification, error) {
	message, err := Render(notificationType, data)
	if err != nil {
		return nil, err
	}

	var link *string
	if l := RenderLink(notificationType, data); l != "" {
		link = &l
	}

	n, err := s.repo.Create(ctx, userID, notificationType, message, link, data)
	if err != nil {
		return nil, err
	}

	pref := s.preferenceFor(ctx, userID, notificationType)
	metrics.NotificationCreated.WithLabelValues(notificationType, pref).Inc()

	switch pref {
	case PreferenceNone:
		// In-app only
	case PreferenceBulk:
		s.queue.Add(userID, eventFrom(n))
	default: // immediate
		if err := s.sendImmediate(ctx, n); err != nil {
			metrics.EmailSent.WithLabelValues("immediate", "failed").Inc()
			s.logger.Error("failed to send immediate notification email",
				zap.Int64("notification_id", n.ID),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		} else {
			metrics.EmailSent.WithLabelValues("immediate", "sent").Inc()
		}
	}

	return n, nil
}

// Flush synchronously drains and emails the recipient's open digest. Used
// when a user switches away from the bulk preference or on demand. Events
// are requeued on transport failure so nothing is lost.
func (s *Service) Flush(ctx context.Context, userID int64) error {
	events := s.queue.Drain(userID)
	if len(events) == 0 {
		return nil
	}

	if err := s.SendDigest(ctx, userID, events); err != nil {
		for _, ev := range events {
			s.queue.Add(userID, ev)
		}
		return fmt.Errorf("failed to flush digest: %w", err)
	}

	metrics.EmailSent.WithLabelValues("digest", "sent").Inc()
	metrics.DigestSize.Observe(float64(len(events)))
	return nil
}

// SendDigest renders and sends one digest email containing all queued events
// for a recipient, then marks the included notifications as emailed. A
// recipient without a usable email address drops the digest silently; the
// in-app records remain.
func (s *Service) SendDigest(ctx context.Context, recipientID int64, events []Event) error {
	email, name, err := s.recipients.Recipient(ctx, recipientID)
	if err != nil {
		return err
	}
	if email == "" {
		s.logger.Warn("digest recipient has no email address", zap.Int64("user_id", recipientID))
		return nil
	}

	msg := BuildDigestEmail(email, name, events, s.baseURL)
	if err := s.mail.Send(msg); err != nil {
		return err
	}

	ids := make([]int64, len(events))
	for i, ev := range events {
		ids[i] = ev.NotificationID
	}
	if err := s.repo.MarkEmailed(ctx, ids); err != nil {
		s.logger.Error("failed to mark notifications emailed", zap.Error(err))
	}

	return nil
}

// sendImmediate sends a single-event email without touching any digest
func (s *Service) sendImmediate(ctx context.Context, n *Notification) error {
	email, _, err := s.recipients.Recipient(ctx, n.UserID)
	if err != nil {
		return err
	}
	if email == "" {
		return nil
	}

	if err := s.mail.Send(BuildImmediateEmail(email, n, s.baseURL)); err != nil {
		return err
	}

	if err := s.repo.MarkEmailed(ctx, []int64{n.ID}); err != nil {
		s.logger.Error("failed to mark notification emailed", zap.Error(err))
	}
	return nil
}

// preferenceFor returns the user's preference for a type, defaulting to
// immediate when no explicit record exists
func (s *Service) preferenceFor(ctx context.Context, userID int64, notificationType string) string {
	pref, err := s.repo.GetPreference(ctx, userID, notificationType)
	if err != nil {
		s.logger.Error("failed to load notification preference, defaulting to immediate",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return PreferenceImmediate
	}
	if pref == nil {
		return PreferenceImmediate
	}
	return pref.Preference
}

// SetPreference creates or updates the user's preference for one type.
// Switching away from bulk flushes any open digest so queued events are not
// stranded.
func (s *Service) SetPreference(ctx context.Context, userID int64, notificationType, preference string, customRule *string) (*Preference, error) {
	if !ValidPreference(preference) {
		return nil, ErrInvalidPreference
	}

	old, err := s.repo.GetPreference(ctx, userID, notificationType)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.UpsertPreference(ctx, userID, notificationType, preference, customRule)
	if err != nil {
		return nil, err
	}

	if old != nil && old.Preference == PreferenceBulk && preference != PreferenceBulk {
		if err := s.Flush(ctx, userID); err != nil {
			s.logger.Error("failed to flush digest after preference change",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}

	return p, nil
}

// ListPreferences retrieves all of a user's notification preferences
func (s *Service) ListPreferences(ctx context.Context, userID int64) ([]*Preference, error) {
	return s.repo.ListPreferences(ctx, userID)
}

// ListByUser retrieves a user's notifications with pagination
func (s *Service) ListByUser(ctx context.Context, userID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUser(ctx, userID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read after checking ownership
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.UserID != userID {
		return ErrNotRecipient
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all of a user's notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// eventFrom converts a stored notification into a digest queue event
func eventFrom(n *Notification) Event {
	link := ""
	if n.Link != nil {
		link = *n.Link
	}
	return Event{
		NotificationID: n.ID,
		Type:           n.Type,
		Message:        n.Message,
		Link:           link,
		CreatedAt:      n.CreatedAt,
	}
}

// typeDisplay turns a notification type into a human heading,
// e.g. "request_status_change" -> "Request Status Change"
func typeDisplay(notificationType string) string {
	words := strings.Split(notificationType, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
