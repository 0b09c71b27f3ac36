package message

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/featreq/feature-requestor/internal/notification"
)

var (
	ErrThreadNotFound     = errors.New("thread not found")
	ErrPollNotFound       = errors.New("poll not found")
	ErrNotParticipant     = errors.New("not a participant of this thread")
	ErrBlocked            = errors.New("participant has blocked this thread")
	ErrPollClosed         = errors.New("poll is already resolved")
	ErrAlreadyMember      = errors.New("user is already a participant")
	ErrInvalidThreadType  = errors.New("thread type must be direct or group")
	ErrDirectNeedsOneUser = errors.New("a direct thread needs exactly one other participant")
	ErrGroupOnly          = errors.New("polls are only available in group threads")
	ErrCandidateVote      = errors.New("the candidate cannot vote on their own poll")
)

// UserSource resolves a user id to a display name for notification text
type UserSource interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// Notifier records a notification for a user and routes it by preference
type Notifier interface {
	Notify(ctx context.Context, userID int64, notificationType string, data map[string]string) error
}

type Service struct {
	repo     *Repository
	users    UserSource
	notifier Notifier
	logger   *zap.Logger
}

func NewService(repo *Repository, users UserSource, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{repo: repo, users: users, notifier: notifier, logger: logger}
}

// CreateThread starts a conversation. Direct threads hold exactly two users;
// group threads any number. The creator is always a participant.
func (s *Service) CreateThread(ctx context.Context, creatorID int64, req *CreateThreadRequest) (*Thread, error) {
	if req.Type != ThreadDirect && req.Type != ThreadGroup {
		return nil, ErrInvalidThreadType
	}

	seen := map[int64]bool{creatorID: true}
	participants := []int64{creatorID}
	for _, id := range req.ParticipantIDs {
		if !seen[id] {
			seen[id] = true
			participants = append(participants, id)
		}
	}

	if req.Type == ThreadDirect && len(participants) != 2 {
		return nil, ErrDirectNeedsOneUser
	}

	return s.repo.CreateThread(ctx, req.Type, req.Name, creatorID, participants)
}

func (s *Service) ListThreads(ctx context.Context, userID int64) ([]*Thread, error) {
	return s.repo.ListThreadsByUser(ctx, userID)
}

func (s *Service) GetThread(ctx context.Context, threadID, userID int64) (*Thread, []Participant, error) {
	t, err := s.repo.GetThread(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, ErrThreadNotFound
	}
	if _, err := s.requireParticipant(ctx, threadID, userID); err != nil {
		return nil, nil, err
	}
	participants, err := s.repo.ListParticipants(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	return t, participants, nil
}

// SendMessage posts to a thread and notifies every participant who has not
// blocked it.
func (s *Service) SendMessage(ctx context.Context, threadID, senderID int64, content string) (*Message, error) {
	sender, err := s.requireParticipant(ctx, threadID, senderID)
	if err != nil {
		return nil, err
	}
	if sender.IsBlocked {
		return nil, ErrBlocked
	}

	m, err := s.repo.CreateMessage(ctx, threadID, senderID, content)
	if err != nil {
		return nil, err
	}

	name, err := s.users.DisplayName(ctx, senderID)
	if err != nil {
		s.logger.Warn("failed to resolve sender name", zap.Int64("user_id", senderID), zap.Error(err))
		name = "Someone"
	}
	data := map[string]string{
		"sender_name": name,
		"thread_id":   strconv.FormatInt(threadID, 10),
	}

	participants, err := s.repo.ListParticipants(ctx, threadID)
	if err != nil {
		s.logger.Warn("failed to list participants for message notification",
			zap.Int64("thread_id", threadID), zap.Error(err))
		return m, nil
	}
	for _, p := range participants {
		if p.UserID == senderID || p.IsBlocked {
			continue
		}
		if err := s.notifier.Notify(ctx, p.UserID, notification.TypeNewMessage, data); err != nil {
			s.logger.Warn("failed to create message notification",
				zap.Int64("user_id", p.UserID), zap.Error(err))
		}
	}

	return m, nil
}

// ListMessages returns a page of a thread's messages and marks the thread
// read for the caller.
func (s *Service) ListMessages(ctx context.Context, threadID, userID int64, page, perPage int) ([]*Message, error) {
	if _, err := s.requireParticipant(ctx, threadID, userID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 50
	}

	messages, err := s.repo.ListMessages(ctx, threadID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastRead(ctx, threadID, userID); err != nil {
		s.logger.Warn("failed to update last read",
			zap.Int64("thread_id", threadID), zap.Int64("user_id", userID), zap.Error(err))
	}
	return messages, nil
}

// SetBlocked mutes or unmutes a thread for the caller
func (s *Service) SetBlocked(ctx context.Context, threadID, userID int64, blocked bool) error {
	if _, err := s.requireParticipant(ctx, threadID, userID); err != nil {
		return err
	}
	return s.repo.SetBlocked(ctx, threadID, userID, blocked)
}

// ProposeAddUser opens a poll to add a user to a group thread. The proposer
// counts as an approval immediately, so a two-person group resolves as soon
// as the other member approves.
func (s *Service) ProposeAddUser(ctx context.Context, threadID, proposerID, candidateID int64) (*Poll, error) {
	t, err := s.repo.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrThreadNotFound
	}
	if t.Type != ThreadGroup {
		return nil, ErrGroupOnly
	}
	if _, err := s.requireParticipant(ctx, threadID, proposerID); err != nil {
		return nil, err
	}
	if existing, err := s.repo.GetParticipant(ctx, threadID, candidateID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrAlreadyMember
	}

	poll, err := s.repo.CreatePoll(ctx, threadID, candidateID, proposerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CastVote(ctx, poll.ID, proposerID, true); err != nil {
		return nil, err
	}

	name, err := s.users.DisplayName(ctx, proposerID)
	if err != nil {
		name = "Someone"
	}
	data := map[string]string{
		"sender_name": name,
		"thread_id":   strconv.FormatInt(threadID, 10),
	}
	participants, err := s.repo.ListParticipants(ctx, threadID)
	if err == nil {
		for _, p := range participants {
			if p.UserID == proposerID || p.IsBlocked {
				continue
			}
			if err := s.notifier.Notify(ctx, p.UserID, notification.TypePoll, data); err != nil {
				s.logger.Warn("failed to create poll notification",
					zap.Int64("user_id", p.UserID), zap.Error(err))
			}
		}
	}

	// A one-person group approves its own proposal instantly
	if err := s.tryResolve(ctx, poll); err != nil {
		return nil, err
	}
	return s.repo.GetPoll(ctx, poll.ID)
}

// Vote records a participant's answer. One rejection closes the poll; when
// every participant has approved, the candidate joins the thread.
func (s *Service) Vote(ctx context.Context, pollID, voterID int64, approve bool) (*Poll, error) {
	poll, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll == nil {
		return nil, ErrPollNotFound
	}
	if poll.Status != PollOpen {
		return nil, ErrPollClosed
	}
	if voterID == poll.CandidateID {
		return nil, ErrCandidateVote
	}
	if _, err := s.requireParticipant(ctx, poll.ThreadID, voterID); err != nil {
		return nil, err
	}

	if err := s.repo.CastVote(ctx, pollID, voterID, approve); err != nil {
		return nil, err
	}

	if !approve {
		if err := s.repo.ResolvePoll(ctx, pollID, PollRejected); err != nil {
			return nil, err
		}
	} else if err := s.tryResolve(ctx, poll); err != nil {
		return nil, err
	}

	return s.repo.GetPoll(ctx, pollID)
}

func (s *Service) ListPolls(ctx context.Context, threadID, userID int64) ([]*Poll, error) {
	if _, err := s.requireParticipant(ctx, threadID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListPollsByThread(ctx, threadID)
}

// tryResolve approves the poll once every participant has voted yes
func (s *Service) tryResolve(ctx context.Context, poll *Poll) error {
	participants, err := s.repo.ListParticipants(ctx, poll.ThreadID)
	if err != nil {
		return err
	}
	approvals, err := s.repo.CountApprovals(ctx, poll.ID)
	if err != nil {
		return err
	}
	if approvals < len(participants) {
		return nil
	}

	if err := s.repo.ResolvePoll(ctx, poll.ID, PollApproved); err != nil {
		return err
	}
	if err := s.repo.AddParticipant(ctx, poll.ThreadID, poll.CandidateID); err != nil {
		return err
	}

	name, err := s.users.DisplayName(ctx, poll.CreatedByID)
	if err != nil {
		name = "Someone"
	}
	if err := s.notifier.Notify(ctx, poll.CandidateID, notification.TypeNewMessage, map[string]string{
		"sender_name": name,
		"thread_id":   strconv.FormatInt(poll.ThreadID, 10),
	}); err != nil {
		s.logger.Warn("failed to notify poll candidate", zap.Int64("user_id", poll.CandidateID), zap.Error(err))
	}
	return nil
}

func (s *Service) requireParticipant(ctx context.Context, threadID, userID int64) (*Participant, error) {
	p, err := s.repo.GetParticipant(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotParticipant
	}
	return p, nil
}
