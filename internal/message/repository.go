package message

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateThread creates a thread and its initial participants in one
// transaction.
func (r *Repository) CreateThread(ctx context.Context, threadType string, name *string, createdByID int64, participantIDs []int64) (*Thread, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var t Thread
	err = tx.QueryRowContext(ctx,
		`INSERT INTO threads (type, name, created_by_id, created_at)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING id, type, name, created_by_id, created_at`,
		threadType, name, createdByID).
		Scan(&t.ID, &t.Type, &t.Name, &t.CreatedByID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	for _, userID := range participantIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO thread_participants (thread_id, user_id, is_blocked, joined_at)
			 VALUES ($1, $2, FALSE, NOW())
			 ON CONFLICT DO NOTHING`,
			t.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to add participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit thread: %w", err)
	}
	return &t, nil
}

func (r *Repository) GetThread(ctx context.Context, id int64) (*Thread, error) {
	var t Thread
	err := r.db.QueryRowContext(ctx,
		`SELECT id, type, name, created_by_id, created_at FROM threads WHERE id = $1`, id).
		Scan(&t.ID, &t.Type, &t.Name, &t.CreatedByID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return &t, nil
}

// ListThreadsByUser returns the threads a user belongs to, most recently
// active first.
func (r *Repository) ListThreadsByUser(ctx context.Context, userID int64) ([]*Thread, error) {
	query := `SELECT t.id, t.type, t.name, t.created_by_id, t.created_at
			  FROM threads t
			  JOIN thread_participants tp ON tp.thread_id = t.id
			  WHERE tp.user_id = $1
			  ORDER BY COALESCE((SELECT MAX(m.created_at) FROM messages m WHERE m.thread_id = t.id), t.created_at) DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []*Thread
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.Type, &t.Name, &t.CreatedByID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, &t)
	}
	return threads, rows.Err()
}

func (r *Repository) GetParticipant(ctx context.Context, threadID, userID int64) (*Participant, error) {
	var p Participant
	err := r.db.QueryRowContext(ctx,
		`SELECT thread_id, user_id, is_blocked, last_read_at, joined_at
		 FROM thread_participants WHERE thread_id = $1 AND user_id = $2`,
		threadID, userID).
		Scan(&p.ThreadID, &p.UserID, &p.IsBlocked, &p.LastReadAt, &p.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &p, nil
}

func (r *Repository) ListParticipants(ctx context.Context, threadID int64) ([]Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT thread_id, user_id, is_blocked, last_read_at, joined_at
		 FROM thread_participants WHERE thread_id = $1 ORDER BY joined_at`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ThreadID, &p.UserID, &p.IsBlocked, &p.LastReadAt, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *Repository) AddParticipant(ctx context.Context, threadID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO thread_participants (thread_id, user_id, is_blocked, joined_at)
		 VALUES ($1, $2, FALSE, NOW())
		 ON CONFLICT DO NOTHING`,
		threadID, userID)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *Repository) SetBlocked(ctx context.Context, threadID, userID int64, blocked bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE thread_participants SET is_blocked = $3 WHERE thread_id = $1 AND user_id = $2`,
		threadID, userID, blocked)
	if err != nil {
		return fmt.Errorf("failed to update block flag: %w", err)
	}
	return nil
}

func (r *Repository) UpdateLastRead(ctx context.Context, threadID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE thread_participants SET last_read_at = NOW() WHERE thread_id = $1 AND user_id = $2`,
		threadID, userID)
	if err != nil {
		return fmt.Errorf("failed to update last read: %w", err)
	}
	return nil
}

func (r *Repository) CreateMessage(ctx context.Context, threadID, senderID int64, content string) (*Message, error) {
	var m Message
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO messages (thread_id, sender_id, content, created_at)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING id, thread_id, sender_id, content, created_at`,
		threadID, senderID, content).
		Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &m, nil
}

func (r *Repository) ListMessages(ctx context.Context, threadID int64, limit, offset int) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, thread_id, sender_id, content, created_at
		 FROM messages WHERE thread_id = $1
		 ORDER BY created_at
		 LIMIT $2 OFFSET $3`,
		threadID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (r *Repository) CreatePoll(ctx context.Context, threadID, candidateID, createdByID int64) (*Poll, error) {
	var p Poll
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO add_user_polls (thread_id, candidate_id, created_by_id, status, created_at)
		 VALUES ($1, $2, $3, 'open', NOW())
		 RETURNING id, thread_id, candidate_id, created_by_id, status, resolved_at, created_at`,
		threadID, candidateID, createdByID).
		Scan(&p.ID, &p.ThreadID, &p.CandidateID, &p.CreatedByID, &p.Status, &p.ResolvedAt, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}
	return &p, nil
}

func (r *Repository) GetPoll(ctx context.Context, id int64) (*Poll, error) {
	var p Poll
	err := r.db.QueryRowContext(ctx,
		`SELECT id, thread_id, candidate_id, created_by_id, status, resolved_at, created_at
		 FROM add_user_polls WHERE id = $1`, id).
		Scan(&p.ID, &p.ThreadID, &p.CandidateID, &p.CreatedByID, &p.Status, &p.ResolvedAt, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return &p, nil
}

func (r *Repository) ListPollsByThread(ctx context.Context, threadID int64) ([]*Poll, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, thread_id, candidate_id, created_by_id, status, resolved_at, created_at
		 FROM add_user_polls WHERE thread_id = $1 ORDER BY created_at DESC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	var polls []*Poll
	for rows.Next() {
		var p Poll
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.CandidateID, &p.CreatedByID, &p.Status, &p.ResolvedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, &p)
	}
	return polls, rows.Err()
}

func (r *Repository) CastVote(ctx context.Context, pollID, voterID int64, approve bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO poll_votes (poll_id, voter_id, approve, voted_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (poll_id, voter_id) DO UPDATE SET approve = EXCLUDED.approve, voted_at = NOW()`,
		pollID, voterID, approve)
	if err != nil {
		return fmt.Errorf("failed to cast vote: %w", err)
	}
	return nil
}

// CountApprovals returns how many approve votes a poll has collected
func (r *Repository) CountApprovals(ctx context.Context, pollID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM poll_votes WHERE poll_id = $1 AND approve = TRUE`, pollID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count approvals: %w", err)
	}
	return count, nil
}

func (r *Repository) ResolvePoll(ctx context.Context, pollID int64, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE add_user_polls SET status = $2, resolved_at = NOW() WHERE id = $1 AND status = 'open'`,
		pollID, status)
	if err != nil {
		return fmt.Errorf("failed to resolve poll: %w", err)
	}
	return nil
}
