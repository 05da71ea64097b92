package chat

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// MessageDTO is the persisted message record broadcast to room members
// after a durable write. Immutable once created.
type MessageDTO struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Content        string    `json:"content"`
	SentAt         time.Time `json:"sent_at" example:"2025-07-27T16:05:05Z"`
}

type ConversationDTO struct {
	ID            int64      `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	OtherUserID   int64      `json:"other_user_id"`
	OtherUsername string     `json:"other_username"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

var (
	ErrNotParticipant   = errors.New("access denied")
	ErrUserNotFound     = errors.New("user not found")
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
)

type IChatService interface {
	// IsMember reports whether the user belongs to the conversation. It
	// authorizes both the REST send path and the realtime join path.
	IsMember(ctx context.Context, conversationID, userID int64) (bool, error)
	CreateConversation(ctx context.Context, userID int64, otherUsername string) (*ConversationDTO, bool, error)
	ListConversations(ctx context.Context, userID int64) ([]ConversationDTO, error)
	ListMessages(ctx context.Context, conversationID, userID int64) ([]MessageDTO, error)
	// InsertMessage durably writes a message after checking membership and
	// returns the canonical persisted row including the sender username.
	InsertMessage(ctx context.Context, conversationID, senderID int64, content string) (*MessageDTO, error)
}

type chatService struct {
	db *sql.DB
}

func NewChatService(db *sql.DB) IChatService {
	return &chatService{db: db}
}

func (svc *chatService) IsMember(ctx context.Context, conversationID, userID int64) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1 FROM conversations
	              WHERE id = $1 AND (user1_id = $2 OR user2_id = $2))`
	var ok bool
	if err := svc.db.QueryRowContext(ctx, q, conversationID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// CreateConversation finds or creates the 1:1 conversation between the
// caller and the named peer. The second return value is true when a new
// row was inserted.
func (svc *chatService) CreateConversation(ctx context.Context, userID int64, otherUsername string) (*ConversationDTO, bool, error) {
	var otherID int64
	err := svc.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = $1`, otherUsername).Scan(&otherID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrUserNotFound
	}
	if err != nil {
		return nil, false, err
	}
	if otherID == userID {
		return nil, false, ErrSelfConversation
	}

	// Lower id is always user1 so the pair is unique either way around.
	u1, u2 := userID, otherID
	if u2 < u1 {
		u1, u2 = u2, u1
	}

	dto := &ConversationDTO{OtherUserID: otherID, OtherUsername: otherUsername}
	err = svc.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM conversations WHERE user1_id = $1 AND user2_id = $2`,
		u1, u2).Scan(&dto.ID, &dto.CreatedAt)
	if err == nil {
		return dto, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	err = svc.db.QueryRowContext(ctx,
		`INSERT INTO conversations (user1_id, user2_id) VALUES ($1, $2)
		 RETURNING id, created_at`,
		u1, u2).Scan(&dto.ID, &dto.CreatedAt)
	if err != nil {
		return nil, false, err
	}
	return dto, true, nil
}

func (svc *chatService) ListConversations(ctx context.Context, userID int64) ([]ConversationDTO, error) {
	const q = `
	SELECT c.id, c.created_at, u.id, u.username,
	       coalesce((SELECT content FROM messages m
	                  WHERE m.conversation_id = c.id
	                  ORDER BY m.sent_at DESC, m.id DESC LIMIT 1), ''),
	       (SELECT sent_at FROM messages m
	         WHERE m.conversation_id = c.id
	         ORDER BY m.sent_at DESC, m.id DESC LIMIT 1)
	  FROM conversations c
	  JOIN users u
	    ON u.id = CASE WHEN c.user1_id = $1 THEN c.user2_id ELSE c.user1_id END
	 WHERE c.user1_id = $1 OR c.user2_id = $1
	 ORDER BY 6 DESC NULLS LAST`

	rows, err := svc.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]ConversationDTO, 0)
	for rows.Next() {
		var c ConversationDTO
		var lastAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.OtherUserID,
			&c.OtherUsername, &c.LastMessage, &lastAt); err != nil {
			return nil, err
		}
		if lastAt.Valid {
			t := lastAt.Time
			c.LastMessageAt = &t
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (svc *chatService) ListMessages(ctx context.Context, conversationID, userID int64) ([]MessageDTO, error) {
	ok, err := svc.IsMember(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	const q = `
	SELECT m.id, m.conversation_id, m.sender_id, u.username, m.content, m.sent_at
	  FROM messages m
	  JOIN users u ON u.id = m.sender_id
	 WHERE m.conversation_id = $1
	 ORDER BY m.sent_at ASC, m.id ASC`

	rows, err := svc.db.QueryContext(ctx, q, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]MessageDTO, 0)
	for rows.Next() {
		var m MessageDTO
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID,
			&m.SenderUsername, &m.Content, &m.SentAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (svc *chatService) InsertMessage(ctx context.Context, conversationID, senderID int64, content string) (*MessageDTO, error) {
	ok, err := svc.IsMember(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	var id int64
	err = svc.db.QueryRowContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, content)
		 VALUES ($1, $2, $3) RETURNING id`,
		conversationID, senderID, content).Scan(&id)
	if err != nil {
		return nil, err
	}

	// Re-read the joined row so the broadcast payload carries the sender
	// username and the DB-assigned timestamp.
	const q = `
	SELECT m.id, m.conversation_id, m.sender_id, u.username, m.content, m.sent_at
	  FROM messages m
	  JOIN users u ON u.id = m.sender_id
	 WHERE m.id = $1`

	msg := &MessageDTO{}
	err = svc.db.QueryRowContext(ctx, q, id).Scan(&msg.ID, &msg.ConversationID,
		&msg.SenderID, &msg.SenderUsername, &msg.Content, &msg.SentAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}
