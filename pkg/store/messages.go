// Contact message methods.
package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ErrMessageNotFound is returned when a message does not exist.
var ErrMessageNotFound = fmt.Errorf("message not found")

// Message is a contact-form submission.
type Message struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Body      string
	CreatedAt time.Time
	ReadAt    *time.Time
}

// AddMessage stores a new contact-form submission.
func (s *Store) AddMessage(m *Message) error {
	_, err := s.db.Exec(
		`INSERT INTO messages (id, name, email, subject, body) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Subject, m.Body,
	)
	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}
	return nil
}

// ListMessages returns messages, most recent first.
func (s *Store) ListMessages(limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, name, email, subject, body, created_at, read_at FROM messages ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var m Message
		var createdAt int64
		var readAt sql.NullInt64
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &createdAt, &readAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.CreatedAt = time.Unix(createdAt, 0)
		if readAt.Valid {
			t := time.Unix(readAt.Int64, 0)
			m.ReadAt = &t
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// MarkMessageRead records that an admin has read a message.
func (s *Store) MarkMessageRead(id string) error {
	result, err := s.db.Exec(
		`UPDATE messages SET read_at = ? WHERE id = ?`,
		time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// DeleteMessage removes a message by id.
func (s *Store) DeleteMessage(id string) error {
	result, err := s.db.Exec(`DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrMessageNotFound
	}
	return nil
}
