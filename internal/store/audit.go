package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dialogroute/dialogroute/internal/model"
)

// InsertCorrection appends a correction audit record. Corrections are
// append-only; there is no update or delete path.
func (s *SQLiteStore) InsertCorrection(ctx context.Context, c model.Correction) (string, error) {
	if !model.ValidCorrectionPriorities[c.Priority] {
		return "", fmt.Errorf("invalid correction priority %q", c.Priority)
	}

	id := c.ID
	if id == "" {
		id = s.newID()
	}
	appliedAt := c.AppliedAt
	if appliedAt.IsZero() {
		appliedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO corrections (id, conversation_ref, original_response, corrected_response,
		                          admin_id, reason, priority, status, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.ConversationRef, c.OriginalResponse, c.CorrectedResponse,
		c.AdminID, c.Reason, string(c.Priority), c.Status,
		appliedAt.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert correction: %w", err)
	}
	return id, nil
}

// ListCorrections returns correction records, newest first.
func (s *SQLiteStore) ListCorrections(ctx context.Context, limit int) ([]model.Correction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_ref, original_response, corrected_response,
		        admin_id, reason, priority, status, applied_at
		 FROM corrections ORDER BY applied_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Correction
	for rows.Next() {
		var c model.Correction
		var ref, reason sql.NullString
		var priority, appliedAt string
		if err := rows.Scan(&c.ID, &ref, &c.OriginalResponse, &c.CorrectedResponse,
			&c.AdminID, &reason, &priority, &c.Status, &appliedAt); err != nil {
			return nil, err
		}
		c.ConversationRef = ref.String
		c.Reason = reason.String
		c.Priority = model.CorrectionPriority(priority)
		c.AppliedAt, _ = time.Parse(time.RFC3339, appliedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertConversation appends a conversation audit record. Conversation ids
// are UUIDs so callers can mint them before the write lands.
func (s *SQLiteStore) InsertConversation(ctx context.Context, c model.Conversation) (string, error) {
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, message, response, intent, confidence, role, module, feedback, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Message, c.Response, string(c.Intent), c.Confidence,
		c.Role, c.Module, c.Feedback, createdAt.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}
	return id, nil
}

// RecordFeedback attaches positive or negative feedback to a conversation.
func (s *SQLiteStore) RecordFeedback(ctx context.Context, conversationID, feedback string) error {
	if feedback != "positive" && feedback != "negative" {
		return fmt.Errorf("invalid feedback %q (use positive or negative)", feedback)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET feedback = ? WHERE id = ?`, feedback, conversationID)
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation not found: %s", conversationID)
	}
	return nil
}

// ListConversations returns conversation records, newest first.
func (s *SQLiteStore) ListConversations(ctx context.Context, limit int) ([]model.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message, response, intent, confidence, role, module, feedback, created_at
		 FROM conversations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		var response, role, module, feedback sql.NullString
		var intent, createdAt string
		if err := rows.Scan(&c.ID, &c.Message, &response, &intent, &c.Confidence,
			&role, &module, &feedback, &createdAt); err != nil {
			return nil, err
		}
		c.Response = response.String
		c.Intent = model.Intent(intent)
		c.Role = role.String
		c.Module = module.String
		c.Feedback = feedback.String
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}
