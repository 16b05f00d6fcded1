// Package domain contains core concepts of the chat system.
// This file defines Message records and related rules.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"strings"

	"chat-sync/errors"

	"github.com/samber/lo"
)

// Message is one chat record. ID is empty until the durable store commits it.
// CreatedAt and EditedAt are milliseconds since epoch.
type Message struct {
	ID             string         `json:"id,omitempty"`
	ConversationID ConversationID `json:"conversation_id"`
	SenderID       string         `json:"sender_id"`
	RecipientID    string         `json:"recipient_id,omitempty"`
	Text           string         `json:"text,omitempty"`
	Attachments    []string       `json:"attachments,omitempty"`
	CreatedAt      int64          `json:"created_at"`
	Edited         bool           `json:"edited,omitempty"`
	EditedAt       *int64         `json:"edited_at,omitempty"`
	ReadBy         []string       `json:"read_by,omitempty"`
	IsGroup        bool           `json:"is_group,omitempty"`
	GroupID        string         `json:"group_id,omitempty"`
}

// MessageEdit is the only mutation a committed message accepts besides read receipts.
type MessageEdit struct {
	Text     string `json:"text"`
	EditedAt int64  `json:"edited_at"`
}

// Committed reports whether the durable store assigned an id.
func (m Message) Committed() bool {
	return m.ID != ""
}

// HasReader reports whether readerID acknowledged the message.
func (m Message) HasReader(readerID string) bool {
	return lo.Contains(m.ReadBy, readerID)
}

// WithReader returns a copy of m with readerID appended to its readers when absent.
func (m Message) WithReader(readerID string) Message {
	if m.HasReader(readerID) {
		return m
	}
	m.ReadBy = append(append([]string(nil), m.ReadBy...), readerID)
	return m
}

// MergeReaders returns a copy of m whose readers are the ordered union of m's and other's.
// Readers only grow, so two versions of one message always merge to the larger set.
func (m Message) MergeReaders(other Message) Message {
	merged := lo.Uniq(append(append([]string(nil), m.ReadBy...), other.ReadBy...))
	m.ReadBy = merged
	return m
}

// ApplyEdit sets text, edited flag and edit timestamp together.
func (m Message) ApplyEdit(edit MessageEdit) Message {
	m.Text = edit.Text
	m.Edited = true
	m.EditedAt = lo.ToPtr(edit.EditedAt)
	return m
}

// Validate checks the invariants a message must hold before it is committed.
func (m Message) Validate() error {
	if err := m.ConversationID.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(m.SenderID) == "" {
		return errors.ErrInvalidIdentifier
	}
	if strings.TrimSpace(m.Text) == "" && len(m.Attachments) == 0 {
		return errors.ErrEmptyMessage
	}
	if m.IsGroup {
		if m.GroupID == "" || m.RecipientID != "" {
			return errors.ErrInvalidIdentifier
		}
	} else if m.RecipientID == "" || m.GroupID != "" {
		return errors.ErrInvalidIdentifier
	}
	if m.Edited != (m.EditedAt != nil) {
		return errors.ErrValidation
	}
	return nil
}

// Newer is the view ordering: timestamp descending, ties broken by id descending.
func Newer(a, b Message) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return a.ID > b.ID
}

// Clone returns a deep copy so callers cannot alias slices held by a store.
func (m Message) Clone() Message {
	m.Attachments = append([]string(nil), m.Attachments...)
	m.ReadBy = append([]string(nil), m.ReadBy...)
	if m.EditedAt != nil {
		m.EditedAt = lo.ToPtr(*m.EditedAt)
	}
	return m
}
