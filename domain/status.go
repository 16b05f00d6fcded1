package domain

import "github.com/samber/lo"

type DeliveryStatus string

const (
	StatusSent DeliveryStatus = "sent"
	StatusRead DeliveryStatus = "read"
)

// StatusFor returns the indicator shown to the sender of m.
// A 1:1 message starts with its sender as only reader, so it is read once a second
// reader joins; group messages start with no readers and follow the same rule.
func StatusFor(m Message) DeliveryStatus {
	others := lo.Without(m.ReadBy, m.SenderID)
	if len(others) > 0 {
		return StatusRead
	}
	return StatusSent
}

// Snapshot is one delivery of a live subscription: the full current result set, or an error.
type Snapshot struct {
	Messages []Message
	Err      error
}
