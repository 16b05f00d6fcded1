package domain

import (
	"sort"
	"strings"

	"chat-sync/errors"
)

// ConversationID is a lookup key: sorted(a, b) joined by "-" for 1:1 chats,
// the assigned group id for group chats.
type ConversationID string

// DirectConversationID is commutative in its arguments.
func DirectConversationID(a, b string) (ConversationID, error) {
	if err := validateIdentifier(a); err != nil {
		return "", err
	}
	if err := validateIdentifier(b); err != nil {
		return "", err
	}
	pair := []string{a, b}
	sort.Strings(pair)
	return ConversationID(pair[0] + "-" + pair[1]), nil
}

// GroupConversationID uses the opaque group id unchanged.
func GroupConversationID(groupID string) (ConversationID, error) {
	if err := validateIdentifier(groupID); err != nil {
		return "", err
	}
	return ConversationID(groupID), nil
}

func (c ConversationID) String() string { return string(c) }

func (c ConversationID) Validate() error {
	return validateIdentifier(string(c))
}

// The durable key layout separates segments with ':'.
func validateIdentifier(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, ":\x00") {
		return errors.ErrInvalidIdentifier
	}
	return nil
}

// Filter discriminates 1:1 from group messages sharing a conversation keyspace, and
// bounds the live window of a subscription.
type Filter struct {
	Group bool `json:"group"`
	Limit int  `json:"limit"`
}

// Matches reports whether m belongs to the result set described by f.
func (f Filter) Matches(m Message) bool {
	return m.IsGroup == f.Group
}

// Target is what a viewer opens: either a peer or a group.
type Target struct {
	ViewerID string
	PeerID   string
	GroupID  string
}

func DirectTarget(viewerID, peerID string) Target {
	return Target{ViewerID: viewerID, PeerID: peerID}
}

func GroupTarget(viewerID, groupID string) Target {
	return Target{ViewerID: viewerID, GroupID: groupID}
}

func (t Target) IsGroup() bool { return t.GroupID != "" }

// ConversationID computes the lookup key of the target.
func (t Target) ConversationID() (ConversationID, error) {
	if err := validateIdentifier(t.ViewerID); err != nil {
		return "", err
	}
	if t.IsGroup() {
		if t.PeerID != "" {
			return "", errors.ErrInvalidIdentifier
		}
		return GroupConversationID(t.GroupID)
	}
	return DirectConversationID(t.ViewerID, t.PeerID)
}

// Filter returns the discriminator of the target with the given live window.
func (t Target) Filter(limit int) Filter {
	return Filter{Group: t.IsGroup(), Limit: limit}
}
