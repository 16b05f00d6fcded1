package domain

import (
	"strings"

	"chat-sync/errors"

	"github.com/samber/lo"
)

// Group is a named set of members. The creator is always a member.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"created_by"`
	CreatedAt int64    `json:"created_at"`
	Members   []string `json:"members"`
	PhotoURL  *string  `json:"photo_url,omitempty"`
}

// NewGroup normalizes members: blanks dropped, duplicates removed, creator added.
func NewGroup(name, creator string, members []string, createdAt int64) Group {
	cleaned := lo.Filter(members, func(m string, _ int) bool {
		return strings.TrimSpace(m) != ""
	})
	return Group{
		Name:      name,
		CreatedBy: creator,
		CreatedAt: createdAt,
		Members:   lo.Uniq(append(cleaned, creator)),
	}
}

func (g Group) IsMember(id string) bool {
	return lo.Contains(g.Members, id)
}

// WithMember is idempotent.
func (g Group) WithMember(id string) Group {
	if g.IsMember(id) {
		return g
	}
	g.Members = append(append([]string(nil), g.Members...), id)
	return g
}

// WithoutMember refuses to remove the creator.
func (g Group) WithoutMember(id string) (Group, error) {
	if id == g.CreatedBy {
		return g, errors.ErrCreatorMembership
	}
	g.Members = lo.Without(g.Members, id)
	return g, nil
}
