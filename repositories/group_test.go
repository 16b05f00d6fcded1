package repositories

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestGroupRepository_MemberIndex(t *testing.T) {
	req := require.New(t)
	repo := NewGroupRepository(openDB(t))

	// Given two groups sharing alice
	g1, err := repo.CreateGroup(domain.NewGroup("one", "alice", []string{"bob"}, 1))
	req.NoError(err)
	req.NotEmpty(g1.ID)
	g2, err := repo.CreateGroup(domain.NewGroup("two", "carol", []string{"alice"}, 2))
	req.NoError(err)

	groups, err := repo.ListGroupsForMember("alice")
	req.NoError(err)
	req.Equal([]string{g2.ID, g1.ID}, lo.Map(groups, func(g domain.Group, _ int) string { return g.ID }))

	// When bob is removed from the first group
	g1, err = g1.WithoutMember("bob")
	req.NoError(err)
	req.NoError(repo.SaveGroup(g1))

	// Then the index forgets him
	groups, err = repo.ListGroupsForMember("bob")
	req.NoError(err)
	req.Empty(groups)

	fetched, err := repo.GetGroup(g1.ID)
	req.NoError(err)
	req.Equal(g1, fetched)

	_, err = repo.GetGroup("missing")
	req.ErrorIs(err, errors.ErrGroupNotFound)
	req.ErrorIs(repo.SaveGroup(domain.Group{ID: "missing"}), errors.ErrNotFound)
}
