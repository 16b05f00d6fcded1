//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"bytes"
	"chat-sync/codec"
	"chat-sync/domain"
	"chat-sync/errors"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IGroupRepository interface {
	CreateGroup(group domain.Group) (domain.Group, error)
	GetGroup(groupID string) (domain.Group, error)
	ListGroupsForMember(memberID string) ([]domain.Group, error)
	SaveGroup(group domain.Group) error
}

type GroupRepository struct {
	db *badger.DB
}

func NewGroupRepository(db *badger.DB) IGroupRepository {
	return &GroupRepository{db: db}
}

func groupKey(id string) []byte {
	return []byte("group:" + id)
}

// memberKey indexes groups by member: "member:{member}:{group}".
func memberKey(memberID, groupID string) []byte {
	return []byte("member:" + memberID + ":" + groupID)
}

// CreateGroup assigns the group id.
func (g GroupRepository) CreateGroup(group domain.Group) (domain.Group, error) {
	group.ID = uuid.NewString()
	err := g.db.Update(func(txn *badger.Txn) error {
		return putGroup(txn, group, nil)
	})
	if err != nil {
		return domain.Group{}, err
	}
	return group, nil
}

// GetGroup returns ErrGroupNotFound for unknown ids.
func (g GroupRepository) GetGroup(groupID string) (domain.Group, error) {
	var group domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		var err error
		group, err = getGroup(txn, groupID)
		return err
	})
	return group, err
}

// SaveGroup overwrites an existing group and keeps the member index in step.
func (g GroupRepository) SaveGroup(group domain.Group) error {
	return g.db.Update(func(txn *badger.Txn) error {
		previous, err := getGroup(txn, group.ID)
		if err != nil {
			return err
		}
		return putGroup(txn, group, previous.Members)
	})
}

func (g GroupRepository) ListGroupsForMember(memberID string) ([]domain.Group, error) {
	var groups []domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		prefix := []byte("member:" + memberID + ":")
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			groupID := string(bytes.TrimPrefix(it.Item().Key(), prefix))
			group, err := getGroup(txn, groupID)
			if err != nil {
				return err
			}
			groups = append(groups, group)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt > groups[j].CreatedAt })
	return groups, nil
}

func putGroup(txn *badger.Txn, group domain.Group, previousMembers []string) error {
	for _, member := range previousMembers {
		if !group.IsMember(member) {
			if err := txn.Delete(memberKey(member, group.ID)); err != nil {
				return err
			}
		}
	}
	for _, member := range group.Members {
		if err := txn.Set(memberKey(member, group.ID), nil); err != nil {
			return err
		}
	}
	return txn.Set(groupKey(group.ID), codec.EncodeGroup(group))
}

func getGroup(txn *badger.Txn, groupID string) (domain.Group, error) {
	if groupID == "" {
		return domain.Group{}, errors.ErrInvalidIdentifier
	}
	item, err := txn.Get(groupKey(groupID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Group{}, errors.ErrGroupNotFound
	}
	if err != nil {
		return domain.Group{}, err
	}
	var group domain.Group
	err = item.Value(func(val []byte) error {
		group, err = codec.DecodeGroup(val)
		return err
	})
	return group, err
}
