package repositories

import (
	"chat-sync/codec"
	"chat-sync/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDescribeEntry(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		req := require.New(t)
		msg := direct("hello", 1_700_000_000_000)
		msg.ID = "m1"
		msg.Attachments = []string{"https://cdn/x.png"}

		entry := DescribeEntry(string(messageKey(msg.ConversationID, msg.CreatedAt, msg.ID)), codec.EncodeMessage(msg))

		req.Equal("MESSAGE", entry.Kind)
		req.Equal("alice", entry.Owner)
		req.Equal(time.UnixMilli(1_700_000_000_000).UTC(), entry.At)
		req.Equal("hello [1 attachment(s)] read by alice", entry.Detail)
	})

	t.Run("group", func(t *testing.T) {
		req := require.New(t)
		group := domain.NewGroup("Team", "alice", []string{"bob"}, 42)
		group.ID = "g1"

		entry := DescribeEntry(string(groupKey(group.ID)), codec.EncodeGroup(group))

		req.Equal("GROUP", entry.Kind)
		req.Equal("alice", entry.Owner)
		req.Equal("Team (2 members)", entry.Detail)
	})

	t.Run("index and corrupt values", func(t *testing.T) {
		req := require.New(t)
		req.Equal("INDEX", DescribeEntry("msgid:m1", []byte("msg:alice-bob:1:m1")).Kind)

		corrupt := DescribeEntry("msg:alice-bob:1:m1", []byte{0xff})
		req.Equal("UNKNOWN", corrupt.Kind)
		req.Contains(corrupt.Detail, "decode failed")

		req.Equal("UNKNOWN", DescribeEntry("other", nil).Kind)
	})
}
