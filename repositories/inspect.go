package repositories

import (
	"chat-sync/codec"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Entry is a human readable view of one stored record.
type Entry struct {
	Key    string
	Kind   string
	Owner  string
	At     time.Time
	Detail string
}

// DescribeEntry decodes the record under key for inspection tools.
// Index keys carry no record and are described by their key alone.
func DescribeEntry(key string, val []byte) Entry {
	entry := Entry{Key: key, Kind: "UNKNOWN"}
	switch {
	case strings.HasPrefix(key, "msgid:"), strings.HasPrefix(key, "member:"):
		entry.Kind = "INDEX"
		entry.Detail = string(val)
	case strings.HasPrefix(key, "msg:"):
		msg, err := codec.DecodeMessage(val)
		if err != nil {
			entry.Detail = fmt.Sprintf("decode failed: %v", err)
			return entry
		}
		entry.Kind = lo.Ternary(msg.IsGroup, "GROUP_MESSAGE", "MESSAGE")
		entry.Owner = msg.SenderID
		entry.At = time.UnixMilli(msg.CreatedAt).UTC()
		entry.Detail = msg.Text
		if len(msg.Attachments) > 0 {
			entry.Detail = strings.TrimSpace(fmt.Sprintf("%s [%d attachment(s)]", msg.Text, len(msg.Attachments)))
		}
		if len(msg.ReadBy) > 0 {
			entry.Detail += " read by " + strings.Join(msg.ReadBy, ",")
		}
	case strings.HasPrefix(key, userPrefix):
		user, err := decodeUser(val)
		if err != nil {
			entry.Detail = fmt.Sprintf("decode failed: %v", err)
			return entry
		}
		entry.Kind = "USER"
		entry.Owner = user.ID
		entry.At = user.CreatedAt
		entry.Detail = user.Username
	case strings.HasPrefix(key, "group:"):
		group, err := codec.DecodeGroup(val)
		if err != nil {
			entry.Detail = fmt.Sprintf("decode failed: %v", err)
			return entry
		}
		entry.Kind = "GROUP"
		entry.Owner = group.CreatedBy
		entry.At = time.UnixMilli(group.CreatedAt).UTC()
		entry.Detail = fmt.Sprintf("%s (%d members)", group.Name, len(group.Members))
	}
	return entry
}
