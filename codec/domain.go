package codec

import (
	"chat-sync/domain"

	"github.com/samber/lo"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	msgID protowire.Number = iota + 1
	msgConversationID
	msgSenderID
	msgRecipientID
	msgText
	msgAttachments
	msgCreatedAt
	msgEdited
	msgEditedAt
	msgReadBy
	msgIsGroup
	msgGroupID
)

const (
	groupID protowire.Number = iota + 1
	groupName
	groupCreatedBy
	groupCreatedAt
	groupMembers
	groupPhotoURL
)

// Identity numbers match the first fields of the stored user record, so a user
// record decodes as an identity.
const (
	identityID protowire.Number = iota + 1
	identityEmail
	identityUsername
	identityPhotoURL
	_ // password hash, stored only
	identityCreatedAt
	identityPushTokens
)

const (
	filterGroup protowire.Number = iota + 1
	filterLimit
)

const (
	editText protowire.Number = iota + 1
	editEditedAt
)

func EncodeMessage(m domain.Message) []byte {
	return Record(nil).
		Str(msgID, m.ID).
		Str(msgConversationID, string(m.ConversationID)).
		Str(msgSenderID, m.SenderID).
		Str(msgRecipientID, m.RecipientID).
		Str(msgText, m.Text).
		Strs(msgAttachments, m.Attachments).
		Varint(msgCreatedAt, m.CreatedAt).
		Flag(msgEdited, m.Edited).
		OptInt(msgEditedAt, m.EditedAt).
		Strs(msgReadBy, m.ReadBy).
		Flag(msgIsGroup, m.IsGroup).
		Str(msgGroupID, m.GroupID)
}

func DecodeMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	err := Decode(b, func(f Field) error {
		switch f.Num {
		case msgID:
			m.ID = f.S
		case msgConversationID:
			m.ConversationID = domain.ConversationID(f.S)
		case msgSenderID:
			m.SenderID = f.S
		case msgRecipientID:
			m.RecipientID = f.S
		case msgText:
			m.Text = f.S
		case msgAttachments:
			m.Attachments = append(m.Attachments, f.S)
		case msgCreatedAt:
			m.CreatedAt = f.Int()
		case msgEdited:
			m.Edited = f.Bool()
		case msgEditedAt:
			m.EditedAt = lo.ToPtr(f.Int())
		case msgReadBy:
			m.ReadBy = append(m.ReadBy, f.S)
		case msgIsGroup:
			m.IsGroup = f.Bool()
		case msgGroupID:
			m.GroupID = f.S
		}
		return nil
	})
	return m, err
}

func EncodeGroup(g domain.Group) []byte {
	return Record(nil).
		Str(groupID, g.ID).
		Str(groupName, g.Name).
		Str(groupCreatedBy, g.CreatedBy).
		Varint(groupCreatedAt, g.CreatedAt).
		Strs(groupMembers, g.Members).
		OptStr(groupPhotoURL, g.PhotoURL)
}

func DecodeGroup(b []byte) (domain.Group, error) {
	var g domain.Group
	err := Decode(b, func(f Field) error {
		switch f.Num {
		case groupID:
			g.ID = f.S
		case groupName:
			g.Name = f.S
		case groupCreatedBy:
			g.CreatedBy = f.S
		case groupCreatedAt:
			g.CreatedAt = f.Int()
		case groupMembers:
			g.Members = append(g.Members, f.S)
		case groupPhotoURL:
			g.PhotoURL = lo.ToPtr(f.S)
		}
		return nil
	})
	return g, err
}

func EncodeIdentity(i domain.Identity) []byte {
	return Record(nil).
		Str(identityID, i.ID).
		Str(identityEmail, i.Email).
		Str(identityUsername, i.Username).
		OptStr(identityPhotoURL, i.PhotoURL).
		Time(identityCreatedAt, i.CreatedAt).
		Strs(identityPushTokens, i.PushTokens)
}

func DecodeIdentity(b []byte) (domain.Identity, error) {
	var i domain.Identity
	err := Decode(b, func(f Field) error {
		switch f.Num {
		case identityID:
			i.ID = f.S
		case identityEmail:
			i.Email = f.S
		case identityUsername:
			i.Username = f.S
		case identityPhotoURL:
			i.PhotoURL = lo.ToPtr(f.S)
		case identityCreatedAt:
			i.CreatedAt = f.Time()
		case identityPushTokens:
			i.PushTokens = append(i.PushTokens, f.S)
		}
		return nil
	})
	return i, err
}

func EncodeFilter(f domain.Filter) []byte {
	return Record(nil).
		Flag(filterGroup, f.Group).
		Varint(filterLimit, int64(f.Limit))
}

func DecodeFilter(b []byte) (domain.Filter, error) {
	var filter domain.Filter
	err := Decode(b, func(f Field) error {
		switch f.Num {
		case filterGroup:
			filter.Group = f.Bool()
		case filterLimit:
			filter.Limit = int(f.Int())
		}
		return nil
	})
	return filter, err
}

func EncodeEdit(e domain.MessageEdit) []byte {
	return Record(nil).
		Str(editText, e.Text).
		Varint(editEditedAt, e.EditedAt)
}

func DecodeEdit(b []byte) (domain.MessageEdit, error) {
	var e domain.MessageEdit
	err := Decode(b, func(f Field) error {
		switch f.Num {
		case editText:
			e.Text = f.S
		case editEditedAt:
			e.EditedAt = f.Int()
		}
		return nil
	})
	return e, err
}
