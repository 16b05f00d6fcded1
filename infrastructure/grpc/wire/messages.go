package wire

import (
	"chat-sync/codec"
	"chat-sync/domain"
)

// Field numbers of every payload start at 1 and are part of the wire format.

type Empty struct{}

func (*Empty) MarshalWire() []byte { return nil }

func (*Empty) UnmarshalWire([]byte) error { return nil }

type FetchPageRequest struct {
	Conversation domain.ConversationID
	Filter       domain.Filter
	PageSize     int
	Before       *int64
}

func (r *FetchPageRequest) MarshalWire() []byte {
	return codec.Record(nil).
		Str(1, string(r.Conversation)).
		Embed(2, codec.EncodeFilter(r.Filter)).
		Varint(3, int64(r.PageSize)).
		OptInt(4, r.Before)
}

func (r *FetchPageRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			r.Conversation = domain.ConversationID(f.S)
		case 2:
			r.Filter, err = codec.DecodeFilter(f.Bytes())
		case 3:
			r.PageSize = int(f.Int())
		case 4:
			before := f.Int()
			r.Before = &before
		}
		return err
	})
}

type MessagesResponse struct {
	Messages []domain.Message
}

func (r *MessagesResponse) MarshalWire() []byte {
	out := codec.Record(nil)
	for _, m := range r.Messages {
		out = out.Embed(1, codec.EncodeMessage(m))
	}
	return out
}

func (r *MessagesResponse) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		m, err := codec.DecodeMessage(f.Bytes())
		r.Messages = append(r.Messages, m)
		return err
	})
}

type CommitMessageRequest struct {
	Message domain.Message
}

func (r *CommitMessageRequest) MarshalWire() []byte {
	return codec.Record(nil).Embed(1, codec.EncodeMessage(r.Message))
}

func (r *CommitMessageRequest) UnmarshalWire(b []byte) error {
	return decodeOneMessage(b, &r.Message)
}

type MessageResponse struct {
	Message domain.Message
}

func (r *MessageResponse) MarshalWire() []byte {
	return codec.Record(nil).Embed(1, codec.EncodeMessage(r.Message))
}

func (r *MessageResponse) UnmarshalWire(b []byte) error {
	return decodeOneMessage(b, &r.Message)
}

func decodeOneMessage(b []byte, into *domain.Message) error {
	return codec.Decode(b, func(f codec.Field) (err error) {
		if f.Num == 1 {
			*into, err = codec.DecodeMessage(f.Bytes())
		}
		return err
	})
}

type UpdateMessageRequest struct {
	ID   string
	Edit domain.MessageEdit
}

func (r *UpdateMessageRequest) MarshalWire() []byte {
	return codec.Record(nil).
		Str(1, r.ID).
		Embed(2, codec.EncodeEdit(r.Edit))
}

func (r *UpdateMessageRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			r.ID = f.S
		case 2:
			r.Edit, err = codec.DecodeEdit(f.Bytes())
		}
		return err
	})
}

type DeleteMessageRequest struct {
	ID string
}

func (r *DeleteMessageRequest) MarshalWire() []byte {
	return codec.Record(nil).Str(1, r.ID)
}

func (r *DeleteMessageRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		if f.Num == 1 {
			r.ID = f.S
		}
		return nil
	})
}

type BatchMarkReadRequest struct {
	IDs      []string
	ReaderID string
}

func (r *BatchMarkReadRequest) MarshalWire() []byte {
	return codec.Record(nil).
		Strs(1, r.IDs).
		Str(2, r.ReaderID)
}

func (r *BatchMarkReadRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		switch f.Num {
		case 1:
			r.IDs = append(r.IDs, f.S)
		case 2:
			r.ReaderID = f.S
		}
		return nil
	})
}

type SubscribeRequest struct {
	Conversation domain.ConversationID
	Filter       domain.Filter
}

func (r *SubscribeRequest) MarshalWire() []byte {
	return codec.Record(nil).
		Str(1, string(r.Conversation)).
		Embed(2, codec.EncodeFilter(r.Filter))
}

func (r *SubscribeRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			r.Conversation = domain.ConversationID(f.S)
		case 2:
			r.Filter, err = codec.DecodeFilter(f.Bytes())
		}
		return err
	})
}

type LastMessageRequest struct {
	Conversation domain.ConversationID
}

func (r *LastMessageRequest) MarshalWire() []byte {
	return codec.Record(nil).Str(1, string(r.Conversation))
}

func (r *LastMessageRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		if f.Num == 1 {
			r.Conversation = domain.ConversationID(f.S)
		}
		return nil
	})
}

// LastMessageResponse leaves Message nil for a conversation without messages.
type LastMessageResponse struct {
	Message *domain.Message
}

func (r *LastMessageResponse) MarshalWire() []byte {
	if r.Message == nil {
		return nil
	}
	return codec.Record(nil).Embed(1, codec.EncodeMessage(*r.Message))
}

func (r *LastMessageResponse) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		m, err := codec.DecodeMessage(f.Bytes())
		r.Message = &m
		return err
	})
}

type CredentialsRequest struct {
	Email    string
	Password string
}

func (r *CredentialsRequest) MarshalWire() []byte {
	return codec.Record(nil).
		Str(1, r.Email).
		Str(2, r.Password)
}

func (r *CredentialsRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		switch f.Num {
		case 1:
			r.Email = f.S
		case 2:
			r.Password = f.S
		}
		return nil
	})
}

type AuthResponse struct {
	Identity domain.Identity
	Token    string
}

func (r *AuthResponse) MarshalWire() []byte {
	return codec.Record(nil).
		Embed(1, codec.EncodeIdentity(r.Identity)).
		Str(2, r.Token)
}

func (r *AuthResponse) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			r.Identity, err = codec.DecodeIdentity(f.Bytes())
		case 2:
			r.Token = f.S
		}
		return err
	})
}

type IdentityResponse struct {
	Identity domain.Identity
}

func (r *IdentityResponse) MarshalWire() []byte {
	return codec.Record(nil).Embed(1, codec.EncodeIdentity(r.Identity))
}

func (r *IdentityResponse) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) (err error) {
		if f.Num == 1 {
			r.Identity, err = codec.DecodeIdentity(f.Bytes())
		}
		return err
	})
}

type GroupRequest struct {
	GroupID string
}

func (r *GroupRequest) MarshalWire() []byte {
	return codec.Record(nil).Str(1, r.GroupID)
}

func (r *GroupRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		if f.Num == 1 {
			r.GroupID = f.S
		}
		return nil
	})
}

type CreateGroupRequest struct {
	Name    string
	Members []string
	Photo   []byte
}

func (r *CreateGroupRequest) MarshalWire() []byte {
	return codec.Record(nil).
		Str(1, r.Name).
		Strs(2, r.Members).
		Bytes(3, r.Photo)
}

func (r *CreateGroupRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		switch f.Num {
		case 1:
			r.Name = f.S
		case 2:
			r.Members = append(r.Members, f.S)
		case 3:
			r.Photo = f.Bytes()
		}
		return nil
	})
}

type MemberRequest struct {
	GroupID  string
	MemberID string
}

func (r *MemberRequest) MarshalWire() []byte {
	return codec.Record(nil).
		Str(1, r.GroupID).
		Str(2, r.MemberID)
}

func (r *MemberRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		switch f.Num {
		case 1:
			r.GroupID = f.S
		case 2:
			r.MemberID = f.S
		}
		return nil
	})
}

type RenameGroupRequest struct {
	GroupID string
	Name    string
}

func (r *RenameGroupRequest) MarshalWire() []byte {
	return codec.Record(nil).
		Str(1, r.GroupID).
		Str(2, r.Name)
}

func (r *RenameGroupRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		switch f.Num {
		case 1:
			r.GroupID = f.S
		case 2:
			r.Name = f.S
		}
		return nil
	})
}

type GroupResponse struct {
	Group domain.Group
}

func (r *GroupResponse) MarshalWire() []byte {
	return codec.Record(nil).Embed(1, codec.EncodeGroup(r.Group))
}

func (r *GroupResponse) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) (err error) {
		if f.Num == 1 {
			r.Group, err = codec.DecodeGroup(f.Bytes())
		}
		return err
	})
}

type GroupsResponse struct {
	Groups []domain.Group
}

func (r *GroupsResponse) MarshalWire() []byte {
	out := codec.Record(nil)
	for _, g := range r.Groups {
		out = out.Embed(1, codec.EncodeGroup(g))
	}
	return out
}

func (r *GroupsResponse) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		g, err := codec.DecodeGroup(f.Bytes())
		r.Groups = append(r.Groups, g)
		return err
	})
}

type SearchUsersRequest struct {
	Query string
}

func (r *SearchUsersRequest) MarshalWire() []byte {
	return codec.Record(nil).Str(1, r.Query)
}

func (r *SearchUsersRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		if f.Num == 1 {
			r.Query = f.S
		}
		return nil
	})
}

type UsersResponse struct {
	Users []domain.Identity
}

func (r *UsersResponse) MarshalWire() []byte {
	out := codec.Record(nil)
	for _, u := range r.Users {
		out = out.Embed(1, codec.EncodeIdentity(u))
	}
	return out
}

func (r *UsersResponse) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		u, err := codec.DecodeIdentity(f.Bytes())
		r.Users = append(r.Users, u)
		return err
	})
}

type ProfileRequest struct {
	Username string
	Photo    []byte
}

func (r *ProfileRequest) MarshalWire() []byte {
	return codec.Record(nil).
		Str(1, r.Username).
		Bytes(2, r.Photo)
}

func (r *ProfileRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		switch f.Num {
		case 1:
			r.Username = f.S
		case 2:
			r.Photo = f.Bytes()
		}
		return nil
	})
}

type RegisterTokenRequest struct {
	Token string
}

func (r *RegisterTokenRequest) MarshalWire() []byte {
	return codec.Record(nil).Str(1, r.Token)
}

func (r *RegisterTokenRequest) UnmarshalWire(b []byte) error {
	return codec.Decode(b, func(f codec.Field) error {
		if f.Num == 1 {
			r.Token = f.S
		}
		return nil
	})
}
