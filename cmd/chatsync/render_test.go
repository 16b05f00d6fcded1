package main

import (
	"bytes"
	"chat-sync/domain"
	"chat-sync/services"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	req := require.New(t)
	mine := domain.Message{SenderID: "alice", ReadBy: []string{"alice"}}

	req.Equal("sent", status("alice", mine))
	req.Equal("seen", status("alice", mine.WithReader("bob")))
	req.Empty(status("bob", mine))

	group := domain.Message{SenderID: "alice", IsGroup: true, ReadBy: []string{"alice", "bob", "carol"}}
	req.Equal("seen by 2", status("alice", group))
}

func TestPrinter_TimelineIsOldestFirst(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	p := newPrinter(&out, false)

	p.timeline("alice", []domain.Message{
		{ID: "m2", SenderID: "bob", Text: "second", CreatedAt: 2000},
		{ID: "m1", SenderID: "alice", Text: "first", CreatedAt: 1000, Edited: true},
	})

	text := out.String()
	req.Contains(text, "first (edited)")
	req.Less(bytes.Index(out.Bytes(), []byte("first")), bytes.Index(out.Bytes(), []byte("second")))
}

func TestPrinter_DirectoryShowsLastMessages(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	p := newPrinter(&out, false)

	p.directory([]services.Preview{
		{Peer: domain.Identity{ID: "bob@x.com", Username: "bob"}, Last: &domain.Message{Text: "see you"}},
		{Peer: domain.Identity{ID: "carol@x.com"}},
	})

	req.Contains(out.String(), "see you")
	req.Contains(out.String(), "No messages yet")
}
