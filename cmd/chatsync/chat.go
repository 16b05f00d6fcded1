package main

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/runtime"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const chatHelp = `/more          load older messages
/edit <id> <text>
/delete <id>
/attach <file> queue a file for the next message
/quit`

func (a *app) openRegistry(ctx context.Context) (domain.Identity, *runtime.Registry, error) {
	identity, err := a.identity(ctx)
	if err != nil {
		return domain.Identity{}, nil, err
	}
	registry := runtime.NewRegistry(a.log, identity.ID, runtime.Dependencies{
		Store:  a.store,
		Blobs:  a.blobs,
		Groups: a.groups,
	}, a.session)
	return identity, registry, nil
}

func target(viewerID string, args []string, group bool) (domain.Target, error) {
	if len(args) != 1 {
		return domain.Target{}, fmt.Errorf("%w: expected one peer or group id", errors.ErrValidation)
	}
	if group {
		return domain.GroupTarget(viewerID, args[0]), nil
	}
	return domain.DirectTarget(viewerID, strings.ToLower(strings.TrimSpace(args[0]))), nil
}

// history prints the first page of a conversation once it has loaded.
func (a *app) history(ctx context.Context, args []string) error {
	identity, registry, err := a.openRegistry(ctx)
	if err != nil {
		return err
	}
	defer registry.CloseAll()

	t, err := target(identity.ID, args, false)
	if err != nil {
		return err
	}
	session, err := registry.Open(ctx, t)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			if err := session.LastError(runtime.OpOpen); err != nil {
				return err
			}
			return ctx.Err()
		case update := <-session.Updates():
			if update.Kind == runtime.UpdateView && session.State() == runtime.StateOpen && !session.Loading() {
				a.out.timeline(identity.ID, update.View)
				return nil
			}
		}
	}
}

// chat renders the conversation on every update and sends each line typed.
func (a *app) chat(ctx context.Context, args []string, group bool) error {
	identity, registry, err := a.openRegistry(ctx)
	if err != nil {
		return err
	}
	defer registry.CloseAll()

	t, err := target(identity.ID, args, group)
	if err != nil {
		return err
	}
	session, err := registry.Open(ctx, t)
	if err != nil {
		return err
	}
	session.SetVisible(true)
	a.out.info("Chatting in %s (/help for commands)", session.Conversation())

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := stdin.ReadString('\n')
			if line = strings.TrimSpace(line); line != "" {
				lines <- line
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-session.Updates():
			switch update.Kind {
			case runtime.UpdateView:
				a.out.timeline(identity.ID, update.View)
			case runtime.UpdateError:
				a.out.failure("%s failed: %v", update.Op, update.Err)
			case runtime.UpdateState:
				a.log.Debug("Session state changed", "state", update.State.String())
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := a.handleLine(ctx, session, line)
			if err != nil {
				a.out.failure("%v", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func (a *app) handleLine(ctx context.Context, session *runtime.Session, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		_, err := session.Send(ctx, line)
		return false, err
	}
	command, rest, _ := strings.Cut(line, " ")
	switch command {
	case "/quit":
		return true, nil
	case "/help":
		a.out.info("%s", chatHelp)
		return false, nil
	case "/more":
		return false, session.LoadMore()
	case "/edit":
		id, text, ok := strings.Cut(rest, " ")
		if !ok {
			return false, fmt.Errorf("%w: /edit <id> <text>", errors.ErrValidation)
		}
		return false, session.Edit(ctx, id, text)
	case "/delete":
		return false, session.Delete(ctx, strings.TrimSpace(rest))
	case "/attach":
		path := strings.TrimSpace(rest)
		data, err := os.ReadFile(path)
		if err != nil {
			return false, err
		}
		attachment, err := session.AddAttachment(domain.Attachment{Name: filepath.Base(path), Data: data})
		if err != nil {
			return false, err
		}
		a.out.info("%s queued (%d pending)", attachment.Name, len(session.PendingAttachments()))
		return false, nil
	default:
		return false, fmt.Errorf("%w: unknown command %s", errors.ErrValidation, command)
	}
}
