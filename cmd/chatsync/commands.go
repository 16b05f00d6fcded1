package main

import (
	"bufio"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/services"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *app) signUp(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: signup <email>", errors.ErrValidation)
	}
	password, err := readSecret("Password: ")
	if err != nil {
		return err
	}
	confirmation, err := readSecret("Confirm password: ")
	if err != nil {
		return err
	}
	identity, err := a.device.SignUpWithConfirmation(ctx, args[0], password, confirmation)
	if err != nil {
		return err
	}
	a.out.success("Welcome %s", identity.Email)
	return nil
}

func (a *app) signIn(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: signin <email>", errors.ErrValidation)
	}
	password, err := readSecret("Password: ")
	if err != nil {
		return err
	}
	identity, err := a.device.SignIn(ctx, args[0], password)
	if err != nil {
		return err
	}
	a.out.success("Signed in as %s", identity.Email)
	return nil
}

func (a *app) whoAmI(ctx context.Context) error {
	identity, err := a.identity(ctx)
	if err != nil {
		return err
	}
	a.out.identities([]domain.Identity{identity})
	return nil
}

// searchUsers lists the directory with the last message of each conversation.
func (a *app) searchUsers(ctx context.Context, args []string) error {
	identity, err := a.identity(ctx)
	if err != nil {
		return err
	}
	users, err := a.users.SearchUsers(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	a.out.directory(a.previews.Load(ctx, identity.ID, users))
	return nil
}

func (a *app) updateProfile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: profile <username>", errors.ErrValidation)
	}
	if _, err := a.identity(ctx); err != nil {
		return err
	}
	identity, err := a.users.UpdateProfile(ctx, services.ProfileUpdate{Username: args[0]})
	if err != nil {
		return err
	}
	a.out.identities([]domain.Identity{identity})
	return nil
}

func (a *app) listGroups(ctx context.Context) error {
	if _, err := a.identity(ctx); err != nil {
		return err
	}
	groups, err := a.groups.ListGroups(ctx)
	if err != nil {
		return err
	}
	a.out.groups(groups)
	return nil
}

func (a *app) createGroup(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: group-create <name> [member...]", errors.ErrValidation)
	}
	if _, err := a.identity(ctx); err != nil {
		return err
	}
	group, err := a.groups.CreateGroup(ctx, services.CreateGroupRequest{Name: args[0], Members: args[1:]})
	if err != nil {
		return err
	}
	a.out.groups([]domain.Group{group})
	return nil
}

func (a *app) changeMember(ctx context.Context, add bool, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: expected <group> <member>", errors.ErrValidation)
	}
	if _, err := a.identity(ctx); err != nil {
		return err
	}
	change := a.groups.RemoveMember
	if add {
		change = a.groups.AddMember
	}
	group, err := change(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	a.out.groups([]domain.Group{group})
	return nil
}

func (a *app) renameGroup(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: group-rename <group> <name>", errors.ErrValidation)
	}
	if _, err := a.identity(ctx); err != nil {
		return err
	}
	group, err := a.groups.Rename(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	a.out.groups([]domain.Group{group})
	return nil
}

// identity restores the stored sign in when the device has none yet.
func (a *app) identity(ctx context.Context) (domain.Identity, error) {
	if identity, ok := a.device.CurrentIdentity(); ok {
		return identity, nil
	}
	identity, err := a.device.Restore(ctx)
	if errors.Is(err, errors.ErrNoCredentialsStored) {
		return domain.Identity{}, fmt.Errorf("%w: run chatsync signin first", errors.ErrNotAuthenticated)
	}
	return identity, err
}

var stdin = bufio.NewReader(os.Stdin)

// readSecret reads CHATSYNC_PASSWORD when set, a line of stdin otherwise.
func readSecret(prompt string) (string, error) {
	if password, ok := os.LookupEnv("CHATSYNC_PASSWORD"); ok {
		return password, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
