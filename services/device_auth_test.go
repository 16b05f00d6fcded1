package services

import (
	"bytes"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/mocks"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDeviceAuth_SignInSavesCredentialsAndRegistersDevice(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	accounts := mocks.NewMockAuthenticator(ctrl)
	prefs := mocks.NewMockLocalPreferences(ctrl)
	registry := mocks.NewMockPushTokenRegistry(ctrl)
	device := NewDeviceAuth(logs.GetLoggerFromLevel(slog.LevelDebug), accounts, prefs).
		WithPushToken(registry, "device-token")

	alice := domain.Identity{ID: "alice@x.com", Email: "alice@x.com"}

	// Given valid credentials
	accounts.EXPECT().Login(gomock.Any(), "alice@x.com", "pw").Return(alice, "jwt", nil)
	prefs.EXPECT().SaveCredentials(domain.Credentials{Email: "alice@x.com", Token: "jwt"}).Return(nil)
	registry.EXPECT().RegisterToken(gomock.Any(), "alice@x.com", "device-token").Return(nil)

	// When alice signs in
	identity, err := device.SignIn(ctx, "alice@x.com", "pw")

	// Then she is the current identity
	req.NoError(err)
	req.Equal(alice, identity)
	current, ok := device.CurrentIdentity()
	req.True(ok)
	req.Equal(alice, current)
	req.Equal("jwt", device.Token())

	// When she signs out, the credentials are forgotten
	prefs.EXPECT().ClearCredentials().Return(nil)
	req.NoError(device.SignOut(ctx))
	_, ok = device.CurrentIdentity()
	req.False(ok)
	req.Empty(device.Token())
}

func TestDeviceAuth_SignInFailureKeepsSignedOut(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockAuthenticator(ctrl)
	device := NewDeviceAuth(logs.GetLoggerFromLevel(slog.LevelDebug), accounts, nil)

	accounts.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Identity{}, "", errors.ErrInvalidCredentials)

	_, err := device.SignIn(context.Background(), "alice@x.com", "bad")

	req.ErrorIs(err, errors.ErrInvalidCredentials)
	_, ok := device.CurrentIdentity()
	req.False(ok)
}

func TestDeviceAuth_PushTokenFailureIsNotFatal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockAuthenticator(ctrl)
	registry := mocks.NewMockPushTokenRegistry(ctrl)
	device := NewDeviceAuth(logs.GetLoggerFromLevel(slog.LevelDebug), accounts, nil).WithPushToken(registry, "tok")

	accounts.EXPECT().Register(gomock.Any(), "bob@y.com", "pw").Return(domain.Identity{ID: "bob@y.com"}, "jwt", nil)
	registry.EXPECT().RegisterToken(gomock.Any(), "bob@y.com", "tok").Return(fmt.Errorf("unavailable"))

	_, err := device.SignUp(context.Background(), "bob@y.com", "pw")
	req.NoError(err)
}

func TestDeviceAuth_SignUpWithConfirmation(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockAuthenticator(ctrl)
	device := NewDeviceAuth(logs.GetLoggerFromLevel(slog.LevelDebug), accounts, nil)
	accounts.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := device.SignUpWithConfirmation(context.Background(), "bob@y.com", "ComplexPass123!", "ComplexPass321!")

	req.ErrorIs(err, errors.ErrPasswordMismatch)
	req.ErrorIs(err, errors.ErrValidation)
}

func TestDeviceAuth_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("valid stored token restores the identity", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		accounts := mocks.NewMockAuthenticator(ctrl)
		prefs := mocks.NewMockLocalPreferences(ctrl)
		device := NewDeviceAuth(logs.GetLoggerFromLevel(slog.LevelDebug), accounts, prefs)

		prefs.EXPECT().Credentials().Return(domain.Credentials{Email: "alice@x.com", Token: "jwt"}, true, nil)
		accounts.EXPECT().Resume(gomock.Any(), "jwt").Return(domain.Identity{ID: "alice@x.com"}, nil)

		identity, err := device.Restore(ctx)
		req.NoError(err)
		req.Equal("alice@x.com", identity.ID)
		req.Equal("jwt", device.Token())
	})

	t.Run("nothing stored", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		prefs := mocks.NewMockLocalPreferences(ctrl)
		device := NewDeviceAuth(logs.GetLoggerFromLevel(slog.LevelDebug), mocks.NewMockAuthenticator(ctrl), prefs)
		prefs.EXPECT().Credentials().Return(domain.Credentials{}, false, nil)

		_, err := device.Restore(ctx)
		require.ErrorIs(t, err, errors.ErrNoCredentialsStored)
	})

	t.Run("rejected token is cleared", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		accounts := mocks.NewMockAuthenticator(ctrl)
		prefs := mocks.NewMockLocalPreferences(ctrl)
		device := NewDeviceAuth(logs.GetLoggerFromLevel(slog.LevelDebug), accounts, prefs)

		prefs.EXPECT().Credentials().Return(domain.Credentials{Email: "alice@x.com", Token: "old"}, true, nil)
		accounts.EXPECT().Resume(gomock.Any(), "old").Return(domain.Identity{}, errors.ErrInvalidCredentials)
		prefs.EXPECT().ClearCredentials().Return(nil)

		_, err := device.Restore(ctx)
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("failing to clear a rejected token is logged", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		accounts := mocks.NewMockAuthenticator(ctrl)
		prefs := mocks.NewMockLocalPreferences(ctrl)
		var out bytes.Buffer
		device := NewDeviceAuth(slog.New(slog.NewTextHandler(&out, nil)), accounts, prefs)

		prefs.EXPECT().Credentials().Return(domain.Credentials{Email: "alice@x.com", Token: "old"}, true, nil)
		accounts.EXPECT().Resume(gomock.Any(), "old").Return(domain.Identity{}, errors.ErrInvalidCredentials)
		prefs.EXPECT().ClearCredentials().Return(fmt.Errorf("read-only file system"))

		_, err := device.Restore(ctx)
		req.ErrorIs(err, errors.ErrInvalidCredentials)
		_, ok := device.CurrentIdentity()
		req.False(ok)
		req.Contains(out.String(), "Stored credentials not cleared")
		req.Contains(out.String(), "read-only file system")
	})
}
