package services

import (
	"chat-sync/auth"
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"context"
	"log/slog"
	"sync"
)

// DeviceAuth is the sign-in state of one device. It remembers the signed in identity,
// keeps the credentials in the local preferences and registers the device push token.
type DeviceAuth struct {
	log       *slog.Logger
	accounts  contract.Authenticator
	prefs     contract.LocalPreferences
	registry  contract.PushTokenRegistry
	pushToken string

	mu      sync.RWMutex
	current *domain.Identity
	token   string
}

func NewDeviceAuth(log *slog.Logger, accounts contract.Authenticator, prefs contract.LocalPreferences) *DeviceAuth {
	return &DeviceAuth{log: log, accounts: accounts, prefs: prefs}
}

// WithPushToken registers token for the identity after every sign in.
func (d *DeviceAuth) WithPushToken(registry contract.PushTokenRegistry, token string) *DeviceAuth {
	d.registry = registry
	d.pushToken = token
	return d
}

func (d *DeviceAuth) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	identity, token, err := d.accounts.Login(ctx, email, password)
	if err != nil {
		return domain.Identity{}, err
	}
	return d.establish(ctx, identity, token)
}

func (d *DeviceAuth) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	identity, token, err := d.accounts.Register(ctx, email, password)
	if err != nil {
		return domain.Identity{}, err
	}
	return d.establish(ctx, identity, token)
}

// SignUpWithConfirmation rejects mismatching passwords before anything is sent.
func (d *DeviceAuth) SignUpWithConfirmation(ctx context.Context, email, password, confirmation string) (domain.Identity, error) {
	err := auth.ValidateConfirmedRegister(auth.ConfirmedRegisterRequest{
		RegisterRequest: auth.RegisterRequest{Email: email, Password: password},
		Confirmation:    confirmation,
	})
	if err != nil {
		return domain.Identity{}, err
	}
	return d.SignUp(ctx, email, password)
}

// Restore signs in again with the credentials saved by a previous session.
func (d *DeviceAuth) Restore(ctx context.Context) (domain.Identity, error) {
	if d.prefs == nil {
		return domain.Identity{}, errors.ErrNoCredentialsStored
	}
	creds, ok, err := d.prefs.Credentials()
	if err != nil {
		return domain.Identity{}, err
	}
	if !ok {
		return domain.Identity{}, errors.ErrNoCredentialsStored
	}
	identity, err := d.accounts.Resume(ctx, creds.Token)
	if errors.Is(err, errors.ErrInvalidCredentials) {
		d.log.Info("Stored credentials rejected, clearing them", "email", creds.Email)
		if clearErr := d.prefs.ClearCredentials(); clearErr != nil {
			d.log.Warn("Stored credentials not cleared", "email", creds.Email, "error", clearErr)
		}
	}
	if err != nil {
		return domain.Identity{}, err
	}
	d.setCurrent(identity, creds.Token)
	return identity, nil
}

func (d *DeviceAuth) SignOut(_ context.Context) error {
	d.mu.Lock()
	d.current = nil
	d.token = ""
	d.mu.Unlock()

	if d.prefs == nil {
		return nil
	}
	return d.prefs.ClearCredentials()
}

func (d *DeviceAuth) CurrentIdentity() (domain.Identity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.current == nil {
		return domain.Identity{}, false
	}
	return *d.current, true
}

// Token is the bearer token of the current identity, empty when signed out.
func (d *DeviceAuth) Token() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.token
}

func (d *DeviceAuth) establish(ctx context.Context, identity domain.Identity, token string) (domain.Identity, error) {
	d.setCurrent(identity, token)
	if d.prefs != nil {
		if err := d.prefs.SaveCredentials(domain.Credentials{Email: identity.Email, Token: token}); err != nil {
			d.log.Warn("Credentials not saved", "email", identity.Email, "error", err)
		}
	}
	if d.registry != nil && d.pushToken != "" {
		if err := d.registry.RegisterToken(ctx, identity.ID, d.pushToken); err != nil {
			d.log.Warn("Push token not registered", "email", identity.Email, "error", err)
		}
	}
	return identity, nil
}

func (d *DeviceAuth) setCurrent(identity domain.Identity, token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = &identity
	d.token = token
}
