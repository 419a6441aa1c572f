package auth

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/shohabby/manga-uploader/pkg/logger"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// UserVerifier checks a token by fetching the user it belongs to.
type UserVerifier interface {
	CurrentUser(ctx context.Context, token string) (*data.UserInfo, error)
}

type credentialSource int

const (
	sourceNone credentialSource = iota
	sourceVault
	sourceDeviceFlow
)

// Authenticator runs the login: saved token first, device flow otherwise,
// and one fresh device flow when a saved token turns out to be invalid.
type Authenticator struct {
	vault    Vault
	flow     DeviceFlow
	verifier UserVerifier

	// OnCode is called with the device code before polling starts.
	OnCode func(DeviceCode)

	mu    sync.Mutex
	user  *data.UserInfo
	token string
}

func NewAuthenticator(vault Vault, flow DeviceFlow, verifier UserVerifier) *Authenticator {
	return &Authenticator{vault: vault, flow: flow, verifier: verifier}
}

func (a *Authenticator) HasSavedCredentials() bool {
	token, err := a.vault.Get()
	return err == nil && token != ""
}

func (a *Authenticator) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user != nil
}

func (a *Authenticator) User() *data.UserInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

func (a *Authenticator) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *Authenticator) Authenticate(ctx context.Context) (*data.UserInfo, error) {
	if user := a.User(); user != nil {
		return user, nil
	}
	log := logger.For("auth")

	token, source, err := a.fetchToken(ctx, true)
	if err != nil {
		return nil, err
	}

	user, err := a.verifier.CurrentUser(ctx, token)
	if err != nil {
		log.WithError(err).Warn("invalid credentials detected, deleting existing token")
		if derr := a.vault.Delete(); derr != nil {
			log.WithError(derr).Warn("could not delete token")
		}

		switch source {
		case sourceVault:
			// Saved token went stale, get a fresh one.
		case sourceDeviceFlow:
			return nil, errors.Wrap(ErrNotAuthenticated, err.Error())
		default:
			return nil, errors.Errorf("unknown credential source %d", source)
		}

		token, _, err = a.fetchToken(ctx, false)
		if err != nil {
			return nil, err
		}
		user, err = a.verifier.CurrentUser(ctx, token)
		if err != nil {
			if derr := a.vault.Delete(); derr != nil {
				log.WithError(derr).Warn("could not delete token")
			}
			return nil, errors.Wrap(ErrNotAuthenticated, err.Error())
		}
	}

	log.WithField("login", user.Login).Info("authenticated to GitHub")

	a.mu.Lock()
	a.user = user
	a.token = token
	a.mu.Unlock()
	return user, nil
}

func (a *Authenticator) fetchToken(ctx context.Context, checkVault bool) (string, credentialSource, error) {
	if checkVault {
		token, err := a.vault.Get()
		if err == nil && token != "" {
			return token, sourceVault, nil
		}
		if err != nil && !errors.Is(err, ErrNoCredentials) {
			logger.For("auth").WithError(err).Warn("could not read saved token")
		}
	}

	code, err := a.flow.Start(ctx)
	if err != nil {
		return "", sourceNone, err
	}
	if a.OnCode != nil {
		a.OnCode(*code)
	}

	token, err := a.flow.Poll(ctx, code)
	if err != nil {
		logger.For("auth").WithError(err).Error("could not get GitHub OAuth token")
		return "", sourceNone, errors.Wrap(ErrNotAuthenticated, err.Error())
	}

	if err := a.vault.Set(token); err != nil {
		// The session still works, it just will not be remembered.
		logger.For("auth").WithError(err).Warn("could not save token")
	}
	return token, sourceDeviceFlow, nil
}

// Disconnect forgets the session and the saved token.
func (a *Authenticator) Disconnect() error {
	a.mu.Lock()
	a.user = nil
	a.token = ""
	a.mu.Unlock()
	return a.vault.Delete()
}
