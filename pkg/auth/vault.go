package auth

import (
	"github.com/pkg/errors"
	"github.com/zalando/go-keyring"
)

const (
	// VaultService and VaultUser key the token in the OS credential store.
	VaultService = "https://github.com/"
	VaultUser    = "sho-habby-manga-uploader"
)

var ErrNoCredentials = errors.New("no saved credentials")

// Vault stores the GitHub token between runs.
type Vault interface {
	Get() (string, error)
	Set(token string) error
	Delete() error
}

// KeyringVault keeps the token in the OS keychain / secret service / wincred.
type KeyringVault struct {
	Service string
	User    string
}

func NewKeyringVault() *KeyringVault {
	return &KeyringVault{Service: VaultService, User: VaultUser}
}

func (v *KeyringVault) Get() (string, error) {
	token, err := keyring.Get(v.Service, v.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoCredentials
	}
	if err != nil {
		return "", errors.Wrap(err, "read credential store")
	}
	return token, nil
}

func (v *KeyringVault) Set(token string) error {
	return errors.Wrap(keyring.Set(v.Service, v.User, token), "write credential store")
}

func (v *KeyringVault) Delete() error {
	err := keyring.Delete(v.Service, v.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return errors.Wrap(err, "delete from credential store")
}
