package credential

import (
	"fmt"

	"github.com/99designs/keyring"

	"github.com/lmedina/mailboard/internal/model"
)

const serviceName = "mailboard"

// Well-known credential keys.
const (
	KeyIMAPPassword = "imap-password"
	KeyBoardsPAT    = "boards-pat"
)

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailboard/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailboard-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Resolve fills the secret fields of cfg from the keyring when
// credentials.use_keyring is set and the config file left them blank.
// Explicit config values always win.
func Resolve(cfg *model.Config) error {
	return resolve(cfg, Get)
}

// resolve is Resolve with the keyring lookup injected for testing.
func resolve(cfg *model.Config, get func(string) (string, error)) error {
	if !cfg.Credentials.UseKeyring {
		return nil
	}

	if cfg.IMAP.Password == "" {
		password, err := get(KeyIMAPPassword)
		if err != nil {
			return fmt.Errorf("resolving IMAP password: %w", err)
		}
		cfg.IMAP.Password = password
	}

	if cfg.Boards.PAT == "" {
		pat, err := get(KeyBoardsPAT)
		if err != nil {
			return fmt.Errorf("resolving boards PAT: %w", err)
		}
		cfg.Boards.PAT = pat
	}

	return nil
}

// KnownKey reports whether key names a credential this program manages.
func KnownKey(key string) bool {
	return key == KeyIMAPPassword || key == KeyBoardsPAT
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
