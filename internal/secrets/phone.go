package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"leadmart-engine/internal/config"
)

const (
	// "Service" groups the app's secrets in the OS keychain.
	KeyringService = "leadmart"
)

// GetLoginPhone resolves the operator's marketplace login number. The
// keyring wins; the plain-text config value is the fallback for setups
// without a keychain.
func GetLoginPhone(cfg config.Config) (string, error) {
	if acct := strings.TrimSpace(cfg.Auth.KeyringAccount); acct != "" {
		phone, err := keyring.Get(KeyringService, acct)
		if err == nil && strings.TrimSpace(phone) != "" {
			return strings.TrimSpace(phone), nil
		}
	}
	if p := strings.TrimSpace(cfg.Auth.Phone); p != "" {
		return p, nil
	}
	return "", errors.New("login phone not found (store it in the keychain or set auth.phone)")
}

func SetLoginPhone(keyringAccount, phone string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(phone) == "" {
		return errors.New("phone is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, phone)
}

func DeleteLoginPhone(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

// DefaultAccount derives a stable keyring account name from the login
// site, so multiple marketplaces can coexist under one service.
func DefaultAccount(cfg config.Config) string {
	return fmt.Sprintf("leadmart:login:%s", cfg.Site.LoginURL)
}
