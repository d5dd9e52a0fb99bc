package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/jmckenna/chorewheel/internal/store"
)

// PINHeader carries the admin PIN on protected requests. The admin panel
// prompts once and replays the value on every privileged call.
const PINHeader = "X-Admin-Pin"

// RequireAdminPIN gates privileged routes behind the admin PIN. When no PIN
// hash has been configured yet, requests pass through so first-run setup works.
func RequireAdminPIN(settings *store.SettingsStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hash, err := settings.Get(store.SettingAdminPINHash)
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if hash == "" {
				next.ServeHTTP(w, r)
				return
			}

			pin := r.Header.Get(PINHeader)
			if pin == "" {
				http.Error(w, "Admin PIN required", http.StatusUnauthorized)
				return
			}
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
				http.Error(w, "Invalid admin PIN", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HashPIN produces a bcrypt hash suitable for storing in settings.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPIN checks a candidate PIN against the stored hash.
func VerifyPIN(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
