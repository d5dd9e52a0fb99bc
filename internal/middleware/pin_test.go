package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmckenna/chorewheel/internal/database"
	"github.com/jmckenna/chorewheel/internal/store"
)

func newSettings(t *testing.T) *store.SettingsStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSettingsStore(db)
}

func gated(t *testing.T, settings *store.SettingsStore) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RequireAdminPIN(settings)(next)
}

func TestRequireAdminPINNoHashPassesThrough(t *testing.T) {
	handler := gated(t, newSettings(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/admin/reset", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d without configured PIN, want 200", rec.Code)
	}
}

func TestRequireAdminPIN(t *testing.T) {
	settings := newSettings(t)
	hash, err := HashPIN("1234")
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	if err := settings.Set(store.SettingAdminPINHash, hash); err != nil {
		t.Fatalf("set hash: %v", err)
	}
	handler := gated(t, settings)

	// Missing PIN
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/admin/reset", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d without PIN header, want 401", rec.Code)
	}

	// Wrong PIN
	req := httptest.NewRequest("POST", "/api/admin/reset", nil)
	req.Header.Set(PINHeader, "9999")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d with wrong PIN, want 403", rec.Code)
	}

	// Correct PIN
	req = httptest.NewRequest("POST", "/api/admin/reset", nil)
	req.Header.Set(PINHeader, "1234")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d with correct PIN, want 200", rec.Code)
	}
}

func TestVerifyPIN(t *testing.T) {
	hash, err := HashPIN("4321")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPIN(hash, "4321") {
		t.Error("correct PIN rejected")
	}
	if VerifyPIN(hash, "1234") {
		t.Error("wrong PIN accepted")
	}
}
