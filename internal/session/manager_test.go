package session

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/testutil"
)

func loginHandler(token string, user api.User) (string, http.HandlerFunc) {
	return "POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.ParseForm() != nil || r.PostFormValue("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"bad credentials"}`))
			return
		}
		result := api.LoginResult{AccessToken: token, TokenType: "bearer", User: user}
		_ = json.NewEncoder(w).Encode(result)
	}
}

func newTestManager(t *testing.T, fb *testutil.FakeBackend) (*Manager, *Store, *api.Client) {
	t.Helper()
	client := api.NewClient(fb.URL(), 0)
	store, err := NewStore(filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	mgr, err := NewManager(client, store)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return mgr, store, client
}

func TestLoginInstallsAndPersistsSession(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	user := testutil.TestUser()
	fb.Handle(loginHandler("tok-1", user))

	mgr, store, _ := newTestManager(t, fb)

	if mgr.Authenticated() {
		t.Fatal("authenticated before login")
	}

	if err := mgr.Login(context.Background(), user.Email, "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	snap := mgr.Snapshot()
	if !snap.Authenticated || snap.Token != "tok-1" || snap.User.Email != user.Email {
		t.Errorf("snapshot = %+v, want authenticated session for %s", snap, user.Email)
	}
	if snap.Authenticated != (snap.Token != "") {
		t.Error("Authenticated does not match token presence")
	}

	// The durable record matches the in-memory state.
	token, storedUser, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("store.Load: ok=%v err=%v", ok, err)
	}
	if token != "tok-1" || storedUser.Email != user.Email {
		t.Errorf("persisted token=%q user=%s, want committed session", token, storedUser.Email)
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	user := testutil.TestUser()
	fb.Handle(loginHandler("tok-1", user))

	mgr, store, _ := newTestManager(t, fb)

	if err := mgr.Login(context.Background(), user.Email, "wrong"); err == nil {
		t.Fatal("login succeeded with bad password")
	}
	if mgr.Authenticated() {
		t.Error("authenticated after rejected login")
	}
	if _, _, ok, _ := store.Load(); ok {
		t.Error("rejected login persisted credentials")
	}
}

func TestLogoutClearsLocallyDespiteBackendFailure(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	user := testutil.TestUser()
	fb.Handle(loginHandler("tok-1", user))
	fb.HandleJSON("POST /api/v1/auth/logout", http.StatusInternalServerError, map[string]string{"detail": "boom"})

	mgr, store, _ := newTestManager(t, fb)
	if err := mgr.Login(context.Background(), user.Email, "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	mgr.Logout(context.Background())

	if mgr.Authenticated() {
		t.Error("still authenticated after logout")
	}
	if _, ok := mgr.Token(); ok {
		t.Error("token still present after logout")
	}
	if _, _, ok, _ := store.Load(); ok {
		t.Error("durable record survived logout")
	}
}

func TestManagerRestoresPersistedSession(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	user := testutil.TestUser()

	client := api.NewClient(fb.URL(), 0)
	dbPath := filepath.Join(t.TempDir(), "console.db")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save("tok-restored", user); err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(client, store)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer store.Close()

	snap := mgr.Snapshot()
	if !snap.Authenticated || snap.Token != "tok-restored" {
		t.Errorf("snapshot = %+v, want restored session", snap)
	}
}

func TestCheckAuthClearsInvalidSession(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	user := testutil.TestUser()
	fb.Handle(loginHandler("tok-1", user))
	fb.HandleJSON("GET /api/v1/auth/me", http.StatusUnauthorized, map[string]string{"detail": "token expired"})

	mgr, store, _ := newTestManager(t, fb)
	if err := mgr.Login(context.Background(), user.Email, "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := mgr.CheckAuth(context.Background()); err == nil {
		t.Fatal("CheckAuth succeeded against a 401 backend")
	}
	if mgr.Authenticated() {
		t.Error("still authenticated after failed revalidation")
	}
	if _, _, ok, _ := store.Load(); ok {
		t.Error("durable record survived failed revalidation")
	}
}

func TestCheckAuthRefreshesIdentity(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	user := testutil.TestUser()
	fb.Handle(loginHandler("tok-1", user))

	renamed := user
	renamed.FullName = "Renamed Operator"
	fb.HandleJSON("GET /api/v1/auth/me", http.StatusOK, renamed)

	mgr, _, _ := newTestManager(t, fb)
	if err := mgr.Login(context.Background(), user.Email, "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := mgr.CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth: %v", err)
	}
	if got := mgr.Snapshot().User.FullName; got != "Renamed Operator" {
		t.Errorf("FullName = %q, want refreshed identity", got)
	}
}

func TestExpireClearsAndFiresHook(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	user := testutil.TestUser()
	fb.Handle(loginHandler("tok-1", user))
	fb.HandleJSON("GET /api/v1/records", http.StatusUnauthorized, map[string]string{"detail": "expired"})

	mgr, store, client := newTestManager(t, fb)
	if err := mgr.Login(context.Background(), user.Email, "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	fired := 0
	mgr.OnReset(func() { fired++ })

	// Any 401 response fires the expiry path through the client hook.
	if _, err := client.ListRecords(context.Background(), api.RecordFilter{}); err == nil {
		t.Fatal("expected 401 error")
	}

	if fired != 1 {
		t.Errorf("reset hook fired %d times, want 1", fired)
	}
	if mgr.Authenticated() {
		t.Error("still authenticated after forced expiry")
	}
	if _, _, ok, _ := store.Load(); ok {
		t.Error("durable record survived forced expiry")
	}
}

func TestDisplayIdentity(t *testing.T) {
	s := Session{User: api.User{Email: "op@lab", FullName: "Full Name"}}
	if got := s.DisplayIdentity(); got != "Full Name" {
		t.Errorf("DisplayIdentity = %q, want full name", got)
	}
	s.User.FullName = ""
	if got := s.DisplayIdentity(); got != "op@lab" {
		t.Errorf("DisplayIdentity = %q, want email fallback", got)
	}
}
