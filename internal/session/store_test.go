package session

import (
	"path/filepath"
	"testing"

	"github.com/pvlab-dev/pvlab/internal/api"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	user := api.User{ID: "u-1", Email: "op@lab.example", FullName: "Op", Role: "operator"}
	if err := store.Save("tok-abc", user); err != nil {
		t.Fatalf("save: %v", err)
	}

	token, got, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("load: ok = false after save")
	}
	if token != "tok-abc" {
		t.Errorf("token = %q, want %q", token, "tok-abc")
	}
	if got != user {
		t.Errorf("user = %+v, want %+v", got, user)
	}
}

func TestStoreLoadEmpty(t *testing.T) {
	store := newTestStore(t)

	_, _, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Error("load: ok = true on empty store")
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("old", api.User{ID: "u-1", Email: "a@lab"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save("new", api.User{ID: "u-2", Email: "b@lab"}); err != nil {
		t.Fatal(err)
	}

	token, user, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if token != "new" || user.ID != "u-2" {
		t.Errorf("got token=%q user=%s, want the replacement record", token, user.ID)
	}
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("tok", api.User{ID: "u-1"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	_, _, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Error("record still present after clear")
	}

	// Clearing an empty store is not an error.
	if err := store.Clear(); err != nil {
		t.Errorf("second clear: %v", err)
	}
}
