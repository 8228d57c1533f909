package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quellt/boxwood/pkg/figma"
)

func testUser() *figma.User {
	return &figma.User{ID: "12345", Email: "dev@example.com", Handle: "dev"}
}

func TestNew(t *testing.T) {
	sess, err := New("tok-abc", testUser(), time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sess.ID == "" {
		t.Error("session needs an id")
	}
	if sess.Token != "tok-abc" {
		t.Errorf("Token = %q", sess.Token)
	}
	if sess.IsExpired() {
		t.Error("fresh session must not be expired")
	}
	if got := sess.UserID(); got != "figma:12345" {
		t.Errorf("UserID = %q", got)
	}

	other, err := New("tok-abc", testUser(), time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if other.ID == sess.ID {
		t.Error("session ids must be unique")
	}
}

func TestUserIDNil(t *testing.T) {
	var sess *Session
	if sess.UserID() != "" {
		t.Error("nil session should have empty user id")
	}
	if (&Session{}).UserID() != "" {
		t.Error("session without user should have empty user id")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	sess, err := New("tok-abc", testUser(), time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Token != "tok-abc" || got.User.Handle != "dev" {
		t.Errorf("unexpected session: %+v", got)
	}

	info, err := os.Stat(store.path(sess.ID))
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("session file mode = %o, want 600", info.Mode().Perm())
	}
}

func TestFileStoreMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	got, err := store.Get(context.Background(), "absent")
	if err != nil || got != nil {
		t.Errorf("missing session should be (nil, nil), got (%v, %v)", got, err)
	}
}

func TestFileStoreExpired(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	sess, err := New("tok-abc", testUser(), -time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil || got != nil {
		t.Errorf("expired session should be (nil, nil), got (%v, %v)", got, err)
	}
	if _, err := os.Stat(store.path(sess.ID)); !os.IsNotExist(err) {
		t.Error("expired session file should be removed on read")
	}
}

func TestFileStoreCleanup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	fresh, _ := New("a", testUser(), time.Hour)
	stale, _ := New("b", testUser(), -time.Minute)
	for _, sess := range []*Session{fresh, stale} {
		if err := store.Set(ctx, sess); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(store.path(stale.ID)); !os.IsNotExist(err) {
		t.Error("stale session should be cleaned up")
	}
	if _, err := os.Stat(store.path(fresh.ID)); err != nil {
		t.Error("fresh session should survive cleanup")
	}
}

func TestFileStoreDeleteAbsent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := store.Delete(context.Background(), "absent"); err != nil {
		t.Errorf("deleting an absent session should be a no-op, got %v", err)
	}
}

func TestCLIStoreFixedID(t *testing.T) {
	ctx := context.Background()
	base, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	cli := &CLIStore{store: base, sessionID: defaultCLISessionID}

	sess, err := New("tok-abc", testUser(), time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := cli.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(base.Path(), defaultCLISessionID+".json"))
	if err != nil {
		t.Fatalf("session should be stored under the fixed id: %v", err)
	}
	var onDisk Session
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("parse stored session: %v", err)
	}
	if onDisk.ID != defaultCLISessionID {
		t.Errorf("stored id = %q", onDisk.ID)
	}

	got, err := cli.GetSession(ctx)
	if err != nil || got == nil {
		t.Fatalf("GetSession: (%v, %v)", got, err)
	}
	if err := cli.DeleteSession(ctx); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	got, err = cli.GetSession(ctx)
	if err != nil || got != nil {
		t.Errorf("after delete: (%v, %v)", got, err)
	}
}
