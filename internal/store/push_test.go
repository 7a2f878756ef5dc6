package store

import (
	"testing"

	"github.com/dukerupert/tally/internal/database"
)

func setupPushTestDB(t *testing.T) *PushStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPushStore(db)
}

func TestPushUpsert(t *testing.T) {
	ps := setupPushTestDB(t)

	sub, err := ps.Upsert("https://push.example/abc", "p256", "auth", "r1", "kitchen tablet")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if sub.ID == 0 || sub.RoleID != "r1" || sub.DeviceName != "kitchen tablet" {
		t.Errorf("sub = %+v", sub)
	}

	again, err := ps.Upsert("https://push.example/abc", "p256-new", "auth-new", "", "phone")
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if again.ID != sub.ID {
		t.Errorf("id = %d, want %d", again.ID, sub.ID)
	}
	if again.P256dhKey != "p256-new" || again.RoleID != "" || again.DeviceName != "phone" {
		t.Errorf("updated sub = %+v", again)
	}

	subs, err := ps.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("len = %d, want 1", len(subs))
	}
}

func TestPushGetMissing(t *testing.T) {
	ps := setupPushTestDB(t)

	sub, err := ps.GetByEndpoint("https://push.example/none")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sub != nil {
		t.Errorf("sub = %+v, want nil", sub)
	}

	subs, err := ps.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if subs == nil || len(subs) != 0 {
		t.Errorf("subs = %v, want empty slice", subs)
	}
}

func TestPushDelete(t *testing.T) {
	ps := setupPushTestDB(t)

	if _, err := ps.Upsert("https://push.example/a", "k", "a", "", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := ps.Upsert("https://push.example/b", "k", "a", "", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ok, err := ps.DeleteByEndpoint("https://push.example/a")
	if err != nil || !ok {
		t.Fatalf("delete = %v, %v", ok, err)
	}
	ok, err = ps.DeleteByEndpoint("https://push.example/a")
	if err != nil || ok {
		t.Errorf("delete again = %v, %v, want false", ok, err)
	}

	subs, _ := ps.List()
	if len(subs) != 1 || subs[0].Endpoint != "https://push.example/b" {
		t.Errorf("subs = %+v", subs)
	}
}
