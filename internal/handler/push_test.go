package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/tally/internal/database"
	"github.com/dukerupert/tally/internal/ledger"
	"github.com/dukerupert/tally/internal/push"
	"github.com/dukerupert/tally/internal/store"
)

func setupPushAPI(t *testing.T) (*http.ServeMux, *ledger.Ledger, *store.PushStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := ledger.New(store.NewDocumentStore(db, "test-doc"), logger)
	ps := store.NewPushStore(db)
	h := NewPushHandler(l, ps, push.NewService(push.Config{VAPIDPublicKey: "BPub", VAPIDPrivateKey: "priv"}), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/push/vapid-key", h.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscriptions", h.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions", h.Unsubscribe)
	return mux, l, ps
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestPushVAPIDKey(t *testing.T) {
	mux, _, _ := setupPushAPI(t)

	rec := serve(mux, "GET", "/api/push/vapid-key", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"publicKey":"BPub"`) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestPushSubscribe(t *testing.T) {
	mux, l, ps := setupPushAPI(t)
	role, err := l.AddRole("Mia")
	if err != nil {
		t.Fatalf("add role: %v", err)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing keys", `{"endpoint":"https://push.example/a"}`, http.StatusBadRequest},
		{"plain http", `{"endpoint":"http://push.example/a","keys":{"p256dh":"k","auth":"a"}}`, http.StatusBadRequest},
		{"unknown role", `{"endpoint":"https://push.example/a","keys":{"p256dh":"k","auth":"a"},"roleId":"ghost"}`, http.StatusBadRequest},
		{"all roles", `{"endpoint":"https://push.example/a","keys":{"p256dh":"k","auth":"a"}}`, http.StatusCreated},
		{"one role", `{"endpoint":"https://push.example/b","keys":{"p256dh":"k","auth":"a"},"roleId":"` + role.ID + `"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		if rec := serve(mux, "POST", "/api/push/subscriptions", tt.body); rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d (%s)", tt.name, rec.Code, tt.want, rec.Body)
		}
	}

	subs, err := ps.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 || subs[1].RoleID != role.ID {
		t.Errorf("subs = %+v", subs)
	}

	if rec := serve(mux, "DELETE", "/api/push/subscriptions", `{"endpoint":"https://push.example/a"}`); rec.Code != http.StatusNoContent {
		t.Errorf("unsubscribe: status = %d, want 204", rec.Code)
	}
	if rec := serve(mux, "DELETE", "/api/push/subscriptions", `{"endpoint":"https://push.example/a"}`); rec.Code != http.StatusNotFound {
		t.Errorf("unsubscribe again: status = %d, want 404", rec.Code)
	}
}
