package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/tenantwise/steering/store"
	"github.com/tenantwise/steering/types"
)

func key(id string) types.SessionKey {
	return types.SessionKey{App: "app", UserID: "user", SessionID: id}
}

func TestStore_CreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, key("s1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Title() != store.DefaultTitle {
		t.Errorf("new session title = %q, want %q", created.Title(), store.DefaultTitle)
	}

	got, err := s.Get(ctx, key("s1"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Key != key("s1") {
		t.Errorf("Get key = %v, want %v", got.Key, key("s1"))
	}

	if _, err := s.Create(ctx, key("s1")); !errors.Is(err, store.ErrSessionExists) {
		t.Errorf("second Create err = %v, want ErrSessionExists", err)
	}
	if _, err := s.Get(ctx, key("missing")); !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("Get missing err = %v, want ErrSessionNotFound", err)
	}
}

// Get hands out copies, so mutations are lost unless Save is called.
func TestStore_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Create(ctx, key("s1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sess, _ := s.Get(ctx, key("s1"))
	sess.Events = append(sess.Events, types.NewTextEvent(types.RoleUser, "hi"))

	again, _ := s.Get(ctx, key("s1"))
	if len(again.Events) != 0 {
		t.Fatalf("unsaved mutation visible: %d events, want 0", len(again.Events))
	}

	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved, _ := s.Get(ctx, key("s1"))
	if len(saved.Events) != 1 {
		t.Fatalf("after Save: %d events, want 1", len(saved.Events))
	}

	// Mutating the session after Save must not leak into the store.
	sess.Events[0].Blocks[0].Text = "mutated"
	fresh, _ := s.Get(ctx, key("s1"))
	if fresh.Events[0].Blocks[0].Text != "hi" {
		t.Error("post-Save mutation leaked into stored record")
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Create(ctx, key("s1")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(ctx, key("s1")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, key("s1")); !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("second Delete err = %v, want ErrSessionNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := New()

	keys := []types.SessionKey{
		{App: "app", UserID: "alice", SessionID: "a1"},
		{App: "app", UserID: "alice", SessionID: "a2"},
		{App: "app", UserID: "bob", SessionID: "b1"},
		{App: "other", UserID: "alice", SessionID: "o1"},
	}
	for _, k := range keys {
		if _, err := s.Create(ctx, k); err != nil {
			t.Fatalf("Create %v: %v", k, err)
		}
	}

	all, err := s.List(ctx, "app", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List(app) = %d sessions, want 3", len(all))
	}

	alice, err := s.List(ctx, "app", "alice")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(alice) != 2 {
		t.Errorf("List(app, alice) = %d sessions, want 2", len(alice))
	}
	for _, sum := range alice {
		if sum.Key.UserID != "alice" {
			t.Errorf("List(app, alice) returned session for %q", sum.Key.UserID)
		}
	}
}

func TestStore_List_EventCounts(t *testing.T) {
	ctx := context.Background()
	s := New()
	sess, err := s.Create(ctx, key("s1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sess.Events = append(sess.Events,
		types.NewTextEvent(types.RoleUser, "hi"),
		types.NewTextEvent(types.RoleModel, "hello"))
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	sums, err := s.List(ctx, "app", "user")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sums) != 1 || sums[0].EventCount != 2 {
		t.Fatalf("List = %+v, want one summary with 2 events", sums)
	}
}
