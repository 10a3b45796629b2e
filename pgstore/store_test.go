package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantwise/steering/store"
	"github.com/tenantwise/steering/types"
)

// testStore connects to the database named by TEST_DATABASE_URL, or
// skips the test when unset.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(pool.Close)

	s := New(pool)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func freshKey() types.SessionKey {
	return types.SessionKey{App: "pgstore-test", UserID: "u", SessionID: uuid.New().String()}
}

func TestStore_RoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	key := freshKey()

	created, err := s.Create(ctx, key)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = s.Delete(ctx, key) })
	if created.Title() != store.DefaultTitle {
		t.Errorf("new session title = %q", created.Title())
	}
	if _, err := s.Create(ctx, key); !errors.Is(err, store.ErrSessionExists) {
		t.Errorf("duplicate Create err = %v, want ErrSessionExists", err)
	}

	created.Events = append(created.Events,
		types.NewTextEvent(types.RoleSystem, "preamble"),
		types.NewTextEvent(types.RoleUser, "hello"),
		types.NewEvent(types.RoleModel, types.ContentBlock{
			Type:       types.ContentTypeToolCall,
			ToolCallID: "c1",
			ToolName:   "lookup",
			ToolInput:  []byte(`{"q":"x"}`),
		}),
	)
	created.State[types.StateTitleKey] = "hello"
	if err := s.Save(ctx, created); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Events) != 3 {
		t.Fatalf("Get events = %d, want 3", len(got.Events))
	}
	if got.Events[2].Blocks[0].ToolName != "lookup" {
		t.Errorf("tool call block lost: %+v", got.Events[2].Blocks[0])
	}
	if got.Title() != "hello" {
		t.Errorf("title = %q, want %q", got.Title(), "hello")
	}

	// Save replaces the full event list.
	got.Events = got.Events[:1]
	if err := s.Save(ctx, got); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	again, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(again.Events) != 1 {
		t.Errorf("after truncating Save, events = %d, want 1", len(again.Events))
	}
}

func TestStore_DeleteAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	key := freshKey()

	if _, err := s.Create(ctx, key); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sums, err := s.List(ctx, key.App, key.UserID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, sum := range sums {
		if sum.Key == key {
			found = true
		}
	}
	if !found {
		t.Error("created session missing from List")
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, key); !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("second Delete err = %v, want ErrSessionNotFound", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("Get after Delete err = %v, want ErrSessionNotFound", err)
	}
}
