package subscriptions_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"podscribe/internal/storage"
	"podscribe/internal/subscriptions"
)

func newTestService(t *testing.T) *subscriptions.Service {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return subscriptions.NewService(db)
}

func TestAddAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if err := svc.Add(ctx, "gotime", "https://example.com/gotime.xml"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	sub, err := svc.Get(ctx, "gotime")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sub.FeedURL != "https://example.com/gotime.xml" {
		t.Errorf("feed url = %q", sub.FeedURL)
	}
	if !sub.Enabled {
		t.Error("new subscription should be enabled")
	}
	if sub.LastChecked != nil {
		t.Error("new subscription should have no last checked time")
	}
}

func TestAddReplacesFeedURL(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if err := svc.Add(ctx, "gotime", "https://example.com/old.xml"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Add(ctx, "gotime", "https://example.com/new.xml"); err != nil {
		t.Fatal(err)
	}

	sub, err := svc.Get(ctx, "gotime")
	if err != nil {
		t.Fatal(err)
	}
	if sub.FeedURL != "https://example.com/new.xml" {
		t.Errorf("feed url = %q, want replacement", sub.FeedURL)
	}

	subs, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 {
		t.Errorf("subscription count = %d, want 1", len(subs))
	}
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if err := svc.Add(ctx, "  ", "https://example.com/feed.xml"); err == nil {
		t.Error("expected error for blank name")
	}
	if err := svc.Add(ctx, "name", ""); err == nil {
		t.Error("expected error for blank feed url")
	}
}

func TestGetUnknown(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), "nope")
	if !errors.Is(err, subscriptions.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrdersByName(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	for _, name := range []string{"zeta", "Alpha", "mid"} {
		if err := svc.Add(ctx, name, "https://example.com/"+name+".xml"); err != nil {
			t.Fatal(err)
		}
	}

	subs, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, 0, len(subs))
	for _, sub := range subs {
		got = append(got, sub.Name)
	}
	want := []string{"Alpha", "mid", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("list order = %v, want %v", got, want)
		}
	}
}

func TestResolveFuzzy(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if err := svc.Add(ctx, "gotime", "https://example.com/gotime.xml"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Add(ctx, "syntax", "https://example.com/syntax.xml"); err != nil {
		t.Fatal(err)
	}

	sub, err := svc.Resolve(ctx, "gotmie")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sub.Name != "gotime" {
		t.Errorf("resolved %q, want gotime", sub.Name)
	}

	if _, err := svc.Resolve(ctx, "completely-unrelated"); !errors.Is(err, subscriptions.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTouchChecked(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if err := svc.Add(ctx, "gotime", "https://example.com/gotime.xml"); err != nil {
		t.Fatal(err)
	}
	if err := svc.TouchChecked(ctx, "gotime"); err != nil {
		t.Fatalf("TouchChecked: %v", err)
	}

	sub, err := svc.Get(ctx, "gotime")
	if err != nil {
		t.Fatal(err)
	}
	if sub.LastChecked == nil {
		t.Fatal("last checked not recorded")
	}
	if sub.LastChecked.IsZero() {
		t.Error("last checked is zero")
	}
}
