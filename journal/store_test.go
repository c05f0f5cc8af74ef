package journal_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/tokenlab-xyz/go-tokenlab/journal"
)

const (
	tokenStream = "0x1111111111111111111111111111111111111111"
	otherStream = "0x2222222222222222222222222222222222222222"
)

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func() journal.Store {
		return journal.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func() journal.Store {
		store, err := journal.NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatalf("failed to create sqlite store: %v", err)
		}
		return store
	})
}

func runStoreTests(t *testing.T, newStore func() journal.Store) {
	t.Run("AppendAndRead", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		deploy, _ := journal.NewEvent(tokenStream, "receipt.deploy", map[string]string{"method": "deploy"})
		transfer, _ := journal.NewEvent(tokenStream, "log.Transfer", map[string]string{"amount": "100"})

		version, err := store.Append(ctx, tokenStream, -1, []*journal.Event{deploy})
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if version != 0 {
			t.Errorf("expected version 0, got %d", version)
		}

		version, err = store.Append(ctx, tokenStream, 0, []*journal.Event{transfer})
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if version != 1 {
			t.Errorf("expected version 1, got %d", version)
		}

		events, err := store.Read(ctx, tokenStream, 0)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[0].Type != "receipt.deploy" {
			t.Errorf("expected type receipt.deploy, got %s", events[0].Type)
		}
		if events[1].Type != "log.Transfer" {
			t.Errorf("expected type log.Transfer, got %s", events[1].Type)
		}
	})

	t.Run("AppendIsAtomic", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		receipt, _ := journal.NewEvent(tokenStream, "receipt.transfer", nil)
		log, _ := journal.NewEvent(tokenStream, "log.Transfer", nil)

		// Wrong expected version: neither event may land.
		if _, err := store.Append(ctx, tokenStream, 3, []*journal.Event{receipt, log}); !errors.Is(err, journal.ErrConcurrencyConflict) {
			t.Fatalf("expected concurrency conflict, got: %v", err)
		}
		version, err := store.StreamVersion(ctx, tokenStream)
		if err != nil {
			t.Fatalf("stream version failed: %v", err)
		}
		if version != -1 {
			t.Errorf("conflicting append wrote events: version %d", version)
		}

		// Correct version: both land together.
		if _, err := store.Append(ctx, tokenStream, -1, []*journal.Event{receipt, log}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
		events, _ := store.Read(ctx, tokenStream, 0)
		if len(events) != 2 {
			t.Errorf("expected 2 events, got %d", len(events))
		}
	})

	t.Run("StreamVersion", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		version, err := store.StreamVersion(ctx, tokenStream)
		if err != nil {
			t.Fatalf("stream version failed: %v", err)
		}
		if version != -1 {
			t.Errorf("expected version -1 for missing stream, got %d", version)
		}

		ev, _ := journal.NewEvent(tokenStream, "receipt.deploy", nil)
		if _, err := store.Append(ctx, tokenStream, -1, []*journal.Event{ev}); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		version, err = store.StreamVersion(ctx, tokenStream)
		if err != nil {
			t.Fatalf("stream version failed: %v", err)
		}
		if version != 0 {
			t.Errorf("expected version 0, got %d", version)
		}
	})

	t.Run("ReadFromVersion", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			ev, _ := journal.NewEvent(tokenStream, "receipt.mint", i)
			if _, err := store.Append(ctx, tokenStream, i-1, []*journal.Event{ev}); err != nil {
				t.Fatalf("append failed: %v", err)
			}
		}

		events, err := store.Read(ctx, tokenStream, 1)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[0].Version != 1 {
			t.Errorf("expected first event version 1, got %d", events[0].Version)
		}
	})

	t.Run("ReadAllWithFilter", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		ev1, _ := journal.NewEvent(tokenStream, "log.Transfer", nil)
		ev2, _ := journal.NewEvent(tokenStream, "log.Approval", nil)
		ev3, _ := journal.NewEvent(otherStream, "log.Transfer", nil)

		store.Append(ctx, tokenStream, -1, []*journal.Event{ev1, ev2})
		store.Append(ctx, otherStream, -1, []*journal.Event{ev3})

		events, err := store.ReadAll(ctx, journal.EventFilter{Types: []string{"log.Transfer"}})
		if err != nil {
			t.Fatalf("read all failed: %v", err)
		}
		if len(events) != 2 {
			t.Errorf("expected 2 Transfer logs, got %d", len(events))
		}

		events, err = store.ReadAll(ctx, journal.EventFilter{StreamID: tokenStream})
		if err != nil {
			t.Fatalf("read all failed: %v", err)
		}
		if len(events) != 2 {
			t.Errorf("expected 2 events for the token stream, got %d", len(events))
		}
	})

	t.Run("DeleteStream", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		ev, _ := journal.NewEvent(tokenStream, "receipt.deploy", nil)
		if _, err := store.Append(ctx, tokenStream, -1, []*journal.Event{ev}); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		if err := store.DeleteStream(ctx, tokenStream); err != nil {
			t.Fatalf("delete stream failed: %v", err)
		}

		version, _ := store.StreamVersion(ctx, tokenStream)
		if version != -1 {
			t.Errorf("expected version -1 after delete, got %d", version)
		}
	})
}

func TestCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := journal.NewMemoryStore()
	defer store.Close()

	ev1, _ := journal.NewEvent(tokenStream, "receipt.deploy", map[string]string{"method": "deploy"})
	ev2, _ := journal.NewEvent(tokenStream, "log.Transfer", map[string]string{"amount": "1000"})
	if _, err := store.Append(ctx, tokenStream, -1, []*journal.Event{ev1, ev2}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	events, _ := store.ReadAll(ctx, journal.EventFilter{})

	var buf bytes.Buffer
	if err := journal.WriteCSV(&buf, events); err != nil {
		t.Fatalf("write csv failed: %v", err)
	}

	parsed, err := journal.ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read csv failed: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 events, got %d", len(parsed))
	}
	if parsed[1].Type != "log.Transfer" {
		t.Errorf("expected log.Transfer, got %s", parsed[1].Type)
	}
	if parsed[1].Version != 1 {
		t.Errorf("expected version 1, got %d", parsed[1].Version)
	}
	if string(parsed[1].Data) != `{"amount":"1000"}` {
		t.Errorf("unexpected payload: %s", parsed[1].Data)
	}
}
