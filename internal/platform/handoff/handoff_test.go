package handoff

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pujar/labbill/internal/domain/billing"
	"github.com/pujar/labbill/internal/platform/db"
)

func sampleRecord() billing.PatientRecord {
	return billing.PatientRecord{
		Name:            "Asha Rao",
		Age:             "34",
		Sex:             billing.SexFemale,
		Date:            "2024-03-01",
		ReferredDoctors: []string{"Dr. Vinod JB (MS - Ayu)"},
		SelectedTests: []billing.LineItem{
			{Name: "CBC", Price: 300, Variant: "Standard"},
			{Name: "ESR", Price: 200},
		},
	}
}

// runStoreTests exercises the Store contract against one backend.
func runStoreTests(t *testing.T, name string, newStore func(t *testing.T) Store) {
	t.Run(name+"/PutAndGet", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		rec := sampleRecord()

		if err := store.Put(ctx, "session-1", rec, time.Hour); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := store.Get(ctx, "session-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !reflect.DeepEqual(got, rec) {
			t.Errorf("Get = %+v, want %+v", got, rec)
		}
	})

	t.Run(name+"/GetIsRepeatable", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		store.Put(ctx, "session-2", sampleRecord(), time.Hour)

		for i := 0; i < 3; i++ {
			if _, err := store.Get(ctx, "session-2"); err != nil {
				t.Fatalf("read %d: %v", i, err)
			}
		}
	})

	t.Run(name+"/GetMissing", func(t *testing.T) {
		store := newStore(t)
		if _, err := store.Get(context.Background(), "no-such-session"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run(name+"/PutReplaces", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		first := sampleRecord()
		second := sampleRecord()
		second.Name = "Ravi Kumar"
		second.SelectedTests = []billing.LineItem{{Name: "HBA1C", Price: 850}}

		store.Put(ctx, "session-3", first, time.Hour)
		store.Put(ctx, "session-3", second, time.Hour)

		got, err := store.Get(ctx, "session-3")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, second) {
			t.Errorf("expected second snapshot, got %+v", got)
		}
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		store.Put(ctx, "session-4", sampleRecord(), time.Hour)

		if err := store.Delete(ctx, "session-4"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := store.Get(ctx, "session-4"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run(name+"/Expiry", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		store.Put(ctx, "session-5", sampleRecord(), 50*time.Millisecond)

		time.Sleep(150 * time.Millisecond)

		if _, err := store.Get(ctx, "session-5"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected expired slot to read as ErrNotFound, got %v", err)
		}
	})

	t.Run(name+"/Ping", func(t *testing.T) {
		if err := newStore(t).Ping(context.Background()); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, "Memory", func(*testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStore_ReadersDoNotShareMemory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rec := sampleRecord()
	store.Put(ctx, "k", rec, 0)

	rec.SelectedTests[0].Price = 1
	got, _ := store.Get(ctx, "k")
	if got.SelectedTests[0].Price != 300 {
		t.Errorf("stored snapshot changed through the writer's slice: %+v", got.SelectedTests)
	}
}

func TestMemoryStore_Purge(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.SetClock(func() time.Time { return now })
	ctx := context.Background()

	store.Put(ctx, "short", sampleRecord(), time.Minute)
	store.Put(ctx, "long", sampleRecord(), time.Hour)
	store.Put(ctx, "forever", sampleRecord(), 0)

	now = now.Add(10 * time.Minute)

	if n := store.Purge(); n != 1 {
		t.Errorf("expected 1 slot purged, got %d", n)
	}
	if _, err := store.Get(ctx, "long"); err != nil {
		t.Errorf("expected long-lived slot kept, got %v", err)
	}
	if _, err := store.Get(ctx, "forever"); err != nil {
		t.Errorf("expected slot without ttl kept, got %v", err)
	}
}

func TestMemoryStore_ConcurrentPutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rec := sampleRecord()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Put(ctx, "shared", rec, time.Hour)
		}()
		go func() {
			defer wg.Done()
			got, err := store.Get(ctx, "shared")
			if err == nil && !reflect.DeepEqual(got, rec) {
				t.Errorf("reader observed a partial snapshot: %+v", got)
			}
		}()
	}
	wg.Wait()
}

// ---------------------------------------------------------------------------
// PostgresStore with a mock connection
// ---------------------------------------------------------------------------

type mockPGRow struct {
	data    []byte
	scanErr error
}

func (r *mockPGRow) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	if b, ok := dest[0].(*[]byte); ok {
		*b = r.data
	}
	return nil
}

type mockEntry struct {
	data      []byte
	expiresAt *time.Time
}

type mockPGConn struct {
	mu       sync.Mutex
	rows     map[string]mockEntry
	queryErr error
	execErr  error
}

func newMockPGConn() *mockPGConn {
	return &mockPGConn{rows: make(map[string]mockEntry)}
}

func (m *mockPGConn) live(e mockEntry) bool {
	return e.expiresAt == nil || time.Now().Before(*e.expiresAt)
}

func (m *mockPGConn) QueryRow(_ context.Context, _ string, args ...any) pgRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return &mockPGRow{scanErr: m.queryErr}
	}
	e, ok := m.rows[args[0].(string)]
	if !ok || !m.live(e) {
		return &mockPGRow{scanErr: pgx.ErrNoRows}
	}
	return &mockPGRow{data: e.data}
}

func (m *mockPGConn) Exec(_ context.Context, sql string, args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.execErr != nil {
		return m.execErr
	}
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		m.rows[args[0].(string)] = mockEntry{data: args[1].([]byte), expiresAt: args[2].(*time.Time)}
	case strings.HasPrefix(sql, "DELETE") && len(args) == 1:
		delete(m.rows, args[0].(string))
	case strings.HasPrefix(sql, "DELETE"):
		for k, e := range m.rows {
			if !m.live(e) {
				delete(m.rows, k)
			}
		}
	}
	return nil
}

func (m *mockPGConn) Ping(context.Context) error { return nil }

func TestPostgresStore_Mock(t *testing.T) {
	runStoreTests(t, "PostgresMock", func(*testing.T) Store {
		return NewPostgresStore(newMockPGConn())
	})
}

func TestPostgresStore_PoolStatsWithoutPool(t *testing.T) {
	if stats := NewPostgresStore(newMockPGConn()).PoolStats(); stats != nil {
		t.Errorf("expected no pool stats, got %+v", stats)
	}
}

func TestPostgresStore_NoTTLStoresNullExpiry(t *testing.T) {
	conn := newMockPGConn()
	store := NewPostgresStore(conn)
	if err := store.Put(context.Background(), "k", sampleRecord(), 0); err != nil {
		t.Fatal(err)
	}
	if conn.rows["k"].expiresAt != nil {
		t.Errorf("expected NULL expiry, got %v", conn.rows["k"].expiresAt)
	}
}

func TestPostgresStore_Purge(t *testing.T) {
	conn := newMockPGConn()
	store := NewPostgresStore(conn)
	ctx := context.Background()
	store.Put(ctx, "stale", sampleRecord(), time.Millisecond)
	store.Put(ctx, "fresh", sampleRecord(), time.Hour)
	time.Sleep(10 * time.Millisecond)

	if err := store.Purge(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := conn.rows["stale"]; ok {
		t.Error("expected stale row purged")
	}
	if _, ok := conn.rows["fresh"]; !ok {
		t.Error("expected fresh row kept")
	}
}

func TestPostgresStore_Errors(t *testing.T) {
	conn := newMockPGConn()
	conn.execErr = errors.New("db write failed")
	conn.queryErr = errors.New("db read failed")
	store := NewPostgresStore(conn)
	ctx := context.Background()

	if err := store.Put(ctx, "k", sampleRecord(), time.Hour); err == nil {
		t.Error("expected Put to fail")
	}
	_, err := store.Get(ctx, "k")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected a read failure distinct from ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_CorruptPayload(t *testing.T) {
	conn := newMockPGConn()
	conn.rows["k"] = mockEntry{data: []byte("{not json")}
	store := NewPostgresStore(conn)
	if _, err := store.Get(context.Background(), "k"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected decode error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Live backends
// ---------------------------------------------------------------------------

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	runStoreTests(t, "Redis", func(t *testing.T) Store {
		client, err := NewRedisClient(context.Background(), url)
		if err != nil {
			t.Fatalf("connect redis: %v", err)
		}
		t.Cleanup(func() { client.Close() })
		return NewRedisStore(client)
	})
}

func TestPostgresStore_Live(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ddl, err := os.ReadFile("../../../migrations/001_billing_handoff.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	runStoreTests(t, "Postgres", func(t *testing.T) Store {
		ctx := context.Background()
		pool, err := db.NewPool(ctx, url, 2, 1)
		if err != nil {
			t.Fatalf("connect postgres: %v", err)
		}
		t.Cleanup(pool.Close)
		if _, err := pool.Exec(ctx, string(ddl)); err != nil {
			t.Fatalf("create table: %v", err)
		}
		if _, err := pool.Exec(ctx, "TRUNCATE billing_handoff"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return NewPostgresStoreFromPool(pool)
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, closeFn, err := Open(ctx, Options{Backend: BackendMemory})
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	defer closeFn()
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", store)
	}

	if _, _, err := Open(ctx, Options{Backend: "etcd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, _, err := Open(ctx, Options{Backend: BackendRedis, RedisURL: "not a url"}); err == nil {
		t.Error("expected error for malformed redis url")
	}
}
