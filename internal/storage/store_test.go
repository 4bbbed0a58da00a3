package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/iliyamo/hotel-reservation/internal/storage"
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Read(ctx, "customers.json")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Write(ctx, "customers.json", []byte(`[{"customer_id":"C1"}]`)))
	data, err := s.Read(ctx, "customers.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"customer_id":"C1"}]`, string(data))

	require.NoError(t, s.Write(ctx, "customers.json", []byte(`[]`)))
	data, err = s.Read(ctx, "customers.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	_, err = s.Read(ctx, "hotels.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s := storage.NewFileStore(dir)
	exerciseStore(t, s)

	_, err := os.Stat(filepath.Join(dir, "customers.json"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStoreAbsoluteNameBypassesDir(t *testing.T) {
	other := filepath.Join(t.TempDir(), "nested", "hotels.json")
	s := storage.NewFileStore(t.TempDir())

	require.NoError(t, s.Write(context.Background(), other, []byte(`[]`)))
	assert.Equal(t, other, s.Path(other))

	data, err := os.ReadFile(other)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestBoltStore(t *testing.T) {
	s, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := storage.NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), "hotels.json", []byte(`[]`)))
	require.NoError(t, s.Close())

	s, err = storage.NewBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	data, err := s.Read(context.Background(), "hotels.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s, err := storage.NewRedisStore(client, "test")
	require.NoError(t, err)
	exerciseStore(t, s)

	assert.Equal(t, "test:snapshot:customers.json", s.Key("customers.json"))
	assert.True(t, mr.Exists("test:snapshot:customers.json"))
}

func TestRedisStoreRejectsNilClient(t *testing.T) {
	_, err := storage.NewRedisStore(nil, "")
	assert.Error(t, err)
}

func TestTracedDelegates(t *testing.T) {
	s := storage.Traced(storage.NewFileStore(t.TempDir()), "file", nil)
	exerciseStore(t, s)
}

func TestTracedRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	s := storage.Traced(brokenStore{}, "broken", tp)
	_, err := s.Read(context.Background(), "hotels.json")
	require.Error(t, err)

	s = storage.Traced(storage.NewFileStore(t.TempDir()), "file", tp)
	_, err = s.Read(context.Background(), "hotels.json")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, s.Write(context.Background(), "hotels.json", []byte(`[]`)))

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "storage.read", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, codes.Unset, spans[1].Status().Code, "a missing snapshot is not an error")
	assert.Equal(t, "storage.write", spans[2].Name())
	assert.Contains(t, spans[2].Attributes(), attribute.String("storage.backend", "file"))
}

type brokenStore struct{}

func (brokenStore) Read(context.Context, string) ([]byte, error) { return nil, errors.New("boom") }

func (brokenStore) Write(context.Context, string, []byte) error { return errors.New("boom") }

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	if err := db.Ping(); err != nil {
		t.Skipf("skipping: could not connect to mysql: %v", err)
	}
	_, err = db.Exec(`DROP TABLE IF EXISTS snapshots`)
	require.NoError(t, err)

	s, err := storage.NewMySQLStore(context.Background(), db)
	require.NoError(t, err)
	exerciseStore(t, s)
}
