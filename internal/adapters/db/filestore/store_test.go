package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	customErrors "github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/errors"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newStore(t *testing.T) *Store {
	s, err := New(t.TempDir(), "things")
	require.NoError(t, err)
	return s
}

func TestStore_CRUD(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "things", "a", doc{Name: "a", Count: 1}))

	var got doc
	require.NoError(t, s.Read(ctx, "things", "a", &got))
	require.Equal(t, doc{Name: "a", Count: 1}, got)

	require.NoError(t, s.Update(ctx, "things", "a", doc{Name: "a", Count: 2}))
	require.NoError(t, s.Read(ctx, "things", "a", &got))
	require.Equal(t, 2, got.Count)

	require.NoError(t, s.Delete(ctx, "things", "a"))
	err := s.Read(ctx, "things", "a", &got)
	require.True(t, customErrors.IsNotFound(err))
}

func TestStore_CreateExisting(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "things", "a", doc{Name: "first"}))
	err := s.Create(ctx, "things", "a", doc{Name: "second"})
	require.True(t, customErrors.IsAlreadyExists(err))

	var got doc
	require.NoError(t, s.Read(ctx, "things", "a", &got))
	require.Equal(t, "first", got.Name)
}

func TestStore_UpdateDeleteMissing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.True(t, customErrors.IsNotFound(s.Update(ctx, "things", "nope", doc{})))
	require.True(t, customErrors.IsNotFound(s.Delete(ctx, "things", "nope")))

	_, err := os.Stat(filepath.Join(s.BaseDir(), "things", "nope.json"))
	require.True(t, os.IsNotExist(err), "update must not create a record")
}

func TestStore_DeleteTouchesOnlyTarget(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "things", "a", doc{Name: "a"}))
	require.NoError(t, s.Create(ctx, "things", "b", doc{Name: "b"}))
	require.NoError(t, s.Delete(ctx, "things", "a"))

	var got doc
	require.NoError(t, s.Read(ctx, "things", "b", &got))
	require.Equal(t, "b", got.Name)
}

func TestStore_ConcurrentCreateSingleWinner(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	const n = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Create(ctx, "things", "race", doc{Count: i})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case customErrors.IsAlreadyExists(err):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, ok)
	require.Equal(t, n-1, dups)

	entries, err := os.ReadDir(filepath.Join(s.BaseDir(), "things"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestStore_RejectsEscapingKeys(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "..", "../x", "a/b", `a\b`, ".hidden"} {
		err := s.Create(ctx, "things", id, doc{})
		require.Truef(t, customErrors.IsInvalidArgument(err), "id %q", id)
	}
	require.True(t, customErrors.IsInvalidArgument(s.Create(ctx, "../etc", "a", doc{})))
}

func TestStore_CancelledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Create(ctx, "things", "a", doc{}), context.Canceled)

	var got doc
	require.True(t, customErrors.IsNotFound(s.Read(context.Background(), "things", "a", &got)))
}

func TestStore_CorruptRecordIsInternal(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.BaseDir(), "things", "bad.json"), []byte("{"), 0o640))

	var got doc
	err := s.Read(context.Background(), "things", "bad", &got)
	require.True(t, customErrors.IsInternal(err))
}
