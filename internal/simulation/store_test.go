package simulation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clickstream/internal/domain/catalog"
)

func TestStore_GetOrCreate(t *testing.T) {
	store := NewStore()

	var created []*Session
	create := func(prev *Session) *Session {
		created = append(created, prev)
		return &Session{SessionID: NewSessionID(), IsNewUser: prev == nil}
	}
	keep := func() bool { return false }
	renew := func() bool { return true }

	first := store.GetOrCreate("u1", keep, create)
	require.Len(t, created, 1)
	assert.Nil(t, created[0])
	assert.True(t, first.IsNewUser)

	again := store.GetOrCreate("u1", keep, create)
	assert.Same(t, first, again)
	assert.Len(t, created, 1)

	renewed := store.GetOrCreate("u1", renew, create)
	require.Len(t, created, 2)
	assert.Same(t, first, created[1])
	assert.NotEqual(t, first.SessionID, renewed.SessionID)
	assert.False(t, renewed.IsNewUser)

	got, ok := store.Get("u1")
	require.True(t, ok)
	assert.Same(t, renewed, got)
	assert.Equal(t, 1, store.Len())
}

func TestStore_RenewIsNotConsultedForUnseenUsers(t *testing.T) {
	store := NewStore()
	store.GetOrCreate("u1", func() bool {
		t.Fatal("renew called for a new user")
		return false
	}, func(*Session) *Session { return &Session{} })
}

func TestStore_UserIDsKeepFirstSeenOrder(t *testing.T) {
	store := NewStore()
	for _, id := range []string{"c", "a", "b", "a"} {
		store.Put(id, &Session{})
	}
	assert.Equal(t, []string{"c", "a", "b"}, store.UserIDs())

	ids := store.UserIDs()
	ids[0] = "mutated"
	assert.Equal(t, "c", store.UserIDs()[0])
}

func TestStore_Stats(t *testing.T) {
	store := NewStore()
	store.Put("u1", &Session{CartItems: []catalog.Product{alpha, beta}})
	store.Put("u2", &Session{})
	store.Put("u3", &Session{CartItems: []catalog.Product{gamma}})

	users, items := store.Stats()
	assert.Equal(t, 3, users)
	assert.Equal(t, 3, items)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.GetOrCreate(NewUserID(), func() bool { return false }, func(*Session) *Session { return &Session{} })
				_ = store.UserIDs()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, store.Len())
}
