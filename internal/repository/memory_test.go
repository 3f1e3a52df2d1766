package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/arrifai/internal/domain"
)

func newTestSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	return NewSessionStore(SessionStoreOptions{})
}

func TestGetOrCreateSeedsSystemPrompt(t *testing.T) {
	store := newTestSessionStore(t)

	transcript, created := store.GetOrCreate("s1")
	require.True(t, created)
	require.Len(t, transcript, 1)
	assert.Equal(t, domain.SystemMessage(), transcript[0])

	transcript, created = store.GetOrCreate("s1")
	assert.False(t, created)
	assert.Len(t, transcript, 1)
}

func TestGetOrCreateReturnsCopy(t *testing.T) {
	store := newTestSessionStore(t)

	transcript, _ := store.GetOrCreate("s1")
	transcript[0].Content = "mutated"

	again, _ := store.GetOrCreate("s1")
	assert.Equal(t, domain.SystemPrompt, again[0].Content)
}

func TestAppendRequiresSession(t *testing.T) {
	store := newTestSessionStore(t)

	err := store.Append("missing", domain.Message{Role: domain.RoleUser, Content: "hi"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, store.List())
}

func TestAppendKeepsOrder(t *testing.T) {
	store := newTestSessionStore(t)
	store.GetOrCreate("s1")

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append("s1",
			domain.Message{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i)},
			domain.Message{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		))
	}

	transcript, ok := store.Get("s1")
	require.True(t, ok)
	require.Len(t, transcript, 7)
	assert.Equal(t, domain.RoleSystem, transcript[0].Role)
	for i := 0; i < 3; i++ {
		assert.Equal(t, domain.RoleUser, transcript[1+2*i].Role)
		assert.Equal(t, fmt.Sprintf("q%d", i), transcript[1+2*i].Content)
		assert.Equal(t, domain.RoleAssistant, transcript[2+2*i].Role)
	}
}

func TestDeleteAndRecreate(t *testing.T) {
	store := newTestSessionStore(t)
	store.GetOrCreate("s1")
	require.NoError(t, store.Append("s1", domain.Message{Role: domain.RoleUser, Content: "hi"}))

	assert.True(t, store.Delete("s1"))
	_, ok := store.Get("s1")
	assert.False(t, ok)

	transcript, created := store.GetOrCreate("s1")
	assert.True(t, created)
	assert.Len(t, transcript, 1)
}

func TestDeleteUnknownSession(t *testing.T) {
	store := newTestSessionStore(t)
	store.GetOrCreate("keep")

	assert.False(t, store.Delete("nope"))
	assert.Equal(t, []string{"keep"}, store.List())
}

func TestAppendAfterDeleteFails(t *testing.T) {
	store := newTestSessionStore(t)
	store.GetOrCreate("s1")
	store.Delete("s1")

	err := store.Append("s1", domain.Message{Role: domain.RoleUser, Content: "late"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	var mu sync.Mutex
	var evicted []string
	store := NewSessionStore(SessionStoreOptions{
		Capacity: 2,
		OnEvict: func(id string, _ int) {
			mu.Lock()
			evicted = append(evicted, id)
			mu.Unlock()
		},
	})

	store.GetOrCreate("a")
	store.GetOrCreate("b")
	store.GetOrCreate("a") // a is now most recent
	store.GetOrCreate("c")

	assert.ElementsMatch(t, []string{"a", "c"}, store.List())
	mu.Lock()
	assert.Equal(t, []string{"b"}, evicted)
	mu.Unlock()
}

func TestDeleteDoesNotReportEviction(t *testing.T) {
	called := false
	store := NewSessionStore(SessionStoreOptions{OnEvict: func(string, int) { called = true }})
	store.GetOrCreate("s1")
	store.Delete("s1")
	assert.False(t, called)
}

func TestTTLExpiresIdleSessions(t *testing.T) {
	store := NewSessionStore(SessionStoreOptions{TTL: 50 * time.Millisecond})
	store.GetOrCreate("s1")

	time.Sleep(120 * time.Millisecond)

	_, ok := store.Get("s1")
	assert.False(t, ok)
	transcript, created := store.GetOrCreate("s1")
	assert.True(t, created)
	assert.Len(t, transcript, 1)
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	store := newTestSessionStore(t)
	store.GetOrCreate("shared")

	const workers = 50
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return store.Append("shared",
				domain.Message{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i)},
				domain.Message{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
			)
		})
	}
	require.NoError(t, g.Wait())

	transcript, ok := store.Get("shared")
	require.True(t, ok)
	require.Len(t, transcript, 1+2*workers)
	for i := 1; i < len(transcript); i += 2 {
		require.Equal(t, domain.RoleUser, transcript[i].Role)
		require.Equal(t, domain.RoleAssistant, transcript[i+1].Role)
		// Each pair stays together.
		require.Equal(t, transcript[i].Content[1:], transcript[i+1].Content[1:])
	}
}

func TestConcurrentGetOrCreateSeedsOnce(t *testing.T) {
	store := newTestSessionStore(t)

	var g errgroup.Group
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, created := store.GetOrCreate("s1")
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, createdCount)
	transcript, _ := store.Get("s1")
	assert.Len(t, transcript, 1)
}
